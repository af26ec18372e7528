package cmd

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/kbhelper/packages/output"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [endpoint]",
		Short: "Check that an endpoint serves Kanboard JSON-RPC",
		Long: `Check sends a GET request to the endpoint (the configured one by default) and
succeeds when a line of the answer mentions "jsonrpc". The exit status is 2 when
the endpoint is unreachable or answers something else.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := a.cfg.Endpoint
			if len(args) == 1 {
				endpoint = args[0]
			}
			if endpoint == "" {
				return withExitCode(ExitUsageError, fmt.Errorf("no endpoint given"))
			}

			start := time.Now()
			ok, err := a.httpClient().CheckEndpoint(cmd.Context(), endpoint)
			a.formatter.FormatCheck(&output.CheckResult{
				Endpoint:  endpoint,
				Reachable: ok,
				Duration:  time.Since(start),
				Err:       err,
			})

			if !ok {
				return withExitCode(ExitCheckFailed, fmt.Errorf("%s is not a JSON-RPC endpoint", endpoint))
			}
			return nil
		},
	}
}

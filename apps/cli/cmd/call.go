package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/kbhelper/packages/output"
	"github.com/spf13/cobra"
)

func newCallCmd(a *app) *cobra.Command {
	var (
		params string
		query  string
		notify bool
	)

	cmd := &cobra.Command{
		Use:   "call <method>",
		Short: "Invoke a Kanboard JSON-RPC method",
		Long: `Call sends a JSON-RPC request to the configured endpoint, authenticated with
the API token (or the secret of --credential-id), and prints the result.

Examples:
  kbhelper call getVersion
  kbhelper call getTask --params '{"task_id": 42}' --query title
  kbhelper call createComment --params '{"task_id": 42, "user_id": 1, "content": "Build passed"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p any
			if params != "" {
				if err := json.Unmarshal([]byte(params), &p); err != nil {
					return withExitCode(ExitUsageError, fmt.Errorf("invalid --params JSON: %w", err))
				}
			}

			s, closeSession, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer closeSession()

			if notify {
				return s.Notify(cmd.Context(), args[0], p)
			}

			start := time.Now()
			resp, err := s.Call(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}

			result := resp.Result
			if query != "" {
				value := resp.Get(query)
				if !value.Exists() {
					return fmt.Errorf("query %q matched nothing in the %s result", query, args[0])
				}
				result = json.RawMessage(value.Raw)
			}

			a.formatter.FormatCall(&output.CallResult{
				Method:   args[0],
				ID:       resp.ID,
				Query:    query,
				Result:   result,
				Duration: time.Since(start),
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&params, "params", "p", "", "Method parameters as a JSON object or array")
	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path selecting part of the result")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send as a notification and do not wait for a result")
	return cmd
}

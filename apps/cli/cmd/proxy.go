package cmd

import (
	"net/url"

	khttp "github.com/abdul-hamid-achik/kbhelper/packages/http"
	"github.com/abdul-hamid-achik/kbhelper/packages/output"
	"github.com/spf13/cobra"
)

func newProxyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "proxy <url>",
		Short: "Show the proxy a request to url would use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := khttp.ValidateURL(args[0]); err != nil {
				return err
			}
			target, err := url.Parse(args[0])
			if err != nil {
				return err
			}

			result := &output.ProxyResult{Target: args[0], Proxy: "direct"}
			if p := a.cfg.Proxy.Resolve(target); p != nil {
				result.Proxy = p.Redacted()
			}
			a.formatter.FormatProxy(result)
			return nil
		},
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFetchCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a URL through the configured proxy",
		Long: `Fetch performs a GET request honoring the proxy and no-proxy settings and
writes the response body to stdout, or to --file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.httpClient().Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if file == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(file, data, 0644); err != nil {
				return fmt.Errorf("cannot write %s: %w", file, err)
			}
			a.logger.Debug("fetched", zap.String("url", args[0]), zap.String("file", file), zap.Int("bytes", len(data)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write the body to this file instead of stdout")
	return cmd
}

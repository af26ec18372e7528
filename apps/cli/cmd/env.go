package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/kbhelper/packages/core/env"
	"github.com/spf13/cobra"
)

func newEnvCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect and contribute environment variables",
	}
	cmd.AddCommand(newEnvListCmd(a), newEnvExportCmd(a))
	return cmd
}

func newEnvListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the global environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.formatter.FormatVars(env.Global(a.envSources()))
			return nil
		},
	}
}

func newEnvExportCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export NAME=VALUE...",
		Short: "Contribute variables to later build steps",
		Long: `Export records NAME=VALUE pairs as environment contributions. With --file they
are merged into that dotenv file (existing variables are kept, exported ones win);
otherwise they are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var contributions env.Contributions
			for _, arg := range args {
				name, value, ok := strings.Cut(arg, "=")
				if !ok || strings.TrimSpace(name) == "" {
					return withExitCode(ExitUsageError, fmt.Errorf("invalid assignment %q (expected NAME=VALUE)", arg))
				}
				contributions.Export(strings.TrimSpace(name), value)
			}

			if file != "" {
				return contributions.WriteDotEnv(file)
			}

			vars := env.Vars{}
			contributions.BuildEnv(vars)
			a.formatter.FormatVars(vars)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Dotenv file to merge the variables into")
	return cmd
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/kbhelper/packages/core/env"
	"github.com/abdul-hamid-achik/kbhelper/packages/macro"
	"github.com/spf13/cobra"
)

func newExpandCmd(a *app) *cobra.Command {
	var macros bool

	cmd := &cobra.Command{
		Use:   "expand <template>",
		Short: "Expand $VAR references with the global environment",
		Long: `Expand replaces $NAME and ${NAME} with variables of the first configured
environment (or the --env-file). Unknown references are kept. With --macros the
template goes through the build macro expander instead, as csv does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !macros {
				fmt.Fprintln(cmd.OutOrStdout(), env.ExpandGlobal(a.envSources(), args[0]))
				return nil
			}

			x := macro.NewTokenExpander(macro.WithLogger(a.logger))
			result, err := x.Expand(cmd.Context(), a.currentBuild(), cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&macros, "macros", false, "Expand build macros such as ${BUILD_NUMBER} and ${ENV,var=\"NAME\"}")
	addBuildFlags(cmd, a)
	return cmd
}

func newCSVCmd(a *app) *cobra.Command {
	var separator string

	cmd := &cobra.Command{
		Use:   "csv <line>",
		Short: "Expand build macros in every field of a comma-separated line",
		Long: `Csv splits the line on commas and expands build macros in each field. Build
attributes come from the --job, --build-number, --build-id, --build-url and
--workspace flags, which default to the usual CI variables. Build variables are
the process environment overlaid with the global environment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x := macro.NewTokenExpander(macro.WithLogger(a.logger))
			values, err := macro.ExpandCSV(cmd.Context(), x, a.currentBuild(), cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}
			if len(values) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(values, separator))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&separator, "separator", "\n", "Separator printed between expanded fields")
	addBuildFlags(cmd, a)
	return cmd
}

// buildFlags holds the build attributes given on the command line.
type buildFlags struct {
	job       string
	number    int
	id        string
	url       string
	workspace string
}

func addBuildFlags(cmd *cobra.Command, a *app) {
	cmd.Flags().StringVar(&a.buildFlags.job, "job", getEnvString("JOB_NAME", ""), "Job name (env: JOB_NAME)")
	cmd.Flags().IntVar(&a.buildFlags.number, "build-number", getEnvInt("BUILD_NUMBER", 0), "Build number (env: BUILD_NUMBER)")
	cmd.Flags().StringVar(&a.buildFlags.id, "build-id", getEnvString("BUILD_ID", ""), "Build id (env: BUILD_ID)")
	cmd.Flags().StringVar(&a.buildFlags.url, "build-url", getEnvString("BUILD_URL", ""), "Build URL (env: BUILD_URL)")
	cmd.Flags().StringVar(&a.buildFlags.workspace, "workspace", getEnvString("WORKSPACE", "."), "Workspace directory (env: WORKSPACE)")
}

func (a *app) currentBuild() *macro.Build {
	return &macro.Build{
		JobName:   a.buildFlags.job,
		Number:    a.buildFlags.number,
		ID:        a.buildFlags.id,
		URL:       a.buildFlags.url,
		Workspace: a.buildFlags.workspace,
		Vars:      env.LoadSystemEnv("").Overlay(env.Global(a.envSources())),
	}
}

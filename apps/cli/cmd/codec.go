package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/kbhelper/packages/codec"
	"github.com/spf13/cobra"
)

func newEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <file>",
		Short: "Print the base64 encoding of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := codec.EncodeFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
}

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <path> [base64|-]",
		Short: "Write base64 data to a file",
		Long: `Decode writes the decoded bytes to path, creating parent directories, and
prints the path. The data is read from stdin when it is omitted or "-".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var encoded string
			if len(args) == 2 && args[1] != "-" {
				encoded = args[1]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				encoded = string(data)
			}

			path, err := codec.DecodeToFile(args[0], strings.TrimSpace(encoded))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

package cmd

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/kbhelper/packages/credentials"
	"github.com/abdul-hamid-achik/kbhelper/packages/output"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Report where the API token comes from",
		Long: `Token resolves the API token the way call does, through --credential-id first
and the literal --token otherwise, and reports its origin. The token itself is
never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.cfg.OpenCredentialStore(cmd.Context(), a.logger)
			if err != nil {
				return withExitCode(ExitConfigError, err)
			}
			defer store.Close()

			token, fromStore, err := credentials.ResolveToken(cmd.Context(), store, a.cfg.APITokenCredentialID, a.cfg.APIToken)
			if err != nil {
				return err
			}

			a.formatter.FormatToken(&output.TokenResult{
				CredentialID: a.cfg.APITokenCredentialID,
				FromStore:    fromStore,
				Empty:        token == "",
			})
			return nil
		},
	}
}

func newCredentialCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage credentials in the configured SQLite database",
	}

	withDatabase := func(run func(ctx context.Context, db *credentials.SQLiteStore, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := a.cfg.OpenCredentialStore(cmd.Context(), a.logger)
			if err != nil {
				return withExitCode(ExitConfigError, err)
			}
			defer store.Close()

			if store.Database() == nil {
				return withExitCode(ExitConfigError, fmt.Errorf("no credentials database configured (credentials.database)"))
			}
			return run(cmd.Context(), store.Database(), args)
		}
	}

	var description string
	put := &cobra.Command{
		Use:   "put <id> <secret>",
		Short: "Store or replace a credential",
		Args:  cobra.ExactArgs(2),
		RunE: withDatabase(func(ctx context.Context, db *credentials.SQLiteStore, args []string) error {
			return db.Put(ctx, credentials.Credential{ID: args[0], Secret: args[1], Description: description})
		}),
	}
	put.Flags().StringVar(&description, "description", "", "Credential description")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a credential",
		Args:  cobra.ExactArgs(1),
		RunE: withDatabase(func(ctx context.Context, db *credentials.SQLiteStore, args []string) error {
			return db.Delete(ctx, args[0])
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List credential identifiers",
		Args:  cobra.NoArgs,
	}
	list.RunE = withDatabase(func(ctx context.Context, db *credentials.SQLiteStore, args []string) error {
		ids, err := db.IDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(list.OutOrStdout(), id)
		}
		return nil
	})

	cmd.AddCommand(put, del, list)
	return cmd
}

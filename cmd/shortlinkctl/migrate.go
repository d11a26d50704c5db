package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the links table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.repo.Migrate(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s store\n", app.cfg.Store.Driver)
			return nil
		},
	}
}

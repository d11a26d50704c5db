package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve CODE",
		Short: "Print the long URL for a short code and count the visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			longURL, err := app.links.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), longURL)
			return nil
		},
	}
}

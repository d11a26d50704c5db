package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(app *application) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats CODE",
		Short: "Show the stored record and click count for a short code",
		Long:  `Reads the link without counting a visit.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := app.links.Diagnostics(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(link)
			}

			fmt.Fprintf(out, "Short code: %s\n", link.ShortCode)
			fmt.Fprintf(out, "Short URL: %s\n", app.shortURL(link.ShortCode))
			fmt.Fprintf(out, "Long URL: %s\n", link.LongURL)
			fmt.Fprintf(out, "Clicks: %d\n", link.Clicks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the record as JSON")

	return cmd
}

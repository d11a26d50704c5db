package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCmd(app *application) *cobra.Command {
	var longURL, code string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a short link for a long URL",
		Long: `Stores a long URL under a custom short code, or under a freshly
generated one when --code is omitted.

Example:
  shortlinkctl create --url "https://go.dev/doc" --code godocs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := app.links.Create(cmd.Context(), longURL, code)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Code: %s\n", created)
			fmt.Fprintf(out, "Short URL: %s\n", app.shortURL(created))
			return nil
		},
	}

	cmd.Flags().StringVarP(&longURL, "url", "u", "", "long URL to shorten (required)")
	cmd.Flags().StringVarP(&code, "code", "c", "", "custom short code")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

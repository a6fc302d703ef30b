package cmd

import (
	"github.com/spf13/cobra"

	"github.com/klask-search/klask/pkg/cliutil"
)

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every document from the index",
		Long: `Deletes all indexed documents and commits immediately. Registered
crawl targets are untouched; re-run their crawls to rebuild the index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				cliutil.NewPrinter().PrintWarning("Refusing to clear without --yes")
				return nil
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.index.Clear(); err != nil {
				return err
			}
			cliutil.NewPrinter().PrintSuccess("Index cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/klask-search/klask/pkg/cliutil"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index statistics and registered targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.index.Stats()
			if err != nil {
				return err
			}
			repos, err := app.store.List()
			if err != nil {
				return err
			}

			if asJSON {
				return cliutil.WriteJSON(os.Stdout, map[string]any{
					"total_documents": stats.TotalDocuments,
					"repositories":    len(repos),
				}, true)
			}

			printer := cliutil.NewPrinter()
			printer.PrintHeader(cliutil.IconInfo, "Index Status")
			printer.PrintKeyValue("documents", strconv.FormatUint(stats.TotalDocuments, 10))
			printer.PrintKeyValue("index dir", app.cfg.Index.Directory)
			printer.PrintKeyValue("crawl targets", strconv.Itoa(len(repos)))

			enabled := 0
			for _, r := range repos {
				if r.Enabled {
					enabled++
				}
			}
			printer.PrintKeyValue("enabled", strconv.Itoa(enabled))

			for _, r := range repos {
				if r.NextCrawlAt != nil {
					printer.PrintInfo(fmt.Sprintf("%s next crawl at %s",
						r.Name, r.NextCrawlAt.Format("2006-01-02 15:04:05")))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit status as JSON")
	return cmd
}

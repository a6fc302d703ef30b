package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klask-search/klask/pkg/cliutil"
	"github.com/klask-search/klask/pkg/model"
)

func newSearchCmd() *cobra.Command {
	var (
		project   string
		version   string
		extension string
		limit     int
		offset    int
		facets    bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index",
		Long: `Searches file contents, names, and paths. Space-separated terms are
ANDed; quote a phrase to match it verbatim; "*" matches every document.
Filters take comma-separated whitelists of values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.queries.Search(model.SearchQuery{
				Text:          args[0],
				Project:       project,
				Version:       version,
				Extension:     extension,
				Limit:         limit,
				Offset:        offset,
				IncludeFacets: facets,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return cliutil.WriteJSON(os.Stdout, result, true)
			}

			printer := cliutil.NewPrinter()
			printer.PrintHeader(cliutil.IconInfo, fmt.Sprintf("%d results for %q", result.Total, args[0]))

			for _, hit := range result.Hits {
				printer.PrintSubtitle(fmt.Sprintf("%s/%s @ %s  (score %.2f)",
					hit.Document.Project, hit.Document.FilePath, hit.Document.Version, hit.Score))
				snippet := strings.TrimSpace(hit.Snippet)
				if snippet != "" {
					fmt.Println("  " + strings.ReplaceAll(snippet, "\n", "\n  "))
				}
				printer.PrintDivider()
			}

			if result.Facets != nil {
				printFacets(printer, result.Facets)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "comma-separated project whitelist")
	cmd.Flags().StringVar(&version, "branch", "", "comma-separated branch whitelist")
	cmd.Flags().StringVar(&extension, "ext", "", "comma-separated extension whitelist")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "results to skip (pagination)")
	cmd.Flags().BoolVar(&facets, "facets", false, "include facet counts over the full result set")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw result as JSON")
	return cmd
}

func printFacets(printer *cliutil.Printer, facets *model.SearchFacets) {
	printer.PrintSubtitle("Facets")
	printFacetGroup(printer, "projects", facets.Projects)
	printFacetGroup(printer, "branches", facets.Versions)
	printFacetGroup(printer, "extensions", facets.Extensions)
}

func printFacetGroup(printer *cliutil.Printer, name string, values []model.FacetValue) {
	if len(values) == 0 {
		return
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%s (%d)", v.Value, v.Count))
	}
	printer.PrintKeyValue(name, strings.Join(parts, ", "))
}

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/klask-search/klask/pkg/cliutil"
	"github.com/klask-search/klask/pkg/wizard"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repo",
		Short:   "Manage registered crawl targets",
		Aliases: []string{"repos"},
	}
	cmd.AddCommand(newRepoAddCmd())
	cmd.AddCommand(newRepoListCmd())
	cmd.AddCommand(newRepoRemoveCmd())
	return cmd
}

func newRepoAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Register a new crawl target interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			repo, err := wizard.NewRepoAddWizard().Run(cmd.Context())
			if err != nil {
				return err
			}

			// The token never touches the metadata file in plaintext when
			// an encryption key is configured.
			if repo.Token != "" && app.secrets != nil {
				encrypted, err := app.secrets.Encrypt(repo.Token)
				if err != nil {
					return err
				}
				repo.Token = encrypted
			}

			created, err := app.store.Create(*repo)
			if err != nil {
				return err
			}

			printer := cliutil.NewPrinter()
			printer.PrintSuccess(fmt.Sprintf("Registered %s (%s)", created.Name, created.ID))
			printer.PrintInfo("Run 'klaskd crawl " + created.Name + "' to index it now.")
			return nil
		},
	}
}

func newRepoListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered crawl targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			repos, err := app.store.List()
			if err != nil {
				return err
			}

			if asJSON {
				return cliutil.WriteJSON(os.Stdout, repos, true)
			}

			printer := cliutil.NewPrinter()
			printer.PrintHeader(cliutil.IconGear, fmt.Sprintf("%d crawl targets", len(repos)))
			for _, r := range repos {
				printer.PrintSubtitle(r.Name)
				printer.PrintKeyValue("id", r.ID.String())
				printer.PrintKeyValue("kind", string(r.Kind))
				printer.PrintKeyValue("url", r.URL)
				if r.Namespace != "" {
					printer.PrintKeyValue("namespace", r.Namespace)
				}
				if r.Branch != "" {
					printer.PrintKeyValue("branch", r.Branch)
				}
				printer.PrintKeyValue("enabled", cliutil.FormatBool(r.Enabled))
				if r.CronExpr != "" {
					printer.PrintKeyValue("cron", r.CronExpr)
				} else if r.FrequencyHours > 0 {
					printer.PrintKeyValue("frequency", strconv.Itoa(r.FrequencyHours)+"h")
				}
				if r.LastCrawled != nil {
					printer.PrintKeyValue("last crawled", r.LastCrawled.Format("2006-01-02 15:04:05"))
				}
				if r.NextCrawlAt != nil {
					printer.PrintKeyValue("next crawl", r.NextCrawlAt.Format("2006-01-02 15:04:05"))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the list as JSON")
	return cmd
}

func newRepoRemoveCmd() *cobra.Command {
	var keepDocuments bool

	cmd := &cobra.Command{
		Use:   "remove <name|id>",
		Short: "Unregister a crawl target and delete its indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			repo, err := app.findRepo(args[0])
			if err != nil {
				return err
			}

			if !keepDocuments {
				// Documents are grouped by the parent aggregate name, the
				// namespace for group sources.
				name := repo.Name
				if repo.IsGroup && repo.Namespace != "" {
					name = repo.Namespace
				}
				if err := app.index.DeleteByRepository(name); err != nil {
					return err
				}
				if err := app.index.Commit(); err != nil {
					return err
				}
			}

			if err := app.store.Delete(repo.ID); err != nil {
				return err
			}

			cliutil.NewPrinter().PrintSuccess("Removed " + repo.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepDocuments, "keep-documents", false, "leave indexed documents in place")
	return cmd
}

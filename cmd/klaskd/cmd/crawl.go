package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/klask-search/klask/pkg/model"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <name|id>",
		Short: "Crawl one registered repository now",
		Long: `Runs a full crawl of the named repository immediately, outside its
schedule, showing live progress. Ctrl-C cancels the crawl cooperatively:
the current file finishes, and files indexed from the branch in progress
are not committed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			// A cancelled crawl releases the index without committing its
			// buffered upserts.
			cancelled := false
			defer func() {
				if cancelled {
					app.index.Close()
					return
				}
				app.Close()
			}()

			repo, err := app.findRepo(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			done := make(chan error, 1)
			go func() {
				_, err := app.crawler.Crawl(ctx, repo)
				done <- err
			}()

			spinner, _ := pterm.DefaultSpinner.Start("Crawling " + repo.Name + "...")
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()

			var crawlErr error
			ctxDone := ctx.Done()
		loop:
			for {
				select {
				case <-ctxDone:
					// Cooperative cancel; the crawl goroutine observes it
					// between files and reports back through done.
					_ = app.tracker.Cancel(repo.ID)
					ctxDone = nil
				case crawlErr = <-done:
					break loop
				case <-ticker.C:
					if p, ok := app.tracker.Get(repo.ID); ok {
						spinner.UpdateText(fmt.Sprintf("%s: %s (%d/%d files, %d indexed)",
							repo.Name, p.Status, p.FilesProcessed, p.FilesTotal, p.FilesIndexed))
					}
				}
			}

			record, _ := app.tracker.Get(repo.ID)
			cancelled = record.Status == model.CrawlCancelled
			switch record.Status {
			case model.CrawlCompleted:
				spinner.Success(fmt.Sprintf("Crawled %s: %d files processed, %d indexed",
					repo.Name, record.FilesProcessed, record.FilesIndexed))
			case model.CrawlCancelled:
				spinner.Warning("Crawl of " + repo.Name + " cancelled")
			default:
				spinner.Fail(fmt.Sprintf("Crawl of %s failed: %s", repo.Name, record.ErrorMessage))
			}

			if crawlErr != nil {
				return crawlErr
			}

			stats, err := app.index.Stats()
			if err == nil {
				pterm.Info.Println("Index now holds " + strconv.FormatUint(stats.TotalDocuments, 10) + " documents")
			}
			return nil
		},
	}
	return cmd
}

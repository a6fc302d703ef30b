package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/providers/filesystem"
	"github.com/klask-search/klask/pkg/scheduler"
)

// progressTTL is how long terminal progress records are kept before the
// periodic cleanup drops them.
const progressTTL = time.Hour

func newServeCmd() *cobra.Command {
	var metricsAddr string
	var watchDebounce time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the crawl scheduler until interrupted",
		Long: `Loads every enabled repository, computes its next fire time from its
cron expression or frequency, and crawls each one as its schedule comes
due. Filesystem sources are additionally re-crawled when their tree
changes on disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
					app.logger.Info("metrics listener started", "addr", metricsAddr)
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						app.logger.Warn("metrics listener failed", "err", err)
					}
				}()
			}

			sched := scheduler.New(app.store, app.tracker, app.crawler, app.cfg.Scheduler.TickInterval)
			if err := sched.Load(ctx); err != nil {
				return err
			}

			startWatchers(ctx, app, watchDebounce)

			go cleanupLoop(ctx, app)

			app.logger.Info("scheduler started", "repos", sched.GetStatus().ScheduledRepositoriesCount)
			return sched.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to expose Prometheus metrics on (e.g. :9090); empty disables")
	cmd.Flags().DurationVar(&watchDebounce, "watch-debounce", 2*time.Second, "quiet period before a filesystem change triggers a re-crawl")
	return cmd
}

// startWatchers attaches a change watcher to every enabled filesystem
// source, re-crawling it when the tree settles after a change. The same
// overlap rule as the scheduler applies: a change arriving mid-crawl is
// dropped rather than queued.
func startWatchers(ctx context.Context, app *app, debounce time.Duration) {
	repos, err := app.store.List()
	if err != nil {
		app.logger.Warn("listing repositories for watch", "err", err)
		return
	}

	for _, repo := range repos {
		if !repo.Enabled || repo.Kind != model.SourceFileSystem {
			continue
		}
		repo := repo
		go func() {
			err := filesystem.Watch(ctx, repo.URL, repo.ID, debounce, func(id uuid.UUID) {
				current, err := app.store.Get(id)
				if err != nil {
					return
				}
				if _, err := app.crawler.Crawl(ctx, current); err != nil {
					app.logger.Warn("watch-triggered crawl failed", "repo", current.Name, "err", err)
				}
			})
			if err != nil && ctx.Err() == nil {
				app.logger.Warn("filesystem watcher stopped", "repo", repo.Name, "err", err)
			}
		}()
	}
}

// cleanupLoop periodically drops old terminal progress records.
func cleanupLoop(ctx context.Context, app *app) {
	ticker := time.NewTicker(progressTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.tracker.CleanupOlderThan(progressTTL)
		}
	}
}

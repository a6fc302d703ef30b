// Package cmd implements the CLI commands for klaskd.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/klask-search/klask/internal/config"
	"github.com/klask-search/klask/pkg/cliutil"
	"github.com/klask-search/klask/pkg/crawler"
	"github.com/klask-search/klask/pkg/metadatastore"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/progress"
	"github.com/klask-search/klask/pkg/providers/filesystem"
	"github.com/klask-search/klask/pkg/providers/github"
	"github.com/klask-search/klask/pkg/providers/gitlab"
	"github.com/klask-search/klask/pkg/providers/gitsource"
	"github.com/klask-search/klask/pkg/query"
	"github.com/klask-search/klask/pkg/searchindex"
	"github.com/klask-search/klask/pkg/secrets"
)

var (
	// appVersion is set by main.go
	appVersion string

	// Global flags
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "klaskd",
	Short: "Code search crawler and query daemon",
	Long: `klaskd crawls Git, GitLab, GitHub, and filesystem sources into a
full-text index and answers keyword queries with faceted filtering.
` + cliutil.QuickStartHelp(`  # Register a crawl target, crawl it once, then search
  klaskd repo add
  klaskd crawl <name>
  klaskd search "quick fox" --ext go

  Run 'klaskd serve' to crawl continuously on each target's schedule.`),
	Version: appVersion,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute(version string) {
	appVersion = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to klask.yaml (default: search standard locations)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCrawlCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newRepoCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// app bundles the long-lived components every subcommand wires the same
// way: index, metadata store, progress tracker, crawler, and query engine.
// Initialization is explicit and happens once per invocation, before any
// scheduler or watcher starts.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	index   *searchindex.Engine
	store   metadatastore.Store
	tracker *progress.Tracker
	crawler *crawler.Crawler
	queries *query.Engine
	secrets *secrets.Service
}

func newApp() (*app, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	index, err := searchindex.Open(cfg.Index.Directory)
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Dir(cfg.Index.Directory)
	store := metadatastore.NewFileStore(filepath.Join(dataDir, "repositories.json"))
	tracker := progress.New()

	var svc *secrets.Service
	if cfg.Auth.EncryptionKey != "" {
		svc, err = secrets.New(cfg.Auth.EncryptionKey)
		if err != nil {
			index.Close()
			return nil, err
		}
	}

	var decryptor crawler.Decryptor
	if svc != nil {
		decryptor = svc
	}
	c := crawler.New(index, tracker, store, decryptor, logger)

	git := gitsource.New(filepath.Join(dataDir, "repos-cache"))
	c.Register(model.SourceGit, git)
	c.Register(model.SourceFileSystem, filesystem.New())

	gl, err := gitlab.New(cfg.GitLab.Token, cfg.GitLab.BaseURL, git)
	if err != nil {
		index.Close()
		return nil, err
	}
	c.Register(model.SourceGitLab, gl)
	c.Register(model.SourceGitHub, github.New(cfg.GitHub.Token, git))

	return &app{
		cfg:     cfg,
		logger:  logger,
		index:   index,
		store:   store,
		tracker: tracker,
		crawler: c,
		queries: query.New(index),
		secrets: svc,
	}, nil
}

// Close commits any pending mutations and releases the index, the
// explicit shutdown counterpart of newApp.
func (a *app) Close() error {
	if err := a.index.Commit(); err != nil {
		a.index.Close()
		return err
	}
	return a.index.Close()
}

// findRepo resolves a repository by name or id string.
func (a *app) findRepo(nameOrID string) (model.RepositoryDescriptor, error) {
	repos, err := a.store.List()
	if err != nil {
		return model.RepositoryDescriptor{}, err
	}
	for _, r := range repos {
		if r.Name == nameOrID || r.ID.String() == nameOrID {
			return r, nil
		}
	}
	return model.RepositoryDescriptor{}, fmt.Errorf("repository %q not registered", nameOrID)
}

// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package wizard provides an interactive setup wizard for registering crawl
// targets, using charmbracelet/huh for form-based input.
package wizard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/klask-search/klask/pkg/cliutil"
	"github.com/klask-search/klask/pkg/model"
)

// RepoAddWizard walks an operator through registering a new crawl target.
type RepoAddWizard struct {
	printer *cliutil.Printer
	repo    model.RepositoryDescriptor
}

// NewRepoAddWizard creates a new repo-add wizard.
func NewRepoAddWizard() *RepoAddWizard {
	return &RepoAddWizard{
		printer: cliutil.NewPrinter(),
		repo: model.RepositoryDescriptor{
			Enabled: true,
		},
	}
}

// Run executes the wizard and returns the descriptor to register.
func (w *RepoAddWizard) Run(_ context.Context) (*model.RepositoryDescriptor, error) {
	w.printer.PrintHeader(cliutil.IconRocket, "Add Crawl Target")
	w.printer.PrintInfo("This wizard registers a new repository or group for crawling and indexing.")
	fmt.Println()

	if err := w.runSourceStep(); err != nil {
		return nil, err
	}
	if err := w.runAuthStep(); err != nil {
		return nil, err
	}
	if w.repo.Kind == model.SourceGitLab || w.repo.Kind == model.SourceGitHub {
		if err := w.runGroupStep(); err != nil {
			return nil, err
		}
	}
	if err := w.runScheduleStep(); err != nil {
		return nil, err
	}

	w.printSummary()
	return &w.repo, nil
}

func (w *RepoAddWizard) runSourceStep() error {
	var kind, name, url, branch string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source Kind").
				Description("Where does this content come from").
				Options(
					huh.NewOption("Plain Git repository", string(model.SourceGit)),
					huh.NewOption("GitLab group", string(model.SourceGitLab)),
					huh.NewOption("GitHub organization", string(model.SourceGitHub)),
					huh.NewOption("Local filesystem directory", string(model.SourceFileSystem)),
				).
				Value(&kind),

			huh.NewInput().
				Title("Name").
				Description("A short name to identify this target").
				Placeholder("e.g., backend-services").
				Validate(ValidateNotEmpty).
				Value(&name),

			huh.NewInput().
				Title("URL or Path").
				Description("Clone URL (git/gitlab/github) or absolute directory path (filesystem)").
				Placeholder("https://gitlab.example.com/group/repo.git").
				Validate(ValidateURLRequired).
				Value(&url),

			huh.NewInput().
				Title("Branch").
				Description("Leave empty to crawl every branch").
				Placeholder("main").
				Value(&branch),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return err
	}

	w.repo.Kind = model.SourceKind(kind)
	w.repo.Name = name
	w.repo.URL = url
	w.repo.Branch = branch
	return nil
}

func (w *RepoAddWizard) runAuthStep() error {
	if w.repo.Kind == model.SourceFileSystem {
		return nil
	}

	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API / Clone Token").
				Description("Use ${ENV_VAR} for environment variables (recommended)").
				Placeholder("${GITLAB_TOKEN} or paste token").
				EchoMode(huh.EchoModePassword).
				Validate(ValidateToken).
				Value(&token),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return err
	}
	w.repo.Token = token
	return nil
}

func (w *RepoAddWizard) runGroupStep() error {
	var namespace string
	var isGroup bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Namespace").
				Description("GitLab group path or GitHub organization").
				Validate(ValidateNamespace).
				Value(&namespace),

			huh.NewConfirm().
				Title("Crawl All Projects In Namespace").
				Description("If no, only the single repository at URL is crawled").
				Affirmative("Yes").
				Negative("No").
				Value(&isGroup),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return err
	}
	w.repo.Namespace = namespace
	w.repo.IsGroup = isGroup
	return nil
}

func (w *RepoAddWizard) runScheduleStep() error {
	var cronExpr, frequencyHours, maxCrawlMinutes string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cron Expression").
				Description("6-field cron (sec min hour dom month dow); leave empty to use a frequency instead").
				Placeholder("0 0 */6 * * *").
				Validate(ValidateCronExpr).
				Value(&cronExpr),

			huh.NewInput().
				Title("Frequency (hours)").
				Description("Re-crawl every N hours; ignored if a cron expression is set").
				Placeholder("24").
				Validate(ValidateFrequencyHours).
				Value(&frequencyHours),

			huh.NewInput().
				Title("Max Crawl Duration (minutes)").
				Description("Abort and mark failed if a single crawl runs longer than this").
				Placeholder("60").
				Value(&maxCrawlMinutes),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return err
	}

	w.repo.CronExpr = cronExpr
	w.repo.FrequencyHours = ParseIntOrDefault(frequencyHours, 0)
	w.repo.MaxCrawlMinutes = ParseIntOrDefault(maxCrawlMinutes, 60)
	return nil
}

func (w *RepoAddWizard) printSummary() {
	keys := []string{
		"Name", "Kind", "URL", "Branch", "Token", "Namespace",
		"Cron", "Frequency (h)", "Max Duration (m)",
	}
	items := map[string]string{
		"Name":              w.repo.Name,
		"Kind":              string(w.repo.Kind),
		"URL":               w.repo.URL,
		"Branch":            w.repo.Branch,
		"Token":             cliutil.SanitizeTokenForDisplay(w.repo.Token),
		"Namespace":         w.repo.Namespace,
		"Cron":              w.repo.CronExpr,
		"Frequency (h)":     strconv.Itoa(w.repo.FrequencyHours),
		"Max Duration (m)":  strconv.Itoa(w.repo.MaxCrawlMinutes),
	}
	w.printer.PrintSummary("Crawl Target Summary", keys, items)
}

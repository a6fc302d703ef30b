// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package wizard provides an interactive setup wizard for registering crawl
// targets with klaskd.
//
// It uses charmbracelet/huh for form-based interactive input, guiding an
// operator through source kind, URL/path, authentication, group scoping,
// and scheduling in a handful of steps.
//
// Example usage:
//
//	w := wizard.NewRepoAddWizard()
//	repo, err := w.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	// repo is a model.RepositoryDescriptor ready to register
package wizard

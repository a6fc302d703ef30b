// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package wizard

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/klask-search/klask/pkg/model"
)

// ValidateKind validates that the value is a supported source kind.
func ValidateKind(v string) error {
	if v == "" {
		return errors.New("source kind is required")
	}
	switch model.SourceKind(v) {
	case model.SourceGit, model.SourceGitLab, model.SourceGitHub, model.SourceFileSystem:
		return nil
	default:
		return errors.New("must be git, gitlab, github, or filesystem")
	}
}

// ValidateURL validates a URL or filesystem path string.
// Returns nil for empty values (optional field).
func ValidateURL(v string) error {
	if v == "" {
		return nil
	}
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return nil
	}
	if strings.HasPrefix(v, "/") || strings.HasPrefix(v, "~") {
		return nil
	}

	u, err := url.Parse(v)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "git" && u.Scheme != "ssh" {
		return errors.New("URL must start with http://, https://, ssh://, or git://")
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// ValidateURLRequired validates a non-empty URL.
func ValidateURLRequired(v string) error {
	if v == "" {
		return errors.New("URL is required")
	}
	return ValidateURL(v)
}

// ValidateNotEmpty validates that a string is not empty.
func ValidateNotEmpty(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("this field is required")
	}
	return nil
}

// ValidateNamespace validates a GitLab group path / GitHub org name.
func ValidateNamespace(v string) error {
	if v == "" {
		return nil
	}
	for _, r := range v {
		if !(r >= 'a' && r <= 'z') &&
			!(r >= 'A' && r <= 'Z') &&
			!(r >= '0' && r <= '9') &&
			r != '-' && r != '_' && r != '/' {
			return errors.New("invalid character in namespace")
		}
	}
	return nil
}

// ValidateToken validates a provider token (plain value or env var reference).
func ValidateToken(v string) error {
	if v == "" {
		return nil
	}
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		varName := v[2 : len(v)-1]
		if varName == "" {
			return errors.New("empty environment variable name")
		}
		for i, r := range varName {
			if i == 0 && r >= '0' && r <= '9' {
				return errors.New("environment variable name cannot start with a number")
			}
			if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
				return errors.New("invalid environment variable name")
			}
		}
		return nil
	}
	if len(v) < 10 {
		return errors.New("token seems too short")
	}
	return nil
}

// ValidateCronExpr validates a six-field cron expression, or accepts empty
// (no cron schedule).
func ValidateCronExpr(v string) error {
	if v == "" {
		return nil
	}
	fields := strings.Fields(v)
	if len(fields) != 6 {
		return errors.New("cron expression must have 6 fields: sec min hour dom month dow")
	}
	return nil
}

// ValidateFrequencyHours validates a frequency-in-hours string, or accepts empty.
func ValidateFrequencyHours(v string) error {
	if v == "" {
		return nil
	}
	hours, err := strconv.Atoi(v)
	if err != nil {
		return errors.New("must be a number")
	}
	if hours < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// ParseIntOrDefault parses a string to int, returning defaultVal for empty/invalid.
func ParseIntOrDefault(v string, defaultVal int) int {
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cliutil

import "strings"

// QuickStartHelp wraps example command lines with a styled "Quick Start"
// header, for use in cobra long-help text.
func QuickStartHelp(content string) string {
	return " " + TitleStyle.Render("Quick Start:") + "\n" + content
}

// StripIndent trims surrounding whitespace from a multiline string.
func StripIndent(s string) string {
	return strings.TrimSpace(s)
}

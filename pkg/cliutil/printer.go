// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cliutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Icons for console output.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconRocket  = "🚀"
	IconGear    = "⚙"
	IconInfo    = "ℹ"
	IconArrow   = "→"
)

// Styles for console output.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	KeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// Printer handles styled console output for the crawl and search
// subcommands.
type Printer struct {
	Out io.Writer
}

// NewPrinter creates a new Printer with stdout as default.
func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout}
}

// PrintHeader prints a header with an icon.
func (p *Printer) PrintHeader(icon, title string) {
	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, TitleStyle.Render(icon+" "+title))
	fmt.Fprintln(p.Out)
}

// PrintSubtitle prints a section subtitle.
func (p *Printer) PrintSubtitle(title string) {
	fmt.Fprintln(p.Out, SubtitleStyle.Render(title))
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Out, SuccessStyle.Render(IconSuccess+" "+msg))
}

// PrintError prints an error message.
func (p *Printer) PrintError(msg string) {
	fmt.Fprintln(p.Out, ErrorStyle.Render(IconError+" "+msg))
}

// PrintWarning prints a warning message.
func (p *Printer) PrintWarning(msg string) {
	fmt.Fprintln(p.Out, WarningStyle.Render(IconWarning+" "+msg))
}

// PrintInfo prints an info message.
func (p *Printer) PrintInfo(msg string) {
	fmt.Fprintln(p.Out, DimStyle.Render(IconInfo+" "+msg))
}

// PrintKeyValue prints a key-value pair.
func (p *Printer) PrintKeyValue(key, value string) {
	fmt.Fprintf(p.Out, "  %s %s\n",
		KeyStyle.Render(key+":"),
		ValueStyle.Render(value))
}

// PrintSummary prints a crawl or search summary, in the given key order.
func (p *Printer) PrintSummary(title string, keys []string, items map[string]string) {
	fmt.Fprintln(p.Out)
	p.PrintSubtitle(title)
	fmt.Fprintln(p.Out)

	for _, key := range keys {
		if value, ok := items[key]; ok && value != "" {
			p.PrintKeyValue(key, value)
		}
	}
}

// PrintDivider prints a horizontal divider.
func (p *Printer) PrintDivider() {
	fmt.Fprintln(p.Out, DimStyle.Render(strings.Repeat("─", 50)))
}

// SanitizeTokenForDisplay masks a provider token for display.
func SanitizeTokenForDisplay(token string) string {
	if token == "" {
		return "(not set)"
	}
	if strings.HasPrefix(token, "${") && strings.HasSuffix(token, "}") {
		return token
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// FormatBool formats a boolean for display.
func FormatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

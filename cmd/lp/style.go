package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/zulandar/launchpad/internal/models"
)

var (
	colorPrimary = lipgloss.Color("#7c3aed")
	colorMuted   = lipgloss.Color("#9ca3af")
	colorSuccess = lipgloss.Color("#16a34a")
	colorWarning = lipgloss.Color("#d97706")
	colorError   = lipgloss.Color("#dc2626")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	spinnerStyle = lipgloss.NewStyle().Foreground(colorPrimary)
)

// statusStyle colors a workflow status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case models.TaskCompleted, models.DocPublished, models.LaunchLaunched, models.DocApproved:
		return successStyle
	case models.TaskRejected, models.SourceArchived:
		return errorStyle
	case models.TaskInProgress, models.DocReview, models.LaunchReady:
		return warningStyle
	}
	return mutedStyle
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

// optInt renders an optional score, "-" when unset.
func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warningStyle.Render("!")+" "+fmt.Sprintf(format, args...))
}

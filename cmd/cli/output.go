package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

var (
	okLabel    = color.New(color.FgGreen).SprintFunc()
	warnLabel  = color.New(color.FgYellow).SprintFunc()
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	headLabel  = color.New(color.FgCyan, color.Bold).SprintFunc()
	dimLabel   = color.New(color.Faint).SprintFunc()
)

const defaultBarWidth = 30

// isTerminal reports whether stdout is an interactive terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// barWidth sizes progress bars to the terminal, leaving room for labels
func barWidth() int {
	if !isTerminal() {
		return defaultBarWidth
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 60 {
		return defaultBarWidth
	}
	return width - 40
}

// renderBar draws a fixed-width ASCII bar for percent in [0, 100]
func renderBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + fmt.Sprintf("] %5.1f%%", percent)
}

func sessionState(snap domain.SessionSnapshot) string {
	switch {
	case snap.IsDownloading && snap.StopRequested:
		return warnLabel("stopping")
	case snap.IsDownloading:
		return okLabel("downloading")
	case snap.Complete:
		return dimLabel(fmt.Sprintf("done (%s)", snap.CompletionReason))
	default:
		return dimLabel("idle")
	}
}

// printSnapshot renders a session the way `status` shows it
func printSnapshot(w io.Writer, snap domain.SessionSnapshot, width int) {
	if snap.BatchID == "" {
		fmt.Fprintf(w, "%s %s\n", headLabel("Session:"), sessionState(snap))
		return
	}

	fmt.Fprintf(w, "%s %s  %s\n", headLabel("Batch:"), truncate(snap.BatchID, 8), sessionState(snap))
	fmt.Fprintf(w, "%s %s\n", headLabel("Destination:"), snap.DestDir)
	fmt.Fprintf(w, "%s %s %d/%d video(s)\n", headLabel("Overall:"), renderBar(snap.OverallPercent, width), snap.CompletedCount, snap.TotalRequested)

	if c := snap.Current; c != nil {
		fmt.Fprintf(w, "%s %s\n", headLabel("Current:"), c.Filename)
		fmt.Fprintf(w, "         %s %s / %s · %s · ETA %s\n", renderBar(c.Percent, width), c.Downloaded, c.Total, c.Speed, c.ETA)
	}

	if len(snap.Log) > 0 {
		fmt.Fprintln(w, headLabel("Status:"))
		for _, line := range snap.Log {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if !snap.IsDownloading && len(snap.DownloadedFiles) > 0 {
		fmt.Fprintf(w, "%s\n", headLabel(fmt.Sprintf("Downloaded files (%d):", len(snap.DownloadedFiles))))
		for _, f := range snap.DownloadedFiles {
			fmt.Fprintf(w, "  %s %s\n", okLabel("✓"), filepath.Base(f))
		}
	}
}

// printValidation lists valid and invalid URLs with the summary line
func printValidation(w io.Writer, v domain.URLValidation) {
	for _, u := range v.Valid {
		fmt.Fprintf(w, "%s %s\n", okLabel("✓"), u)
	}
	for _, u := range v.Invalid {
		fmt.Fprintf(w, "%s %s\n", errorLabel("✗"), u)
	}
	fmt.Fprintln(w, v.Summary())
}

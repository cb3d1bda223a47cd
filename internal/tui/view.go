package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎬 vidgrab"))
	b.WriteString("\n\n")

	urlBox, destBox := boxStyle, boxStyle
	if m.focus == focusURLs {
		urlBox = focusedBoxStyle
	} else {
		destBox = focusedBoxStyle
	}
	b.WriteString(labelStyle.Render("Video URLs"))
	b.WriteString("\n")
	b.WriteString(urlBox.Render(m.urls.View()))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Destination"))
	b.WriteString("\n")
	b.WriteString(destBox.Render(m.dest.View()))
	b.WriteString("\n")
	b.WriteString(m.previewView())
	b.WriteString("\n")

	if m.notice != "" {
		style := okStyle
		if m.noticeErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.progressView())

	if len(m.snapshot.Log) > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Status"))
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(m.log.View()))
		b.WriteString("\n")
	}

	if files := m.snapshot.DownloadedFiles; len(files) > 0 && !m.snapshot.IsDownloading {
		b.WriteString(labelStyle.Render(fmt.Sprintf("Downloaded files (%d)", len(files))))
		b.WriteString("\n")
		for _, f := range files {
			b.WriteString(mutedStyle.Render("  • " + filepath.Base(f)))
			b.WriteString("\n")
		}
	}

	if m.showDebug {
		b.WriteString(labelStyle.Render("Debug"))
		b.WriteString("\n")
		entries := m.session.DebugEntries(DebugLines)
		if len(entries) == 0 {
			entries = []string{"(empty)"}
		}
		b.WriteString(mutedStyle.Render(strings.Join(entries, "\n")))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("ctrl+s start • ctrl+x stop • ctrl+v paste • ctrl+b bundle • tab focus • ctrl+d debug • ctrl+c quit"))
	return b.String()
}

func (m Model) previewView() string {
	p := m.preview
	if !p.CanSubmit {
		reason := p.DisabledReason
		if p.Summary != "" && len(p.Valid)+len(p.Invalid) > 0 {
			reason = p.Summary + " · " + reason
		}
		return warnStyle.Render(reason)
	}

	line := okStyle.Render(p.Summary)
	if p.Notice != "" {
		line += "  " + warnStyle.Render(p.Notice)
	}
	return line
}

func (m Model) progressView() string {
	s := m.snapshot
	if s.TotalRequested == 0 {
		return mutedStyle.Render("Idle") + "\n"
	}

	var state string
	switch {
	case s.IsDownloading && s.StopRequested:
		state = warnStyle.Render("stopping…")
	case s.IsDownloading:
		state = okStyle.Render("downloading")
	default:
		state = mutedStyle.Render(fmt.Sprintf("done (%s)", s.CompletionReason))
	}

	lines := []string{
		labelStyle.Render("Overall") + "  " + fmt.Sprintf("%d/%d video(s)", s.CompletedCount, s.TotalRequested) + "  " + state,
		m.overall.ViewAs(s.OverallPercent / 100),
	}

	if c := s.Current; c != nil {
		lines = append(lines,
			"",
			lipgloss.NewStyle().Bold(true).Render(c.Filename),
			m.current.ViewAs(c.Percent/100),
			mutedStyle.Render(fmt.Sprintf("%s / %s · %s · ETA %s", c.Downloaded, c.Total, c.Speed, c.ETA)),
		)
	}
	return strings.Join(lines, "\n") + "\n"
}

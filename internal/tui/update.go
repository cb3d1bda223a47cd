package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		result := m.session.Tick()
		if result.Completed {
			m.setNotice(fmt.Sprintf("Batch finished (%s)", result.Reason), false)
		}
		m.refresh()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		width := msg.Width - 6
		if width > InputWidth {
			width = InputWidth
		}
		if width > 20 {
			m.urls.SetWidth(width)
			m.dest.Width = width
			m.overall.Width = width
			m.current.Width = width
			m.log.Width = width
		}
		return m, nil

	case progress.FrameMsg:
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.snapshot.IsDownloading {
				m.session.RequestStop()
			}
			return m, tea.Quit

		case "ctrl+s":
			m.submit()
			return m, nil

		case "ctrl+x":
			if m.session.RequestStop() {
				m.setNotice("Stop requested: the current video finishes first", false)
			} else {
				m.setNotice("Nothing to stop", true)
			}
			m.refresh()
			return m, nil

		case "ctrl+v":
			m.paste()
			return m, nil

		case "ctrl+b":
			m.bundle()
			return m, nil

		case "ctrl+d":
			m.showDebug = !m.showDebug
			return m, nil

		case "ctrl+l":
			m.session.ClearDebug()
			return m, nil

		case "tab", "shift+tab":
			if m.focus == focusURLs {
				m.focus = focusDest
				m.urls.Blur()
				cmds = append(cmds, m.dest.Focus())
			} else {
				m.focus = focusURLs
				m.dest.Blur()
				cmds = append(cmds, m.urls.Focus())
			}
			return m, tea.Batch(cmds...)

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	if m.focus == focusURLs {
		before := m.urls.Value()
		m.urls, cmd = m.urls.Update(msg)
		if m.urls.Value() != before {
			m.preview = m.session.Preview(m.urls.Value())
		}
	} else {
		m.dest, cmd = m.dest.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) submit() {
	req, err := m.session.Submit(m.ctx, m.urls.Value(), m.dest.Value())
	if err != nil {
		m.setNotice(err.Error(), true)
		m.logger.Warn("Submission rejected", zap.Error(err))
		m.refresh()
		return
	}

	m.setNotice(fmt.Sprintf("Downloading %d video(s) to %s", len(req.URLs), req.DestDir), false)
	m.logger.Info("Batch submitted",
		zap.String("batch_id", req.ID),
		zap.Int("urls", len(req.URLs)),
		zap.String("dest_dir", req.DestDir))
	m.refresh()
}

// paste appends the clipboard on its own line
func (m *Model) paste() {
	text, err := m.readClipboard()
	if err != nil {
		m.setNotice(fmt.Sprintf("Clipboard unavailable: %v", err), true)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if m.focus == focusDest {
		m.dest.SetValue(text)
		return
	}

	current := m.urls.Value()
	if current != "" && !strings.HasSuffix(current, "\n") {
		current += "\n"
	}
	m.urls.SetValue(current + text)
	m.preview = m.session.Preview(m.urls.Value())
}

// bundle writes every downloaded file into a zip inside the destination
func (m *Model) bundle() {
	snap := m.session.Snapshot()
	if snap.IsDownloading {
		m.setNotice("Wait for the batch to finish before bundling", true)
		return
	}
	paths := m.bundler.Existing(snap.BundlePaths())
	if len(paths) == 0 {
		m.setNotice("No downloaded files to bundle", true)
		return
	}

	target := filepath.Join(snap.DestDir, m.options.BundleName)
	f, err := os.Create(target)
	if err != nil {
		m.setNotice(fmt.Sprintf("Failed to create bundle: %v", err), true)
		return
	}

	added, err := m.bundler.Write(f, paths)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		m.logger.Error("Failed to write bundle", zap.String("path", target), zap.Error(err))
		m.setNotice(fmt.Sprintf("Failed to write bundle: %v", err), true)
		return
	}

	m.logger.Info("Bundle written", zap.String("path", target), zap.Int("files", added))
	m.setNotice(fmt.Sprintf("📦 %d file(s) written to %s", added, target), false)
}

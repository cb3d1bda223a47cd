package tui

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/domain"
)

// Session is the part of the presentation loop the terminal drives. Update
// runs on a single goroutine, which is what the loop requires.
type Session interface {
	Preview(input string) domain.SubmissionPreview
	Submit(ctx context.Context, input, destDir string) (*domain.DownloadRequest, error)
	RequestStop() bool
	Tick() app.TickResult
	Snapshot() domain.SessionSnapshot
	DebugEntries(n int) []string
	ClearDebug()
}

// Bundler archives downloaded files
type Bundler interface {
	Existing(paths []string) []string
	Write(w io.Writer, paths []string) (int, error)
}

// Options configures the terminal front-end
type Options struct {
	DefaultDir   string
	BundleName   string
	TickInterval time.Duration
	IdleInterval time.Duration
	Logger       *zap.Logger
}

type focusArea int

const (
	focusURLs focusArea = iota
	focusDest
)

type tickMsg time.Time

// Model is the bubbletea model of the download session
type Model struct {
	ctx     context.Context
	session Session
	bundler Bundler
	options Options
	logger  *zap.Logger

	urls    textarea.Model
	dest    textinput.Model
	focus   focusArea
	overall progress.Model
	current progress.Model
	log     viewport.Model

	preview   domain.SubmissionPreview
	snapshot  domain.SessionSnapshot
	notice    string
	noticeErr bool
	showDebug bool
	width     int

	readClipboard func() (string, error)
}

// New creates the model. ctx bounds the workers started from the terminal.
func New(ctx context.Context, session Session, bundler Bundler, options Options) Model {
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTick
	}
	if options.IdleInterval <= 0 {
		options.IdleInterval = DefaultIdleTick
	}
	if options.BundleName == "" {
		options.BundleName = "video_downloads.zip"
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	urls := textarea.New()
	urls.Placeholder = "https://www.youtube.com/watch?v=... (one per line or comma separated)"
	urls.ShowLineNumbers = false
	urls.CharLimit = 0
	urls.SetWidth(InputWidth)
	urls.SetHeight(URLInputHeight)
	urls.Focus()

	dest := textinput.New()
	dest.Placeholder = "destination folder"
	dest.Prompt = ""
	dest.Width = InputWidth
	dest.SetValue(options.DefaultDir)

	m := Model{
		ctx:           ctx,
		session:       session,
		bundler:       bundler,
		options:       options,
		logger:        options.Logger,
		urls:          urls,
		dest:          dest,
		overall:       progress.New(progress.WithGradient(ProgressStart, ProgressEnd)),
		current:       progress.New(progress.WithGradient(ProgressStart, ProgressEnd)),
		log:           viewport.New(InputWidth, LogHeight),
		readClipboard: clipboard.ReadAll,
	}
	m.overall.Width = InputWidth
	m.current.Width = InputWidth
	m.refresh()
	return m
}

// Init starts the cursor blink and the tick that drives the loop
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.tick())
}

func (m Model) tick() tea.Cmd {
	interval := m.options.IdleInterval
	if m.snapshot.IsDownloading {
		interval = m.options.TickInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh pulls a new snapshot and preview and updates the log viewport
func (m *Model) refresh() {
	m.snapshot = m.session.Snapshot()
	m.preview = m.session.Preview(m.urls.Value())

	atBottom := m.log.AtBottom()
	m.log.SetContent(strings.Join(m.snapshot.Log, "\n"))
	if atBottom || m.snapshot.IsDownloading {
		m.log.GotoBottom()
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

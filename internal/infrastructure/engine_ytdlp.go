package infrastructure

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// progressPrefix tags the JSON progress lines requested via --progress-template
const progressPrefix = "[vidgrab-progress] "

var (
	// Title.f137.mp4, Title.f251-1.webm
	formatPartRe  = regexp.MustCompile(`^(.*)\.f[0-9]+(?:-[0-9]+)?\.([A-Za-z0-9]+)$`)
	destinationRe = regexp.MustCompile(`^\[download\] Destination: (.+)$`)
	mergerRe      = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
	alreadyDoneRe = regexp.MustCompile(`^\[download\] (.+) has already been downloaded`)
	versionLineRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}`)
)

// YTDLPEngine runs the yt-dlp executable once per URL
type YTDLPEngine struct {
	binary  string
	logger  *zap.Logger
	mu      sync.Mutex
	version string
}

// NewYTDLPEngine creates an engine for the given binary name or path
func NewYTDLPEngine(binary string, logger *zap.Logger) *YTDLPEngine {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLPEngine{binary: binary, logger: logger}
}

// Name returns the engine name including its version once known
func (e *YTDLPEngine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.version != "" {
		return "yt-dlp " + e.version
	}
	return "yt-dlp"
}

// Prepare checks that the binary exists and runs
func (e *YTDLPEngine) Prepare(ctx context.Context) error {
	path, err := exec.LookPath(e.binary)
	if err != nil {
		return fmt.Errorf("yt-dlp not found (%s): %w", e.binary, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return fmt.Errorf("failed to run %s --version: %w", path, err)
	}

	version := strings.TrimSpace(string(out))
	if !versionLineRe.MatchString(version) {
		e.logger.Warn("Unexpected yt-dlp version output", zap.String("output", version))
	}

	e.mu.Lock()
	e.version = version
	e.mu.Unlock()

	e.logger.Debug("yt-dlp ready", zap.String("path", path), zap.String("version", version))
	return nil
}

// Download runs yt-dlp for one URL and blocks until it exits
func (e *YTDLPEngine) Download(ctx context.Context, url string, opts domain.EngineOptions, hooks domain.EngineHooks) error {
	args := BuildYTDLPArgs(url, opts)
	e.logger.Info("Running yt-dlp", zap.String("command", FormatCommandLine(e.binary, args...)))

	cmd := exec.CommandContext(ctx, e.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	parser := newOutputParser(opts.MergeOutputFormat, hooks)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdout, parser.handleStdout)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, parser.handleStderr)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("yt-dlp cancelled: %w", ctx.Err())
		}
		if last := parser.lastError(); last != "" {
			return fmt.Errorf("yt-dlp failed: %s: %w", last, err)
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}

	parser.flush()
	return nil
}

// BuildYTDLPArgs builds the command line for one URL
func BuildYTDLPArgs(url string, opts domain.EngineOptions) []string {
	args := []string{
		"--newline",
		"--no-colors",
		"--progress",
		"--progress-template", "download:" + progressPrefix + "%(progress)j",
		"--continue",
		"--no-overwrites",
	}

	if opts.OutputDir != "" {
		args = append(args, "-P", opts.OutputDir)
	}
	if opts.OutputTemplate != "" {
		args = append(args, "-o", opts.OutputTemplate)
	}
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.MergeOutputFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeOutputFormat)
	}
	if opts.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", opts.FFmpegLocation)
	}
	if opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(opts.SocketTimeout.Seconds())))
	}
	if opts.Retries >= 0 {
		args = append(args, "--retries", strconv.Itoa(opts.Retries))
	}
	if opts.IgnoreErrors {
		args = append(args, "--ignore-errors")
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	} else {
		args = append(args, "--yes-playlist")
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}

	return append(args, "--", url)
}

func scanLines(r io.Reader, handle func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r "); line != "" {
			handle(line)
		}
	}
}

// rawProgress mirrors yt-dlp's progress dict; numbers may be null or floats
type rawProgress struct {
	Status             string   `json:"status"`
	Filename           string   `json:"filename"`
	DownloadedBytes    *float64 `json:"downloaded_bytes"`
	TotalBytes         *float64 `json:"total_bytes"`
	TotalBytesEstimate *float64 `json:"total_bytes_estimate"`
	Speed              *float64 `json:"speed"`
	ETA                *float64 `json:"eta"`
}

func num(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// outputParser turns yt-dlp output into progress notifications and log lines.
// Separately downloaded formats are reported under the merged file's name and
// only the merged file is reported as finished.
type outputParser struct {
	mu         sync.Mutex
	mergeExt   string
	hooks      domain.EngineHooks
	prepared   map[string]bool
	pending    map[string]bool // merged paths whose parts are done
	finished   map[string]bool
	lastErrMsg string
}

func newOutputParser(mergeExt string, hooks domain.EngineHooks) *outputParser {
	return &outputParser{
		mergeExt: mergeExt,
		hooks:    hooks,
		prepared: make(map[string]bool),
		pending:  make(map[string]bool),
		finished: make(map[string]bool),
	}
}

// canonical maps a format part path to the merged output path
func (p *outputParser) canonical(path string) (string, bool) {
	m := formatPartRe.FindStringSubmatch(path)
	if m == nil {
		return path, false
	}
	ext := m[2]
	if p.mergeExt != "" {
		ext = p.mergeExt
	}
	return m[1] + "." + ext, true
}

func (p *outputParser) handleStdout(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.HasPrefix(line, progressPrefix) {
		p.handleProgress(strings.TrimPrefix(line, progressPrefix))
		return
	}
	if m := destinationRe.FindStringSubmatch(line); m != nil {
		p.prepare(m[1])
		p.info(line)
		return
	}
	if m := mergerRe.FindStringSubmatch(line); m != nil {
		p.info(line)
		p.finish(m[1])
		return
	}
	if m := alreadyDoneRe.FindStringSubmatch(line); m != nil {
		p.info(line)
		name, _ := p.canonical(m[1])
		p.finish(name)
		return
	}
	p.classify(line, p.info)
}

func (p *outputParser) handleStderr(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.classify(line, p.debug)
}

// classify routes prefixed lines by severity; fallback handles the rest
func (p *outputParser) classify(line string, fallback func(string)) {
	switch {
	case strings.HasPrefix(line, "ERROR: "):
		msg := strings.TrimPrefix(line, "ERROR: ")
		p.lastErrMsg = msg
		if p.hooks.Logger != nil {
			p.hooks.Logger.Error(msg)
		}
	case strings.HasPrefix(line, "WARNING: "):
		if p.hooks.Logger != nil {
			p.hooks.Logger.Warning(strings.TrimPrefix(line, "WARNING: "))
		}
	case strings.HasPrefix(line, "[debug] "):
		p.debug(strings.TrimPrefix(line, "[debug] "))
	default:
		fallback(line)
	}
}

func (p *outputParser) handleProgress(payload string) {
	var raw rawProgress
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		p.debug(fmt.Sprintf("unparseable progress line: %v", err))
		return
	}

	name, isPart := p.canonical(raw.Filename)
	progress := domain.EngineProgress{
		Status:             domain.EngineStatus(raw.Status),
		Filename:           name,
		DownloadedBytes:    int64(num(raw.DownloadedBytes)),
		TotalBytes:         int64(num(raw.TotalBytes)),
		TotalBytesEstimate: int64(num(raw.TotalBytesEstimate)),
		Speed:              num(raw.Speed),
		ETA:                int(num(raw.ETA)),
	}

	if progress.Status == domain.EngineStatusFinished {
		if isPart {
			// the part is done but the video is not until the merge
			p.pending[name] = true
			progress.Status = domain.EngineStatusDownloading
			if progress.TotalBytes == 0 {
				progress.TotalBytes = progress.DownloadedBytes
			}
			progress.DownloadedBytes = progress.Total()
			progress.ETA = 0
			p.emit(progress)
			return
		}
		p.finish(name)
		return
	}

	p.emit(progress)
}

func (p *outputParser) prepare(path string) {
	name, _ := p.canonical(path)
	if p.prepared[name] {
		return
	}
	p.prepared[name] = true
	p.emit(domain.EngineProgress{Status: domain.EngineStatusPreparing, Filename: name})
}

func (p *outputParser) finish(path string) {
	if p.finished[path] {
		return
	}
	p.finished[path] = true
	delete(p.pending, path)
	p.emit(domain.EngineProgress{Status: domain.EngineStatusFinished, Filename: path})
}

// flush reports parts that were never merged once yt-dlp exits cleanly
func (p *outputParser) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name := range p.pending {
		p.finish(name)
	}
}

func (p *outputParser) lastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErrMsg
}

func (p *outputParser) emit(progress domain.EngineProgress) {
	if p.hooks.Progress != nil {
		p.hooks.Progress(progress)
	}
}

func (p *outputParser) info(msg string) {
	if p.hooks.Logger != nil {
		p.hooks.Logger.Info(msg)
	}
}

func (p *outputParser) debug(msg string) {
	if p.hooks.Logger != nil {
		p.hooks.Logger.Debug(msg)
	}
}

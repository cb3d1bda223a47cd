package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SupportedURLPatterns are the case-insensitive substrings a URL must contain
// to be accepted for download.
var SupportedURLPatterns = []string{
	"youtube.com/watch",
	"youtu.be/",
	"youtube.com/playlist",
	"youtube.com/channel",
	"youtube.com/c/",
	"youtube.com/@",
	"m.youtube.com",
}

// DownloadRequest is an immutable batch handed to the download worker
type DownloadRequest struct {
	ID        string    `json:"id"`
	URLs      []string  `json:"urls"`
	DestDir   string    `json:"dest_dir"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDownloadRequest creates a batch for the given validated URLs
func NewDownloadRequest(urls []string, destDir string) *DownloadRequest {
	copied := make([]string, len(urls))
	copy(copied, urls)
	return &DownloadRequest{
		ID:        uuid.New().String(),
		URLs:      copied,
		DestDir:   destDir,
		CreatedAt: time.Now(),
	}
}

// URLValidation is the outcome of splitting and checking user input
type URLValidation struct {
	Valid   []string `json:"valid"`
	Invalid []string `json:"invalid"`
}

// Summary renders the "N valid, M invalid" line shown to the user
func (v URLValidation) Summary() string {
	return fmt.Sprintf("%d valid, %d invalid", len(v.Valid), len(v.Invalid))
}

// HasInput reports whether the user entered anything at all
func (v URLValidation) HasInput() bool {
	return len(v.Valid)+len(v.Invalid) > 0
}

// SplitURLInput splits free text on commas and newlines, trimming blanks
func SplitURLInput(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	urls := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			urls = append(urls, f)
		}
	}
	return urls
}

// IsSupportedURL checks a URL against the supported patterns plus any extras
func IsSupportedURL(url string, extraPatterns ...string) bool {
	lower := strings.ToLower(url)
	for _, p := range SupportedURLPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, p := range extraPatterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// ValidateURLInput splits the input and partitions it into valid and invalid URLs,
// preserving input order in both lists
func ValidateURLInput(input string, extraPatterns ...string) URLValidation {
	result := URLValidation{Valid: []string{}, Invalid: []string{}}
	for _, u := range SplitURLInput(input) {
		if IsSupportedURL(u, extraPatterns...) {
			result.Valid = append(result.Valid, u)
		} else {
			result.Invalid = append(result.Invalid, u)
		}
	}
	return result
}

// SubmissionPreview describes whether the current input can be submitted
type SubmissionPreview struct {
	Valid          []string `json:"valid"`
	Invalid        []string `json:"invalid"`
	Summary        string   `json:"summary"`
	CanSubmit      bool     `json:"can_submit"`
	DisabledReason string   `json:"disabled_reason,omitempty"`
	Notice         string   `json:"notice,omitempty"`
}

// NewSubmissionPreview builds the preview for the given validation and session activity
func NewSubmissionPreview(v URLValidation, downloading bool) SubmissionPreview {
	p := SubmissionPreview{Valid: v.Valid, Invalid: v.Invalid, Summary: v.Summary()}

	switch {
	case downloading:
		p.DisabledReason = "Download in progress: wait for the current batch to complete"
	case !v.HasInput():
		p.DisabledReason = "Enter video URLs to enable download"
	case len(v.Valid) == 0:
		p.DisabledReason = "Download disabled: no valid video URLs found"
	default:
		p.CanSubmit = true
	}

	if len(v.Invalid) > 0 {
		p.Notice = fmt.Sprintf("%d invalid URL(s) will be skipped", len(v.Invalid))
	}
	return p
}

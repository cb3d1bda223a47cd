package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vfaronov/httpheader"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// SessionService is the web front-end's view of the download session
type SessionService interface {
	Submit(ctx context.Context, input, destDir string) (*domain.DownloadRequest, error)
	Preview(ctx context.Context, input string) (domain.SubmissionPreview, error)
	RequestStop(ctx context.Context) (bool, error)
	FullSnapshot(ctx context.Context) (domain.SessionSnapshot, error)
	Snapshot() domain.SessionSnapshot
	DebugEntries(n int) []string
	ClearDebug()
	Subscribe() (<-chan domain.SessionSnapshot, func())
	IsRunning() bool
}

// Bundler archives downloaded files
type Bundler interface {
	Existing(paths []string) []string
	Write(w io.Writer, paths []string) (int, error)
}

// SessionHandler handles session-related HTTP requests
type SessionHandler struct {
	session    SessionService
	bundler    Bundler
	defaultDir string
	bundleName string
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(session SessionService, bundler Bundler, defaultDir, bundleName string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		session:    session,
		bundler:    bundler,
		defaultDir: defaultDir,
		bundleName: bundleName,
		logger:     logger,
	}
}

// SubmitRequest is the body of POST /api/v1/session. URLs is the raw
// comma/newline separated input; URLList is appended to it.
type SubmitRequest struct {
	URLs    string   `json:"urls"`
	URLList []string `json:"url_list,omitempty"`
	DestDir string   `json:"dest_dir,omitempty"`
}

func (r SubmitRequest) input() string {
	parts := append([]string{r.URLs}, r.URLList...)
	return strings.Join(parts, "\n")
}

// GetSession handles GET /api/v1/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	if c.Query("full") != "true" {
		c.JSON(http.StatusOK, h.session.Snapshot())
		return
	}

	snap, err := h.session.FullSnapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Submit handles POST /api/v1/session
func (h *SessionHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest := req.DestDir
	if strings.TrimSpace(dest) == "" {
		dest = h.defaultDir
	}

	batch, err := h.session.Submit(c.Request.Context(), req.input(), dest)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Batch accepted",
		zap.String("batch_id", batch.ID),
		zap.Int("urls", len(batch.URLs)),
		zap.String("request_id", c.GetString("request_id")))
	c.JSON(http.StatusAccepted, batch)
}

// Preview handles POST /api/v1/session/preview
func (h *SessionHandler) Preview(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preview, err := h.session.Preview(c.Request.Context(), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Stop handles POST /api/v1/session/stop
func (h *SessionHandler) Stop(c *gin.Context) {
	requested, err := h.session.RequestStop(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !requested {
		c.JSON(http.StatusConflict, gin.H{"error": "no running batch to stop"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stop requested"})
}

// GetDebug handles GET /api/v1/session/debug
func (h *SessionHandler) GetDebug(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		limit = 0
	}
	entries := h.session.DebugEntries(limit)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// ClearDebug handles DELETE /api/v1/session/debug
func (h *SessionHandler) ClearDebug(c *gin.Context) {
	h.session.ClearDebug()
	c.JSON(http.StatusOK, gin.H{"message": "debug log cleared"})
}

// Bundle handles GET /api/v1/session/bundle
func (h *SessionHandler) Bundle(c *gin.Context) {
	snap := h.session.Snapshot()
	if snap.IsDownloading {
		c.JSON(http.StatusConflict, gin.H{"error": "batch still downloading"})
		return
	}
	paths := h.bundler.Existing(snap.BundlePaths())
	if len(paths) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no downloaded files"})
		return
	}

	httpheader.SetContentDisposition(c.Writer.Header(), "attachment", h.bundleName, nil)
	c.Header("Content-Type", "application/zip")
	c.Status(http.StatusOK)

	added, err := h.bundler.Write(c.Writer, paths)
	if err != nil {
		// headers are gone; all we can do is log and cut the stream
		h.logger.Error("Failed to write bundle", zap.String("batch_id", snap.BatchID), zap.Error(err))
		c.Abort()
		return
	}
	h.logger.Info("Bundle sent", zap.String("batch_id", snap.BatchID), zap.Int("files", added))
}

func (h *SessionHandler) respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, domain.ErrBatchInProgress), errors.Is(err, domain.ErrWorkerStillRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Session request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

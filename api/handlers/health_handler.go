package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by /health
const Version = "1.0.0"

// LoopStatus reports whether the session loop is running
type LoopStatus interface {
	IsRunning() bool
}

// HealthHandler handles health check requests
type HealthHandler struct {
	session LoopStatus
	engine  string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(session LoopStatus, engine string) *HealthHandler {
	return &HealthHandler{
		session: session,
		engine:  engine,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Engine  string `json:"engine"`
	Session struct {
		Running bool `json:"running"`
	} `json:"session"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
		Engine:  h.engine,
	}
	response.Session.Running = h.session.IsRunning()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.session.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "session loop not running",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

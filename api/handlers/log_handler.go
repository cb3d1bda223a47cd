package handlers

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vfaronov/httpheader"

	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// LogHandler handles log-related requests
type LogHandler struct {
	logReader *logger.LogReader
}

// NewLogHandler creates a new log handler
func NewLogHandler(logsDir string) *LogHandler {
	return &LogHandler{
		logReader: logger.NewLogReader(logsDir),
	}
}

// category resolves the :category param or writes a 400
func category(c *gin.Context) (logger.LogCategory, bool) {
	cat, ok := logger.ValidCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
	}
	return cat, ok
}

// queryDate parses ?date=YYYY-MM-DD, defaulting to today, or writes a 400
func queryDate(c *gin.Context) (time.Time, bool) {
	dateStr := c.Query("date")
	if dateStr == "" {
		return time.Now(), true
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return limit
}

// GetLogs handles GET /api/v1/logs/:category
func (h *LogHandler) GetLogs(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	date, ok := queryDate(c)
	if !ok {
		return
	}

	entries, err := h.logReader.ReadLogs(cat, date, queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": cat,
		"date":     date.Format("2006-01-02"),
		"count":    len(entries),
		"entries":  entries,
	})
}

// SearchLogs handles GET /api/v1/logs/:category/search
func (h *LogHandler) SearchLogs(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	date, ok := queryDate(c)
	if !ok {
		return
	}

	entries, err := h.logReader.SearchLogs(cat, date, query, queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": cat,
		"query":    query,
		"count":    len(entries),
		"entries":  entries,
	})
}

// GetCategories handles GET /api/v1/logs/categories
func (h *LogHandler) GetCategories(c *gin.Context) {
	categories := make([]gin.H, 0, len(logger.AllCategories))
	for _, cat := range logger.AllCategories {
		dates, err := h.logReader.AvailableDates(cat)
		if err != nil {
			dates = []string{}
		}
		categories = append(categories, gin.H{
			"name":  cat,
			"dates": dates,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// ExportLogs handles GET /api/v1/logs/:category/export
func (h *LogHandler) ExportLogs(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	date, ok := queryDate(c)
	if !ok {
		return
	}

	logPath := h.logReader.GetLogPath(cat, date)
	if _, err := os.Stat(logPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no log for that date"})
		return
	}

	filename := string(cat) + "-" + date.Format("20060102") + ".log"
	c.Header("Content-Description", "File Transfer")
	httpheader.SetContentDisposition(c.Writer.Header(), "attachment", filename, nil)
	c.Header("Content-Type", "application/octet-stream")

	c.File(logPath)
}

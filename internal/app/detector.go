package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// CompletionDetector decides when the worker is done. Signals are checked in
// priority order: explicit Complete event, marker file, inactivity timeout.
// The timeout is best effort; the worker heartbeat keeps it quiet while alive.
type CompletionDetector struct {
	marker domain.CompletionMarker
	grace  time.Duration
	logger *zap.Logger
}

// NewCompletionDetector creates a detector; marker may be nil
func NewCompletionDetector(marker domain.CompletionMarker, grace time.Duration, logger *zap.Logger) *CompletionDetector {
	return &CompletionDetector{marker: marker, grace: grace, logger: logger}
}

// Detect returns the completion reason if the batch in state has finished.
// It never fires for an idle session.
func (d *CompletionDetector) Detect(state *domain.SessionState, explicit bool, now time.Time) (domain.CompletionReason, bool) {
	if !state.IsDownloading {
		return "", false
	}

	if explicit {
		return domain.CompletedByEvent, true
	}

	if d.marker != nil {
		found, err := d.marker.Consume(state.BatchID)
		if err != nil {
			d.logger.Warn("Failed to check completion marker", zap.Error(err))
		}
		if found {
			return domain.CompletedByMarker, true
		}
	}

	if d.grace > 0 && now.Sub(state.LastEventTime) > d.grace {
		return domain.CompletedByTimeout, true
	}

	return "", false
}

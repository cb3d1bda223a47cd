package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// ProgressAggregator folds drained events into the session state
type ProgressAggregator struct {
	stepPercent int
	logger      *zap.Logger
}

// NewProgressAggregator creates an aggregator that logs progress every stepPercent points
func NewProgressAggregator(stepPercent int, logger *zap.Logger) *ProgressAggregator {
	if stepPercent < 1 {
		stepPercent = 5
	}
	return &ProgressAggregator{stepPercent: stepPercent, logger: logger}
}

// Apply folds one event into state and reports whether it was the batch's Complete event.
// Events from another batch are ignored.
func (a *ProgressAggregator) Apply(state *domain.SessionState, event domain.ProgressEvent, now time.Time) bool {
	if event.BatchID != "" && event.BatchID != state.BatchID {
		a.logger.Debug("Dropping event from previous batch",
			zap.String("event_batch", event.BatchID),
			zap.String("current_batch", state.BatchID),
			zap.String("kind", string(event.Kind)))
		return false
	}

	state.Touch(now)

	switch event.Kind {
	case domain.EventLog:
		state.AppendLog(now, event.Text)
	case domain.EventDebug:
		// debug text lives in the DebugLog; the event only proves the worker is alive
	case domain.EventProgress:
		if event.Progress == nil {
			a.logger.Warn("Progress event without payload", zap.String("batch_id", event.BatchID))
			return false
		}
		a.applyProgress(state, *event.Progress, now)
	case domain.EventComplete:
		return true
	default:
		a.logger.Warn("Unknown event kind", zap.String("kind", string(event.Kind)))
	}
	return false
}

func (a *ProgressAggregator) applyProgress(state *domain.SessionState, p domain.EngineProgress, now time.Time) {
	if p.Filename == "" {
		p.Filename = "unknown"
	}

	switch p.Status {
	case domain.EngineStatusDownloading:
		a.applyDownloading(state, p, now)

	case domain.EngineStatusFinished:
		f := state.File(p.Filename)
		if state.RecordFinished(p.Filename, now) {
			state.AppendLog(now, fmt.Sprintf("✅ Completed: %s", f.Filename))
		}
		if state.Current != nil && state.Current.Filename == f.Filename {
			state.Current.Status = domain.FileCompleted
			state.Current.Percent = 100
			state.Current.ETA = FormatETA(0)
		}

	case domain.EngineStatusPreparing:
		f := state.File(p.Filename)
		if f.Status != domain.FileCompleted {
			f.Status = domain.FilePreparing
		}
		f.UpdatedAt = now
		state.Current = &domain.CurrentDownload{
			Filename:   f.Filename,
			Downloaded: FormatBytes(0),
			Total:      FormatBytes(0),
			Speed:      FormatSpeed(0),
			ETA:        FormatETA(0),
			Status:     domain.FilePreparing,
		}
		state.AppendLog(now, fmt.Sprintf("🔄 Preparing: %s", f.Filename))

	case domain.EngineStatusError:
		f := state.File(p.Filename)
		f.Status = domain.FileErrored
		f.UpdatedAt = now
		if state.Current != nil && state.Current.Filename == f.Filename {
			state.Current = nil
		}
		state.AppendLog(now, fmt.Sprintf("❌ Failed: %s", f.Filename))

	default:
		a.logger.Debug("Ignoring engine status", zap.String("status", string(p.Status)))
	}
}

func (a *ProgressAggregator) applyDownloading(state *domain.SessionState, p domain.EngineProgress, now time.Time) {
	total := p.Total()
	percent := 0.0
	if total > 0 {
		percent = float64(p.DownloadedBytes) / float64(total) * 100
		if percent > 100 {
			percent = 100
		}
	}

	f := state.File(p.Filename)
	if f.Status != domain.FileCompleted {
		f.Status = domain.FileDownloading
	}
	f.DownloadedBytes = p.DownloadedBytes
	f.TotalBytes = total
	f.Speed = p.Speed
	f.Percent = percent
	f.UpdatedAt = now

	state.Current = &domain.CurrentDownload{
		Filename:   f.Filename,
		Percent:    percent,
		Downloaded: FormatBytes(float64(p.DownloadedBytes)),
		Total:      FormatBytes(float64(total)),
		Speed:      FormatSpeed(p.Speed),
		ETA:        FormatETA(p.ETA),
		Status:     domain.FileDownloading,
	}

	// one line per step crossed; the highest one carries the detail
	step := int(percent) / a.stepPercent * a.stepPercent
	for passed := f.LoggedStep + a.stepPercent; passed < step; passed += a.stepPercent {
		state.AppendLog(now, fmt.Sprintf("🔄 %s: passed %d%%", f.Filename, passed))
	}
	if step > f.LoggedStep {
		f.LoggedStep = step
		state.AppendLog(now, fmt.Sprintf("🔄 %s: %.1f%% (%s/%s) at %s",
			f.Filename, percent, state.Current.Downloaded, state.Current.Total, state.Current.Speed))
	}
}

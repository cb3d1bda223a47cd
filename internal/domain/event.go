package domain

import "time"

// EventKind tags a ProgressEvent
type EventKind string

const (
	EventLog      EventKind = "log"
	EventProgress EventKind = "progress"
	EventDebug    EventKind = "debug"
	EventComplete EventKind = "complete"
)

// ProgressEvent is the message sent from the download worker to the presentation loop
type ProgressEvent struct {
	Kind     EventKind       `json:"kind"`
	BatchID  string          `json:"batch_id"`
	Text     string          `json:"text,omitempty"`
	Progress *EngineProgress `json:"progress,omitempty"`
	At       time.Time       `json:"at"`
}

// NewLogEvent creates a user-visible log line event
func NewLogEvent(batchID, text string) ProgressEvent {
	return ProgressEvent{Kind: EventLog, BatchID: batchID, Text: text, At: time.Now()}
}

// NewDebugEvent creates a diagnostic event
func NewDebugEvent(batchID, text string) ProgressEvent {
	return ProgressEvent{Kind: EventDebug, BatchID: batchID, Text: text, At: time.Now()}
}

// NewProgressEvent wraps an engine progress notification
func NewProgressEvent(batchID string, p EngineProgress) ProgressEvent {
	return ProgressEvent{Kind: EventProgress, BatchID: batchID, Progress: &p, At: time.Now()}
}

// NewCompleteEvent marks the end of a batch
func NewCompleteEvent(batchID string) ProgressEvent {
	return ProgressEvent{Kind: EventComplete, BatchID: batchID, At: time.Now()}
}

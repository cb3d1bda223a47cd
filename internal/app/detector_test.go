package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

func TestDetector_Priority(t *testing.T) {
	marker := &fakeMarker{}
	d := NewCompletionDetector(marker, 3*time.Second, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")
	stale := state.LastEventTime.Add(10 * time.Second)

	marker.Write(state.BatchID)
	reason, done := d.Detect(state, true, stale)
	assert.True(t, done)
	assert.Equal(t, domain.CompletedByEvent, reason, "explicit event wins over marker and timeout")

	reason, done = d.Detect(state, false, stale)
	assert.True(t, done)
	assert.Equal(t, domain.CompletedByMarker, reason, "marker wins over timeout")

	reason, done = d.Detect(state, false, stale)
	assert.True(t, done)
	assert.Equal(t, domain.CompletedByTimeout, reason, "marker was consumed")
}

func TestDetector_GraceNotElapsed(t *testing.T) {
	d := NewCompletionDetector(&fakeMarker{}, 3*time.Second, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")

	_, done := d.Detect(state, false, state.LastEventTime.Add(3*time.Second))
	assert.False(t, done, "exactly the grace period is not yet inactive")
}

func TestDetector_IdleSessionNeverCompletes(t *testing.T) {
	marker := &fakeMarker{}
	marker.Write("stale")
	d := NewCompletionDetector(marker, time.Second, zap.NewNop())
	state := domain.NewSessionState()

	_, done := d.Detect(state, true, time.Now().Add(time.Hour))
	assert.False(t, done)

	found, _ := marker.Consume("stale")
	assert.True(t, found, "an idle session leaves the marker alone")
}

func TestDetector_IgnoresMarkerOfAnotherBatch(t *testing.T) {
	marker := &fakeMarker{}
	d := NewCompletionDetector(marker, 3*time.Second, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")

	marker.Write("other-batch-id")
	_, done := d.Detect(state, false, state.LastEventTime.Add(time.Second))
	assert.False(t, done, "a marker written by another batch does not complete this one")

	found, _ := marker.Consume("other-batch-id")
	assert.True(t, found, "the foreign marker is left for its owner")
}

package app

import (
	"sync"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// EventChannel is an unbounded FIFO between the download worker and the
// presentation loop. Push never blocks and Drain never waits.
type EventChannel struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

// NewEventChannel creates an empty channel
func NewEventChannel() *EventChannel {
	return &EventChannel{}
}

// Push appends an event
func (c *EventChannel) Push(event domain.ProgressEvent) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

// Drain removes and returns every queued event in push order
func (c *EventChannel) Drain() []domain.ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.events) == 0 {
		return nil
	}
	drained := c.events
	c.events = nil
	return drained
}

// Reset discards queued events and returns how many were dropped
func (c *EventChannel) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.events)
	c.events = nil
	return n
}

// Len returns the number of queued events
func (c *EventChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

package app

import (
	"fmt"
	"sync"
	"time"
)

// DebugLog keeps the most recent diagnostic lines. The worker appends while
// the presentation loop reads, so it carries its own lock.
type DebugLog struct {
	mu      sync.Mutex
	entries []string
	next    int
	full    bool
	now     func() time.Time
}

// NewDebugLog creates a ring buffer holding at most size entries
func NewDebugLog(size int) *DebugLog {
	if size < 1 {
		size = 1
	}
	return &DebugLog{entries: make([]string, size), now: time.Now}
}

// Add records a timestamped entry, evicting the oldest when full
func (d *DebugLog) Add(format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] DEBUG: %s", d.now().Format("15:04:05.000"), fmt.Sprintf(format, args...))

	d.mu.Lock()
	d.entries[d.next] = line
	d.next = (d.next + 1) % len(d.entries)
	if d.next == 0 {
		d.full = true
	}
	d.mu.Unlock()
}

// Entries returns all retained entries, oldest first
func (d *DebugLog) Entries() []string {
	return d.Tail(0)
}

// Tail returns the last n entries (n <= 0 means all), oldest first
func (d *DebugLog) Tail(n int) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ordered []string
	if d.full {
		ordered = append(ordered, d.entries[d.next:]...)
	}
	ordered = append(ordered, d.entries[:d.next]...)

	if n > 0 && len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// Len returns the number of retained entries
func (d *DebugLog) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.full {
		return len(d.entries)
	}
	return d.next
}

// Clear drops every entry
func (d *DebugLog) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.entries {
		d.entries[i] = ""
	}
	d.next = 0
	d.full = false
}

package app

import "sync/atomic"

// CancelFlag is the cooperative stop request shared with the worker.
// The worker checks it before starting each URL.
type CancelFlag struct {
	set atomic.Bool
}

// Set requests a stop
func (f *CancelFlag) Set() { f.set.Store(true) }

// Clear withdraws the request
func (f *CancelFlag) Clear() { f.set.Store(false) }

// IsSet reports whether a stop was requested
func (f *CancelFlag) IsSet() bool { return f.set.Load() }

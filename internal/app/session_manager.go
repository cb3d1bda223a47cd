package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// SessionManager runs a PresentationLoop on its own goroutine for the web
// front-end. Requests are executed on that goroutine; readers get the last
// published snapshot.
type SessionManager struct {
	loop        *PresentationLoop
	config      *domain.RelayConfig
	multiLogger *logger.MultiLogger
	logger      *zap.Logger
	commands    chan func(ctx context.Context)
	snapshot    atomic.Pointer[domain.SessionSnapshot]
	subMu       sync.Mutex
	subscribers map[chan domain.SessionSnapshot]struct{}
	mu          sync.RWMutex
	running     bool
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// NewSessionManager creates a new session manager
func NewSessionManager(
	loop *PresentationLoop,
	config *domain.RelayConfig,
	multiLogger *logger.MultiLogger,
	logger *zap.Logger,
) *SessionManager {
	sm := &SessionManager{
		loop:        loop,
		config:      config,
		multiLogger: multiLogger,
		logger:      logger,
		commands:    make(chan func(ctx context.Context)),
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
		stopChan:    make(chan struct{}),
	}
	initial := loop.Snapshot()
	sm.snapshot.Store(&initial)
	return sm
}

// Start starts the loop goroutine; workers inherit ctx
func (sm *SessionManager) Start(ctx context.Context) error {
	sm.mu.Lock()
	if sm.running {
		sm.mu.Unlock()
		return fmt.Errorf("session manager already running")
	}
	sm.running = true
	sm.mu.Unlock()

	if sm.multiLogger != nil {
		sm.multiLogger.LogSessionEvent("session_manager_started")
	}

	sm.wg.Add(1)
	go sm.run(ctx)

	return nil
}

// Stop stops the loop goroutine
func (sm *SessionManager) Stop() error {
	sm.mu.Lock()
	if !sm.running {
		sm.mu.Unlock()
		return fmt.Errorf("session manager not running")
	}
	sm.running = false
	sm.mu.Unlock()

	if sm.multiLogger != nil {
		sm.multiLogger.LogSessionEvent("session_manager_stopped")
	}
	close(sm.stopChan)
	sm.wg.Wait()

	return nil
}

// IsRunning returns whether the loop goroutine is running
func (sm *SessionManager) IsRunning() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.running
}

func (sm *SessionManager) run(ctx context.Context) {
	defer sm.wg.Done()

	interval := sm.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sm.logger.Info("Session loop started", zap.Duration("tick_interval", interval))

	for {
		select {
		case <-ctx.Done():
			sm.logger.Info("Session loop stopped (context cancelled)")
			return
		case <-sm.stopChan:
			sm.logger.Info("Session loop stopped")
			return
		case cmd := <-sm.commands:
			cmd(ctx)
			sm.publish()
		case <-ticker.C:
			result := sm.loop.Tick()
			if result.Changed || sm.loop.IsDownloading() {
				sm.publish()
			}
			if next := sm.interval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// interval ticks fast while a batch is running and slowly when idle
func (sm *SessionManager) interval() time.Duration {
	if sm.loop.IsDownloading() || sm.loop.WorkerActive() {
		return sm.config.TickInterval
	}
	if sm.config.IdleTickInterval > 0 {
		return sm.config.IdleTickInterval
	}
	return sm.config.TickInterval
}

// do runs fn on the loop goroutine and waits for it
func (sm *SessionManager) do(ctx context.Context, fn func(loopCtx context.Context)) error {
	if !sm.IsRunning() {
		return fmt.Errorf("session manager not running")
	}

	done := make(chan struct{})
	cmd := func(loopCtx context.Context) {
		defer close(done)
		fn(loopCtx)
	}

	select {
	case sm.commands <- cmd:
	case <-sm.stopChan:
		return fmt.Errorf("session manager stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}

// Submit starts a batch for the valid URLs in input. ctx only bounds the
// hand-off; the worker runs under the context given to Start.
func (sm *SessionManager) Submit(ctx context.Context, input, destDir string) (*domain.DownloadRequest, error) {
	var req *domain.DownloadRequest
	var submitErr error
	err := sm.do(ctx, func(loopCtx context.Context) {
		req, submitErr = sm.loop.Submit(loopCtx, input, destDir)
	})
	if err != nil {
		return nil, err
	}
	return req, submitErr
}

// Preview validates input against the current session
func (sm *SessionManager) Preview(ctx context.Context, input string) (domain.SubmissionPreview, error) {
	var preview domain.SubmissionPreview
	err := sm.do(ctx, func(context.Context) {
		preview = sm.loop.Preview(input)
	})
	return preview, err
}

// RequestStop asks the running batch to stop before its next URL
func (sm *SessionManager) RequestStop(ctx context.Context) (bool, error) {
	var requested bool
	err := sm.do(ctx, func(context.Context) {
		requested = sm.loop.RequestStop()
	})
	return requested, err
}

// FullSnapshot returns the session including its whole log
func (sm *SessionManager) FullSnapshot(ctx context.Context) (domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	err := sm.do(ctx, func(context.Context) {
		snap = sm.loop.FullSnapshot()
	})
	return snap, err
}

// Snapshot returns the last published snapshot
func (sm *SessionManager) Snapshot() domain.SessionSnapshot {
	return *sm.snapshot.Load()
}

// DebugEntries returns the last n debug lines; the debug log is safe to read from any goroutine
func (sm *SessionManager) DebugEntries(n int) []string {
	return sm.loop.DebugEntries(n)
}

// ClearDebug empties the debug buffer
func (sm *SessionManager) ClearDebug() {
	sm.loop.ClearDebug()
}

// Subscribe returns a channel receiving every published snapshot. Slow
// subscribers only see the latest one. Call the returned func to unsubscribe.
func (sm *SessionManager) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 1)
	ch <- sm.Snapshot()

	sm.subMu.Lock()
	sm.subscribers[ch] = struct{}{}
	sm.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.subMu.Lock()
			delete(sm.subscribers, ch)
			sm.subMu.Unlock()
		})
	}
}

func (sm *SessionManager) publish() {
	snap := sm.loop.Snapshot()
	sm.snapshot.Store(&snap)

	sm.subMu.Lock()
	defer sm.subMu.Unlock()
	for ch := range sm.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

package app

import (
	"context"
	"sync"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// fakeEngine runs a scripted step per URL
type fakeEngine struct {
	mu         sync.Mutex
	prepareErr error
	steps      map[string]func(ctx context.Context, hooks domain.EngineHooks) error
	calls      []string
	options    []domain.EngineOptions
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{steps: make(map[string]func(context.Context, domain.EngineHooks) error)}
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Prepare(ctx context.Context) error { return e.prepareErr }

func (e *fakeEngine) Download(ctx context.Context, url string, opts domain.EngineOptions, hooks domain.EngineHooks) error {
	e.mu.Lock()
	e.calls = append(e.calls, url)
	e.options = append(e.options, opts)
	step := e.steps[url]
	e.mu.Unlock()

	if step == nil {
		return finishFile(hooks, "/v/"+lastSegment(url)+".mp4")
	}
	return step(ctx, hooks)
}

func (e *fakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.calls...)
}

func finishFile(hooks domain.EngineHooks, path string) error {
	hooks.Progress(domain.EngineProgress{Status: domain.EngineStatusPreparing, Filename: path})
	hooks.Progress(domain.EngineProgress{Status: domain.EngineStatusDownloading, Filename: path, DownloadedBytes: 50, TotalBytes: 100})
	hooks.Progress(domain.EngineProgress{Status: domain.EngineStatusFinished, Filename: path})
	return nil
}

func lastSegment(url string) string {
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '/' || url[i] == '=' {
			return url[i+1:]
		}
	}
	return url
}

// fakeMarker is an in-memory completion marker
type fakeMarker struct {
	mu       sync.Mutex
	present  bool
	writes   int
	clears   int
	lastNote string
	writeErr error
}

func (m *fakeMarker) Write(batchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.present = true
	m.lastNote = batchID
	return nil
}

func (m *fakeMarker) Consume(batchID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present || m.lastNote != batchID {
		return false, nil
	}
	m.present = false
	return true, nil
}

func (m *fakeMarker) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.present = false
	m.clears++
	return nil
}

func (m *fakeMarker) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// fakeInspector reports a fixed set of new files
type fakeInspector struct {
	files []domain.FileCheck
}

func (f *fakeInspector) Snapshot(dir string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (f *fakeInspector) NewFiles(dir string, before map[string]struct{}) ([]domain.FileCheck, error) {
	return f.files, nil
}

func (f *fakeInspector) Check(path string) domain.FileCheck {
	for _, c := range f.files {
		if c.Path == path {
			return c
		}
	}
	return domain.FileCheck{Path: path, Detail: "unknown"}
}

// fakeHistoryRepo keeps batches in memory
type fakeHistoryRepo struct {
	mu      sync.Mutex
	batches map[string]*domain.BatchRecord
	files   map[string][]domain.FileRecord
	updates int
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{
		batches: make(map[string]*domain.BatchRecord),
		files:   make(map[string][]domain.FileRecord),
	}
}

func (r *fakeHistoryRepo) CreateBatch(batch *domain.BatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *batch
	r.batches[batch.ID] = &copied
	return nil
}

func (r *fakeHistoryRepo) UpdateBatch(batch *domain.BatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *batch
	r.batches[batch.ID] = &copied
	r.updates++
	return nil
}

func (r *fakeHistoryRepo) AddFiles(batchID string, files []domain.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[batchID] = append(r.files[batchID], files...)
	return nil
}

func (r *fakeHistoryRepo) FindBatch(id string) (*domain.BatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeHistoryRepo) ListBatches(limit int) ([]*domain.BatchRecord, error) { return nil, nil }

func (r *fakeHistoryRepo) GetStats() (*domain.HistoryStats, error) {
	return &domain.HistoryStats{}, nil
}

func (r *fakeHistoryRepo) Close() error { return nil }

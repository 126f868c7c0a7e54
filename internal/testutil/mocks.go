// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// === Template Store Mock ===

// MockTemplateStore implements domain.TemplateStore for testing.
type MockTemplateStore struct {
	UpsertFn func(ctx context.Context, t *domain.Template) error
	GetFn    func(ctx context.Context, id string) (*domain.Template, error)
	ListFn   func(ctx context.Context, page domain.PageRequest) ([]*domain.Template, int64, error)
	DeleteFn func(ctx context.Context, id string) error

	mu        sync.Mutex
	Templates map[string]*domain.Template // collected upserts for assertions
}

// Upsert implements the interface method for testing.
func (m *MockTemplateStore) Upsert(ctx context.Context, t *domain.Template) error {
	if m.UpsertFn != nil {
		if err := m.UpsertFn(ctx, t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Templates == nil {
		m.Templates = make(map[string]*domain.Template)
	}
	m.Templates[t.ID] = t
	return nil
}

// Get implements the interface method for testing.
func (m *MockTemplateStore) Get(ctx context.Context, id string) (*domain.Template, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Templates[id]
	if !ok {
		return nil, domain.ErrNotFound("template %q not found", id)
	}
	return t, nil
}

// List implements the interface method for testing.
func (m *MockTemplateStore) List(ctx context.Context, page domain.PageRequest) ([]*domain.Template, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Template, 0, len(m.Templates))
	for _, t := range m.Templates {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

// Delete implements the interface method for testing.
func (m *MockTemplateStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Templates, id)
	return nil
}

var _ domain.TemplateStore = (*MockTemplateStore)(nil)

// === Run Store Mock ===

// MockRunStore implements domain.RunStore for testing.
type MockRunStore struct {
	InsertFn func(ctx context.Context, run *domain.GenerationRun) error
	GetFn    func(ctx context.Context, id string) (*domain.GenerationRun, error)
	ListFn   func(ctx context.Context, templateID string, page domain.PageRequest) ([]*domain.GenerationRun, int64, error)

	mu   sync.Mutex
	Runs []*domain.GenerationRun // collected inserts for assertions
}

// Insert implements the interface method for testing.
func (m *MockRunStore) Insert(ctx context.Context, run *domain.GenerationRun) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, run); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, run)
	return nil
}

// Get implements the interface method for testing.
func (m *MockRunStore) Get(ctx context.Context, id string) (*domain.GenerationRun, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, run := range m.Runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, domain.ErrNotFound("generation run %q not found", id)
}

// List implements the interface method for testing.
func (m *MockRunStore) List(ctx context.Context, templateID string, page domain.PageRequest) ([]*domain.GenerationRun, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, templateID, page)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.GenerationRun
	for _, run := range m.Runs {
		if templateID == "" || run.TemplateID == templateID {
			out = append(out, run)
		}
	}
	return out, int64(len(out)), nil
}

// LastRun returns the last collected run, or nil if none.
func (m *MockRunStore) LastRun() *domain.GenerationRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Runs) == 0 {
		return nil
	}
	return m.Runs[len(m.Runs)-1]
}

var _ domain.RunStore = (*MockRunStore)(nil)

// === Record Sink Mock ===

// MockRecordSink implements domain.RecordSink for testing.
type MockRecordSink struct {
	EnsureTableFn func(ctx context.Context, t *domain.Template) error
	InsertBatchFn func(ctx context.Context, t *domain.Template, records []domain.Record) error

	mu       sync.Mutex
	Ensured  []string        // template IDs passed to EnsureTable
	Inserted []domain.Record // all records passed to InsertBatch
}

// EnsureTable implements the interface method for testing.
func (m *MockRecordSink) EnsureTable(ctx context.Context, t *domain.Template) error {
	if m.EnsureTableFn != nil {
		if err := m.EnsureTableFn(ctx, t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ensured = append(m.Ensured, t.ID)
	return nil
}

// InsertBatch implements the interface method for testing.
func (m *MockRecordSink) InsertBatch(ctx context.Context, t *domain.Template, records []domain.Record) error {
	if m.InsertBatchFn != nil {
		if err := m.InsertBatchFn(ctx, t, records); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inserted = append(m.Inserted, records...)
	return nil
}

var _ domain.RecordSink = (*MockRecordSink)(nil)

// === API Key Store Mock ===

// MockAPIKeyStore implements domain.APIKeyStore for testing.
type MockAPIKeyStore struct {
	GetByHashFn func(ctx context.Context, keyHash string) (*domain.APIKey, error)
	InsertFn    func(ctx context.Context, key *domain.APIKey) error

	mu   sync.Mutex
	Keys map[string]*domain.APIKey // keyed by hash
}

// GetByHash implements the interface method for testing.
func (m *MockAPIKeyStore) GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	if m.GetByHashFn != nil {
		return m.GetByHashFn(ctx, keyHash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.Keys[keyHash]
	if !ok {
		return nil, domain.ErrNotFound("api key not found")
	}
	return key, nil
}

// Insert implements the interface method for testing.
func (m *MockAPIKeyStore) Insert(ctx context.Context, key *domain.APIKey) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Keys == nil {
		m.Keys = make(map[string]*domain.APIKey)
	}
	m.Keys[key.KeyHash] = key
	return nil
}

var _ domain.APIKeyStore = (*MockAPIKeyStore)(nil)

// === Object Store Mock ===

// MockObjectStore implements domain.ObjectStore for testing.
type MockObjectStore struct {
	PutFn        func(ctx context.Context, key string, body []byte, contentType string) (string, error)
	PresignGetFn func(ctx context.Context, key string, expiry time.Duration) (string, error)

	mu      sync.Mutex
	Objects map[string][]byte // collected puts for assertions
}

// Put implements the interface method for testing.
func (m *MockObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if m.PutFn != nil {
		return m.PutFn(ctx, key, body, contentType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Objects == nil {
		m.Objects = make(map[string][]byte)
	}
	m.Objects[key] = body
	return "mock://" + key, nil
}

// PresignGet implements the interface method for testing.
func (m *MockObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.PresignGetFn != nil {
		return m.PresignGetFn(ctx, key, expiry)
	}
	return "mock://" + key + "?signed=1", nil
}

var _ domain.ObjectStore = (*MockObjectStore)(nil)

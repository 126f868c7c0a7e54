package domain

import (
	"context"
	"time"
)

// TemplateStore persists templates. The in-process registry stays
// authoritative; the store exists for restart survival and listing.
type TemplateStore interface {
	Upsert(ctx context.Context, t *Template) error
	Get(ctx context.Context, id string) (*Template, error)
	List(ctx context.Context, page PageRequest) ([]*Template, int64, error)
	Delete(ctx context.Context, id string) error
}

// RunStore records generation runs for the runs API.
type RunStore interface {
	Insert(ctx context.Context, run *GenerationRun) error
	Get(ctx context.Context, id string) (*GenerationRun, error)
	List(ctx context.Context, templateID string, page PageRequest) ([]*GenerationRun, int64, error)
}

// APIKeyStore resolves hashed API keys for request authentication.
type APIKeyStore interface {
	GetByHash(ctx context.Context, keyHash string) (*APIKey, error)
	Insert(ctx context.Context, key *APIKey) error
}

// RecordSink lands accepted records in the analytics store.
// Implemented by sink.DuckDBSink.
type RecordSink interface {
	EnsureTable(ctx context.Context, t *Template) error
	InsertBatch(ctx context.Context, t *Template, records []Record) error
}

// ObjectStore delivers exported corpora to object storage.
// Implemented by export.S3Store and export.LocalStore.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (location string, err error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (url string, err error)
}

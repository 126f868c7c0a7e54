// Package export delivers generated batches as JSON Lines corpora to object
// storage, for backfill loads and model-training pipelines that consume files
// rather than the analytics sink.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

const contentTypeJSONL = "application/jsonl"

// defaultPresignExpiry leaves room for slow training-job fetches.
const defaultPresignExpiry = 1 * time.Hour

// Result describes one stored corpus.
type Result struct {
	Key         string `json:"key"`
	Location    string `json:"location"`
	Records     int    `json:"records"`
	SizeBytes   int    `json:"size_bytes"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Service encodes generation output and hands it to an ObjectStore.
type Service struct {
	store  domain.ObjectStore
	logger *slog.Logger
	expiry time.Duration
}

// NewService creates an export service writing through store.
func NewService(store domain.ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "export_service"),
		expiry: defaultPresignExpiry,
	}
}

// Export encodes the accepted records of result as JSON Lines and stores them
// under corpora/<template_id>/<result_id>.jsonl. The download URL is best
// effort: a store that cannot presign leaves it empty.
func (s *Service) Export(ctx context.Context, result *domain.GenerationResult) (*Result, error) {
	if result == nil || len(result.Data) == 0 {
		return nil, domain.ErrValidation("nothing to export: batch has no accepted records")
	}

	body, err := EncodeJSONL(result.Data)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("corpora/%s/%s.jsonl", result.TemplateID, result.ID)
	location, err := s.store.Put(ctx, key, body, contentTypeJSONL)
	if err != nil {
		return nil, fmt.Errorf("store corpus %s: %w", key, err)
	}

	out := &Result{
		Key:       key,
		Location:  location,
		Records:   len(result.Data),
		SizeBytes: len(body),
	}

	url, err := s.store.PresignGet(ctx, key, s.expiry)
	if err != nil {
		s.logger.Warn("presign corpus download failed", "key", key, "error", err)
	} else {
		out.DownloadURL = url
	}

	s.logger.Info("exported corpus",
		"template_id", result.TemplateID,
		"key", key,
		"records", out.Records,
		"bytes", out.SizeBytes)
	return out, nil
}

// EncodeJSONL renders records as JSON Lines: one JSON object per record,
// newline terminated.
func EncodeJSONL(records []domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

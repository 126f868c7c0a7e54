package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// LocalStore spools corpora under a local directory. It stands in for S3 in
// development and in deployments without object storage configured.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, domain.ErrValidation("export directory must not be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve export dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir %q: %w", abs, err)
	}
	return &LocalStore{dir: abs}, nil
}

// Put writes body to dir/key and returns the absolute file path.
func (s *LocalStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create corpus dir for %q: %w", key, err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write corpus %q: %w", key, err)
	}
	return path, nil
}

// PresignGet returns a file:// URL for an existing spooled corpus. Local files
// need no signing; the expiry is ignored.
func (s *LocalStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrNotFound("corpus %q not found", key)
		}
		return "", fmt.Errorf("stat corpus %q: %w", key, err)
	}
	return "file://" + path, nil
}

// resolve maps a slash-separated object key onto the spool directory and
// rejects keys that would escape it.
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", domain.ErrValidation("object key must not be empty")
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if path != s.dir && !strings.HasPrefix(path, s.dir+string(filepath.Separator)) {
		return "", domain.ErrValidation("object key %q escapes the export directory", key)
	}
	return path, nil
}

var _ domain.ObjectStore = (*LocalStore)(nil)

package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// NewFingerprint returns a random anonymous-actor fingerprint
func NewFingerprint() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// FingerprintStore persists one fingerprint in a local file so an anonymous
// caller keeps the same identity across runs
type FingerprintStore struct {
	path string

	mu     sync.Mutex
	cached string
}

func NewFingerprintStore(path string) *FingerprintStore {
	return &FingerprintStore{path: path}
}

// Get returns the stored fingerprint, creating it on first use
func (s *FingerprintStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if fp := strings.TrimSpace(string(data)); fp != "" {
			s.cached = fp
			return fp, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("failed to read fingerprint: %w", err)
	}

	fp := NewFingerprint()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create fingerprint dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(fp+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to write fingerprint: %w", err)
	}

	s.cached = fp
	return fp, nil
}

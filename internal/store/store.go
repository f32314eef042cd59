// Package store is a small JSON key/value store that stands in for browser
// local storage. Failures are logged and swallowed; callers treat a miss and
// a failure the same way.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/natefinch/atomic"
)

// Store persists JSON-encoded values under string keys.
type Store struct {
	mu     sync.Mutex
	path   string // empty for memory-only
	data   map[string]json.RawMessage
	logger *slog.Logger
}

// NewMemory returns a store that lives only as long as the process.
func NewMemory(logger *slog.Logger) *Store {
	return &Store{data: make(map[string]json.RawMessage), logger: logger}
}

// Open returns a store backed by the file at path, loading it if it exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{path: path, data: make(map[string]json.RawMessage), logger: logger}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return s, nil
}

// Save stores v under key. Encoding or write errors are logged only.
func (s *Store) Save(key string, v any) {
	encoded, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("store write error", "key", key, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = encoded
	if err := s.flush(); err != nil {
		s.logger.Error("store write error", "key", key, "error", err)
	}
}

// Load decodes the value under key into v. It returns false when the key is
// missing or the stored value does not decode.
func (s *Store) Load(key string, v any) bool {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Error("store read error", "key", key, "error", err)
		return false
	}
	return true
}

// flush writes the whole store; the file is replaced atomically so a crash
// never leaves a partial document. Caller holds s.mu.
func (s *Store) flush() error {
	if s.path == "" {
		return nil
	}
	doc, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.path, bytes.NewReader(doc))
}

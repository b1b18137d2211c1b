package cache

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Store is a file-backed key/value cache. The snapshot file is read once
// at construction and rewritten after every Put. Entries never expire.
// A missing or unreadable snapshot is not an error: the store starts
// empty and failed flushes are logged without failing the caller.
type Store[V any] struct {
	path   string
	logger zerolog.Logger

	mu   sync.Mutex
	data map[string]V
}

func New[V any](path string, logger zerolog.Logger) *Store[V] {
	s := &Store[V]{
		path:   path,
		logger: logger,
		data:   map[string]V{},
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Info().Str("path", path).Msg("cache snapshot missing, starting empty")
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.logger.Warn().Str("path", path).Err(err).Msg("cache snapshot unreadable, starting empty")
		s.data = map[string]V{}
	}
	return s
}

func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Put stores the entry and flushes the snapshot. A flush failure is
// logged and does not fail the in-flight request.
func (s *Store[V]) Put(key string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = v
	s.flushLocked()
}

func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *Store[V]) flushLocked() {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("cache snapshot marshal failed")
		return
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("cache snapshot write failed")
	}
}

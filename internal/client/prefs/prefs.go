// Package prefs is the client's durable key/value storage as consumers see
// it: reads report absence instead of failing, and writes report success as a
// bool. A broken or missing database degrades to "nothing persisted".
package prefs

import (
	"context"
	"strings"
	"sync"

	"github.com/loominal/loominal/internal/client/repositories/metadata"
	"github.com/loominal/loominal/internal/logging"
)

// KV is best-effort string storage. Implementations never panic and never
// return errors; failures are logged and reported as absence or false.
type KV interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) bool
	// SetAll writes every pair or none of them.
	SetAll(ctx context.Context, values map[string]string) bool
	Delete(ctx context.Context, key string) bool
	DeletePrefix(ctx context.Context, prefix string) bool
}

// Store adapts a metadata.Repository to KV.
type Store struct {
	repo metadata.Repository
	log  logging.Logger
}

func NewStore(repo metadata.Repository, log logging.Logger) *Store {
	return &Store{repo: repo, log: log.With("component", "prefs")}
}

func (s *Store) Get(ctx context.Context, key string) (value string, ok bool) {
	defer s.guard(ctx, "get", key, func() { value, ok = "", false })

	v, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "storage read failed", "key", key, "error", err)
		return "", false
	}
	if v == nil {
		return "", false
	}
	return string(v), true
}

func (s *Store) Set(ctx context.Context, key, value string) (ok bool) {
	defer s.guard(ctx, "set", key, func() { ok = false })

	if err := s.repo.Set(ctx, key, []byte(value)); err != nil {
		s.log.Warn(ctx, "storage write failed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) SetAll(ctx context.Context, values map[string]string) (ok bool) {
	defer s.guard(ctx, "set-all", "", func() { ok = false })

	raw := make(map[string][]byte, len(values))
	for k, v := range values {
		raw[k] = []byte(v)
	}
	if err := s.repo.SetMany(ctx, raw); err != nil {
		s.log.Warn(ctx, "storage write failed", "keys", len(values), "error", err)
		return false
	}
	return true
}

func (s *Store) Delete(ctx context.Context, key string) (ok bool) {
	defer s.guard(ctx, "delete", key, func() { ok = false })

	if err := s.repo.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "storage delete failed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) DeletePrefix(ctx context.Context, prefix string) (ok bool) {
	defer s.guard(ctx, "delete-prefix", prefix, func() { ok = false })

	if err := s.repo.DeletePrefix(ctx, prefix); err != nil {
		s.log.Warn(ctx, "storage delete failed", "prefix", prefix, "error", err)
		return false
	}
	return true
}

func (s *Store) guard(ctx context.Context, op, key string, fallback func()) {
	if p := recover(); p != nil {
		s.log.Error(ctx, "storage panic", "op", op, "key", key, "panic", p)
		fallback()
	}
}

// Memory is a process-local KV used when the database cannot be opened.
// Values do not survive a restart.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(_ context.Context, key, value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return true
}

func (m *Memory) SetAll(_ context.Context, values map[string]string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return true
}

func (m *Memory) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return true
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
		}
	}
	return true
}

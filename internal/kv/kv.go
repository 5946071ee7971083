package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
)

var ErrNotFound = errors.New("key not found")
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store is a durable key-value store. Put must not return until the value
// would survive a process restart.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendBadger   Backend = "badger"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

type Config struct {
	Backend Backend
	Dir     string // file and badger
	DSN     string // postgres and sqlite
}

func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(cfg.Dir)
	case BackendBadger:
		return OpenBadger(cfg.Dir)
	case BackendPostgres, BackendSQLite:
		return OpenSQL(ctx, cfg.Backend, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// ProfileKey scopes name to one browsing profile.
func ProfileKey(profile, name string) string {
	return path.Join("profiles", profile, name)
}

type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Close() error { return nil }

package cart

import (
	"encoding/json"
	"os"
	"sync"
)

// Storage is the persistence port for cart state. One entry exists per
// restaurant key; entries are overwritten wholesale on every mutation.
type Storage interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemoryStorage) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
}

// FileStorage keeps all entries in a single JSON file, written on every
// Set. Read errors degrade to an empty store rather than failing.
type FileStorage struct {
	mu      sync.Mutex
	path    string
	entries map[string]json.RawMessage
}

func NewFileStorage(path string) *FileStorage {
	fs := &FileStorage{path: path, entries: make(map[string]json.RawMessage)}
	if b, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(b, &fs.entries)
	}
	return fs
}

func (f *FileStorage) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok
}

func (f *FileStorage) Set(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = append(json.RawMessage(nil), value...)
	if b, err := json.Marshal(f.entries); err == nil {
		_ = os.WriteFile(f.path, b, 0o600)
	}
}

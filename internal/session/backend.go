package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Backend is durable string key/value storage for the persisted session.
type Backend interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Put writes all entries or none of them.
	Put(entries map[string]string) error
	// Delete removes the keys. Missing keys are not an error.
	Delete(keys ...string) error
}

// document is the on-disk layout of the file backend.
type document struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// FileBackend stores entries in a single JSON document on the local filesystem.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileBackend creates a file backend in baseDir.
// If baseDir is empty, uses ~/.stockroom/
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".stockroom")
	}

	// Create directory with 0700 permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("session file backend initialized")

	return &FileBackend{path: filepath.Join(baseDir, "session.json")}, nil
}

// Path returns the location of the session document.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Get(key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.load()
	if err != nil {
		return "", false, err
	}

	v, ok := doc.Entries[key]
	return v, ok, nil
}

func (b *FileBackend) Put(entries map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.load()
	if err != nil {
		return err
	}

	for k, v := range entries {
		doc.Entries[k] = v
	}

	return b.save(doc)
}

func (b *FileBackend) Delete(keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.load()
	if err != nil {
		return err
	}

	changed := false
	for _, k := range keys {
		if _, ok := doc.Entries[k]; ok {
			delete(doc.Entries, k)
			changed = true
		}
	}

	if !changed {
		return nil
	}

	return b.save(doc)
}

// load reads the document, returning an empty one if the file doesn't exist.
func (b *FileBackend) load() (*document, error) {
	doc := &document{Version: 1, Entries: make(map[string]string)}

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	if doc.Entries == nil {
		doc.Entries = make(map[string]string)
	}

	return doc, nil
}

// save writes the document atomically.
func (b *FileBackend) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}

	// Write to temp file first
	tempPath := b.path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, b.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session file: %w", err)
	}

	return nil
}

// MemoryBackend keeps entries in memory. Used for tests and throwaway sessions.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]string)}
}

func (m *MemoryBackend) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryBackend) Put(entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.entries[k] = v
	}
	return nil
}

func (m *MemoryBackend) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

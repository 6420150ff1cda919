package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Tokens is the persisted client state: the access token and the refresh
// token used to renew it.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type TokenStore interface {
	Load() (Tokens, error)
	Save(tokens Tokens) error
}

type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func NewMemoryStore(tokens Tokens) *MemoryStore {
	return &MemoryStore{tokens: tokens}
}

func (s *MemoryStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, nil
}

func (s *MemoryStore) Save(tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	return nil
}

// FileStore keeps tokens in a JSON file. Writes replace the file atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tokens Tokens
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return tokens, nil
	}
	if err != nil {
		return tokens, fmt.Errorf("failed to read token store: %w", err)
	}

	if err := json.Unmarshal(data, &tokens); err != nil {
		return Tokens{}, fmt.Errorf("failed to decode token store: %w", err)
	}
	return tokens, nil
}

func (s *FileStore) Save(tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write tokens: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set token store permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace token store: %w", err)
	}
	return nil
}

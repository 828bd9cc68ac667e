package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// FileStore persists session state as a JSON document on disk with 0600
// permissions. When a 32-byte key is supplied the document is sealed with
// ChaCha20-Poly1305 so tokens are not readable at rest.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  []byte // nil means plaintext JSON
}

// NewFileStore creates a file-backed store at path. key must be nil or
// exactly chacha20poly1305.KeySize bytes.
func NewFileStore(path string, key []byte) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session: path is required")
	}
	if key != nil && len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("session: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: create store directory: %w", err)
	}
	return &FileStore{path: path, key: key}, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	delete(values, key)
	return s.save(values)
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read store: %w", err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	if s.key != nil {
		data, err = s.open(data)
		if err != nil {
			return nil, err
		}
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("session: decode store: %w", err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("session: encode store: %w", err)
	}

	if s.key != nil {
		data, err = s.seal(data)
		if err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("session: replace store: %w", err)
	}
	return nil
}

// seal produces nonce || ciphertext.
func (s *FileStore) seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, fmt.Errorf("session: init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("session: generate nonce: %w", err)
	}
	return append(nonce, aead.Seal(nil, nonce, plaintext, nil)...), nil
}

func (s *FileStore) open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, fmt.Errorf("session: init cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("session: sealed store is truncated")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("session: unseal store: %w", err)
	}
	return plaintext, nil
}

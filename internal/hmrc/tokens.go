package hmrc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNotConnected is returned when no usable token is stored.
var ErrNotConnected = errors.New("not connected to HMRC")

// TokenStorage persists the OAuth token between runs.
type TokenStorage interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
	Clear() error
}

// FileTokenStorage keeps the token as JSON in a file readable only by the owner.
type FileTokenStorage struct {
	Path string
	mu   sync.Mutex
}

// NewFileTokenStorage returns storage backed by path.
func NewFileTokenStorage(path string) *FileTokenStorage {
	return &FileTokenStorage{Path: path}
}

// Load returns ErrNotConnected when the file does not exist.
func (s *FileTokenStorage) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.Path, err)
	}
	return &tok, nil
}

func (s *FileTokenStorage) Save(tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("nil token")
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return os.Rename(tmp, s.Path)
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (s *FileTokenStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists the chunk collection. Load re-reads current state on every
// call so out-of-band rebuilds take effect immediately; Save replaces the
// whole collection.
type Store interface {
	Load() ([]Chunk, error)
	Save(chunks []Chunk) error
}

// FileStore keeps the collection as one JSON array on disk. Writes go
// through a temp file plus rename so a concurrent reader never sees a
// half-written collection.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() ([]Chunk, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Chunk{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading kb file: %w", err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decoding kb file: %w", err)
	}
	return chunks, nil
}

func (s *FileStore) Save(chunks []Chunk) error {
	if chunks == nil {
		chunks = []Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding kb: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating kb dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing kb file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing kb file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

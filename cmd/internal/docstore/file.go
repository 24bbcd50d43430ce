package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one <name>.json file per document inside a data directory.
// Writes go through a temp file plus rename so readers never observe a torn
// document. A keyed mutex serializes Update cycles and Write replaces per
// document.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates the data directory if needed and returns a store.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: create data dir: %w", err)
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the backing data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Read returns the full document or ErrNotFound.
func (s *FileStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("docstore: %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("docstore: read %q: %w", name, err)
	}
	return raw, nil
}

// Write replaces the full document atomically (tmp file + rename). It takes
// the document's mutex so a replace cannot interleave with an Update cycle.
func (s *FileStore) Write(ctx context.Context, name string, doc []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := s.lockFor(name)
	l.Lock()
	defer l.Unlock()

	return s.replaceFile(name, doc)
}

// replaceFile swaps the document's file contents. Callers hold the
// document's mutex.
func (s *FileStore) replaceFile(name string, doc []byte) error {
	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o600); err != nil {
		return fmt.Errorf("docstore: write %q: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("docstore: replace %q: %w", name, err)
	}
	return nil
}

// Update runs fn under the document's mutex. fn receives nil when the
// document does not exist yet.
func (s *FileStore) Update(ctx context.Context, name string, fn UpdateFunc) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := s.lockFor(name)
	l.Lock()
	defer l.Unlock()

	current, err := os.ReadFile(s.path(name))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("docstore: read %q: %w", name, err)
		}
		current = nil
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	return s.replaceFile(name, next)
}

// DeleteAll removes every *.json document in the data directory.
// Other files (and the directory itself) are left alone.
func (s *FileStore) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("docstore: list data dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("docstore: delete %q: %w", e.Name(), err)
		}
	}
	return nil
}

// Close is a no-op for the file provider.
func (s *FileStore) Close() error { return nil }

// Package store persists conversation trees as JSON files in a chats
// directory. A missing file loads as a fresh empty tree, so opening a chat
// by name always succeeds.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/FergusFettes/command-line-loom/internal/loom"
)

// Store reads and writes conversation files under a single directory.
type Store struct {
	dir string
}

// Open creates a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chats directory: %w", err)
	}
	return &Store{dir: absDir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for a chat name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Exists reports whether a chat file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Load reads a chat by name. A missing file yields a fresh empty tree
// carrying the name; anything unreadable in an existing file is an error.
func (s *Store) Load(name string) (*loom.Index, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ix := loom.NewIndex()
			ix.SetName(name)
			return ix, nil
		}
		return nil, fmt.Errorf("reading chat %q: %w", name, err)
	}
	ix, err := loom.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("loading chat %q: %w", name, err)
	}
	if ix.Name() == "" {
		ix.SetName(name)
	}
	return ix, nil
}

// Save writes a chat atomically: the document lands in a temp file first and
// is renamed into place, so a crash never leaves a half-written chat.
func (s *Store) Save(ix *loom.Index) error {
	name := ix.Name()
	if name == "" {
		return fmt.Errorf("saving chat: empty name: %w", loom.ErrInvalidInput)
	}
	data, err := loom.Marshal(ix)
	if err != nil {
		return fmt.Errorf("encoding chat %q: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing chat %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing chat %q: %w", name, err)
	}
	return nil
}

// List returns the chat names in the directory, sorted.
func (s *Store) List() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m, ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Dump returns the raw stored bytes for a chat.
func (s *Store) Dump(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("chat %q: %w", name, loom.ErrNotFound)
		}
		return nil, fmt.Errorf("reading chat %q: %w", name, err)
	}
	return data, nil
}

// Remove deletes a chat file.
func (s *Store) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("chat %q: %w", name, loom.ErrNotFound)
		}
		return fmt.Errorf("removing chat %q: %w", name, err)
	}
	return nil
}

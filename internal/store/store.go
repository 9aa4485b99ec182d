package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"benritz/giltmonitor/internal/types"
)

// Store is the persisted list of gilts the monitor values, kept as an indented JSON array.
type Store struct {
	path string

	mu    sync.RWMutex
	gilts []*types.Gilt
}

// UpdateResult reports the outcome of replacing the list with a freshly fetched one.
type UpdateResult struct {
	Added int  `json:"added"`
	Total int  `json:"total"`
	Wrote bool `json:"wrote"`
}

// Open loads the list at path. A missing or unreadable file gives an empty list.
func Open(path string) *Store {
	s := &Store{path: path}
	s.gilts, _ = readFile(path)
	return s
}

func readFile(path string) ([]*types.Gilt, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return []*types.Gilt{}, err
	}

	var gilts []*types.Gilt
	if err := json.Unmarshal(raw, &gilts); err != nil {
		return []*types.Gilt{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return gilts, nil
}

func (s *Store) Path() string {
	return s.path
}

// Gilts returns a copy of the current list.
func (s *Store) Gilts() []*types.Gilt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Gilt, len(s.gilts))
	copy(out, s.gilts)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gilts)
}

// Reload re-reads the file, keeping the current list if it cannot be read.
func (s *Store) Reload() error {
	gilts, err := readFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.gilts = gilts
	s.mu.Unlock()

	return nil
}

// Update replaces the list with fetched, deduplicated by ISIN (the last entry wins,
// first-seen order is kept), and rewrites the file.
func (s *Store) Update(fetched []*types.Gilt) (UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]bool, len(s.gilts))
	for _, g := range s.gilts {
		existing[g.ISIN] = true
	}

	index := make(map[string]int, len(fetched))
	list := make([]*types.Gilt, 0, len(fetched))
	for _, g := range fetched {
		if g == nil || g.ISIN == "" {
			continue
		}
		if i, ok := index[g.ISIN]; ok {
			list[i] = g
			continue
		}
		index[g.ISIN] = len(list)
		list = append(list, g)
	}

	added := 0
	for _, g := range list {
		if !existing[g.ISIN] {
			added++
		}
	}

	if err := writeFile(s.path, list); err != nil {
		return UpdateResult{}, err
	}

	s.gilts = list

	return UpdateResult{Added: added, Total: len(list), Wrote: true}, nil
}

func writeFile(path string, gilts []*types.Gilt) error {
	raw, err := json.MarshalIndent(gilts, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".gilts-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

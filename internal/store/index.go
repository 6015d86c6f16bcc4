package store

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"
)

// IndexEntries yields the staged paths in insertion order. Each iteration
// re-reads the index file, so the sequence is restartable and reflects the
// persisted state at the time it is ranged over.
func (s *Store) IndexEntries() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(s.path(IndexFile))
		if isNotExist(err) {
			return
		}
		if err != nil {
			yield("", fmt.Errorf("open index: %w", err))
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if line == "" {
				continue
			}
			if !yield(line, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("read index: %w", err))
		}
	}
}

// StagedPaths returns all staged paths in insertion order.
func (s *Store) StagedPaths() ([]string, error) {
	var paths []string
	for p, err := range s.IndexEntries() {
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// AddToIndex appends path unless it is already staged.
// Reports whether the index changed.
func (s *Store) AddToIndex(path string) (bool, error) {
	paths, err := s.StagedPaths()
	if err != nil {
		return false, err
	}
	if slices.Contains(paths, path) {
		return false, nil
	}

	f, err := os.OpenFile(s.path(IndexFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("open index for append: %w", err)
	}
	if _, err := f.WriteString(path + "\n"); err != nil {
		f.Close()
		return false, fmt.Errorf("append index: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return false, fmt.Errorf("fsync index: %w", err)
	}
	return true, f.Close()
}

// RemoveFromIndex drops path from the index.
// Reports whether it was staged.
func (s *Store) RemoveFromIndex(path string) (bool, error) {
	paths, err := s.StagedPaths()
	if err != nil {
		return false, err
	}

	i := slices.Index(paths, path)
	if i < 0 {
		return false, nil
	}

	return true, s.writeIndex(slices.Delete(paths, i, i+1))
}

// ClearIndex empties the staging index.
func (s *Store) ClearIndex() error {
	return s.writeIndex(nil)
}

func (s *Store) writeIndex(paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	if err := safeWrite(s.path(IndexFile), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

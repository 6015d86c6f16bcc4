package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
)

// NormalizePath converts a user-supplied path (absolute or relative to the
// working tree root) into the slash-separated path recorded in snapshots.
func NormalizePath(st *store.Store, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty: %w", models.ErrInvalidArgument)
	}
	if strings.ContainsAny(path, "\r\n") || strings.Contains(path, " -> ") {
		return "", fmt.Errorf("path %q cannot be recorded in a snapshot: %w", path, models.ErrInvalidArgument)
	}

	root := st.WorkTree()
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, abs)
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("path %q: %v: %w", path, err, models.ErrInvalidArgument)
	}
	rel = filepath.ToSlash(rel)

	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %q is outside the working tree: %w", path, models.ErrInvalidArgument)
	}

	repoDir := filepath.Base(st.Root())
	if rel == repoDir || strings.HasPrefix(rel, repoDir+"/") {
		return "", fmt.Errorf("path %q is inside the repository directory: %w", path, models.ErrInvalidArgument)
	}

	return rel, nil
}

func workPath(st *store.Store, path string) string {
	return filepath.Join(st.WorkTree(), filepath.FromSlash(path))
}

// readWorkFile reads a tracked file from the working tree.
// A missing file is reported as ErrFileNotFound.
func readWorkFile(st *store.Store, path string) ([]byte, error) {
	data, err := os.ReadFile(workPath(st, path))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, models.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// hashWorkFile returns the content digest of a working file, or "" if it is missing.
func hashWorkFile(st *store.Store, path string) (string, error) {
	f, err := os.Open(workPath(st, path))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeWorkFile(st *store.Store, path string, data []byte) error {
	full := workPath(st, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// removeWorkFile deletes a working file and any directories it leaves empty.
func removeWorkFile(st *store.Store, path string) error {
	full := workPath(st, path)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	root := st.WorkTree()
	for dir := filepath.Dir(full); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// checkUntracked refuses to move from snapshot from to snapshot to when that
// would overwrite a working file that from does not track and whose content
// differs from the incoming version.
func checkUntracked(st *store.Store, from, to models.Snapshot) error {
	var paths []string
	for _, path := range to.Paths() {
		if _, tracked := from[path]; tracked {
			continue
		}
		current, err := hashWorkFile(st, path)
		if err != nil {
			return err
		}
		if current != "" && current != to[path] {
			paths = append(paths, path)
		}
	}
	if len(paths) > 0 {
		return fmt.Errorf("untracked working files would be overwritten: %s: %w",
			strings.Join(paths, ", "), models.ErrUncommittedChanges)
	}
	return nil
}

// materialize moves the working tree from snapshot from to snapshot to.
// Files whose content already matches are left alone; paths only in from are removed.
func materialize(st *store.Store, from, to models.Snapshot) (updated, removed, warnings []string, err error) {
	for _, path := range to.Paths() {
		digest := to[path]

		current, err := hashWorkFile(st, path)
		if err != nil {
			return nil, nil, nil, err
		}
		if current == digest {
			continue
		}

		data, err := st.GetBlob(digest)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("blob %s for %s is missing", shortID(digest), path))
			continue
		}
		if err := writeWorkFile(st, path, data); err != nil {
			return nil, nil, nil, err
		}
		updated = append(updated, path)
	}

	for _, path := range from.Paths() {
		if _, ok := to[path]; ok {
			continue
		}
		if err := removeWorkFile(st, path); err != nil {
			return nil, nil, nil, err
		}
		removed = append(removed, path)
	}

	return updated, removed, warnings, nil
}

func shortID(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// Package store provides file-based persistence for minigit.
// It owns the .minigit directory: content-addressed objects, commit records,
// branch refs and HEAD, the staging index, the pending merge state, the
// advisory lock, and a bbolt reflog of every ref movement.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kilupskalvis/minigit/internal/models"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Layout under the repository directory.
const (
	ObjectsDir     = "objects"
	RefsDir        = "refs"
	CommitsDir     = "commits"
	HeadFile       = "HEAD"
	IndexFile      = "index"
	MergeStateFile = "MERGE_STATE"
	LockFile       = "lock"
	RefLogFile     = "reflog.db"
)

// Store represents an opened repository directory.
type Store struct {
	root   string
	db     *bolt.DB
	logger *zap.Logger
}

// New opens the repository directory at root. The reflog database is created
// if missing; the rest of the layout is created by Initialize.
func New(root string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create repository directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(root, RefLogFile), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open reflog: %w", err)
	}

	return &Store{root: root, db: db, logger: logger}, nil
}

// Close closes the reflog database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Initialize creates the directory layout, an empty index, and HEAD pointing
// at an unborn defaultBranch.
func (s *Store) Initialize(defaultBranch string) error {
	if err := ValidateBranchName(defaultBranch); err != nil {
		return err
	}

	for _, dir := range []string{ObjectsDir, RefsDir, CommitsDir} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(HeadFile))
		return err
	}); err != nil {
		return fmt.Errorf("create reflog bucket: %w", err)
	}

	if err := safeWrite(s.path(IndexFile), nil, 0644); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := s.CreateBranch(defaultBranch, ""); err != nil {
		return err
	}
	if err := s.SetHEAD(defaultBranch); err != nil {
		return err
	}

	return s.AppendRefLog(&models.RefLogEntry{
		Ref:    HeadFile,
		New:    defaultBranch,
		Action: models.RefActionInit,
	})
}

// Root returns the repository directory.
func (s *Store) Root() string {
	return s.root
}

// WorkTree returns the directory containing the repository directory.
func (s *Store) WorkTree() string {
	return filepath.Dir(s.root)
}

// Logger returns the store's logger.
func (s *Store) Logger() *zap.Logger {
	return s.logger
}

func (s *Store) path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

// safeWrite writes data to path atomically: tempfile -> fsync -> rename.
// The tempfile is created in the same directory as path so the rename stays
// on one filesystem.
func safeWrite(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		f.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp to target: %w", err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

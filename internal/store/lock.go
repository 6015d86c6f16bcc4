package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/kilupskalvis/minigit/internal/models"
	"go.uber.org/zap"
)

// Lock acquires the repository's advisory lock file. The returned release
// function removes the lock only if it still holds this caller's token.
func (s *Store) Lock() (release func() error, err error) {
	token := uuid.NewString()
	path := s.path(LockFile)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) && s.removeStaleLock(path) {
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	}
	if os.IsExist(err) {
		holder, _ := os.ReadFile(path)
		return nil, fmt.Errorf("%s held by %q (remove it if no minigit command is running): %w",
			path, strings.TrimSpace(string(holder)), models.ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("create lock: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s %d\n", token, os.Getpid()); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write lock: %w", err)
	}

	return func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read lock: %w", err)
		}
		if held, _, _ := strings.Cut(strings.TrimSpace(string(data)), " "); held != token {
			s.logger.Warn("lock token changed while held", zap.String("path", path))
			return fmt.Errorf("lock %s no longer held: %w", path, models.ErrLocked)
		}
		return os.Remove(path)
	}, nil
}

// removeStaleLock deletes the lock at path if the pid it records names a
// process that no longer exists. Unreadable holders are left in place.
func (s *Store) removeStaleLock(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, pidField, ok := strings.Cut(strings.TrimSpace(string(data)), " ")
	if !ok {
		return false
	}
	pid, err := strconv.Atoi(pidField)
	if err != nil || pid <= 0 || processAlive(pid) {
		return false
	}

	if err := os.Remove(path); err != nil {
		return false
	}
	s.logger.Warn("removed stale lock", zap.String("path", path), zap.Int("pid", pid))
	return true
}

// WithLock runs fn while holding the repository lock.
func (s *Store) WithLock(fn func() error) (err error) {
	release, err := s.Lock()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}

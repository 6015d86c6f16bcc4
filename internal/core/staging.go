package core

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"

	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StageResult reports what a Stage call did
type StageResult struct {
	Path     string
	Added    bool // false if the path was already staged
	Resolved bool // the path was an unresolved merge conflict
}

// Stage records path in the staging index. The file's content is read at
// commit time, not now.
func Stage(ctx context.Context, cfg *config.Config, st *store.Store, path string) (*StageResult, error) {
	rel, err := NormalizePath(st, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(workPath(st, rel))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", rel, models.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file: %w", rel, models.ErrInvalidArgument)
	}

	result := &StageResult{Path: rel}
	err = st.WithLock(func() error {
		added, err := st.AddToIndex(rel)
		if err != nil {
			return err
		}
		result.Added = added

		state, err := st.GetMergeState()
		if err != nil {
			return err
		}
		if state != nil && state.IsConflicted(rel) {
			state.Conflicts = slices.DeleteFunc(state.Conflicts, func(p string) bool { return p == rel })
			if err := st.SetMergeState(state); err != nil {
				return err
			}
			result.Resolved = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	st.Logger().Debug("staged", zap.String("path", rel), zap.Bool("added", result.Added))
	return result, nil
}

// Unstage removes path from the staging index. Returns false if it was not staged.
func Unstage(ctx context.Context, cfg *config.Config, st *store.Store, path string) (bool, error) {
	rel, err := NormalizePath(st, path)
	if err != nil {
		return false, err
	}

	var removed bool
	err = st.WithLock(func() error {
		removed, err = st.RemoveFromIndex(rel)
		return err
	})
	return removed, err
}

// UnstageAll clears the staging index and returns how many paths were staged
func UnstageAll(ctx context.Context, cfg *config.Config, st *store.Store) (int, error) {
	var count int
	err := st.WithLock(func() error {
		staged, err := st.StagedPaths()
		if err != nil {
			return err
		}
		count = len(staged)
		return st.ClearIndex()
	})
	return count, err
}

// StatusResult describes the working tree relative to HEAD
type StatusResult struct {
	Branch     string
	CommitHash string
	Staged     []string          // Paths in the staging index
	Modified   []string          // Tracked, unstaged, content differs from HEAD
	Deleted    []string          // Tracked, unstaged, missing from the working tree
	Merge      *models.MergeState // Pending merge, if any
}

// IsClean returns true if nothing is staged, modified or deleted
func (s *StatusResult) IsClean() bool {
	return len(s.Staged) == 0 && len(s.Modified) == 0 && len(s.Deleted) == 0
}

// Status compares the working tree against the HEAD snapshot. Tracked files
// are hashed concurrently.
func Status(ctx context.Context, cfg *config.Config, st *store.Store) (*StatusResult, error) {
	head, err := st.Head()
	if err != nil {
		return nil, err
	}

	staged, err := st.StagedPaths()
	if err != nil {
		return nil, err
	}

	merge, err := st.GetMergeState()
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		Branch:     head.BranchName,
		CommitHash: head.CommitHash,
		Staged:     staged,
		Merge:      merge,
	}
	slices.Sort(result.Staged)

	if head.CommitHash == "" {
		return result, nil
	}

	commit, err := st.GetCommit(head.CommitHash)
	if err != nil {
		return nil, err
	}

	var tracked []string
	for _, path := range commit.Files.Paths() {
		if !slices.Contains(staged, path) {
			tracked = append(tracked, path)
		}
	}

	digests := make([]string, len(tracked))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range tracked {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			digest, err := hashWorkFile(st, path)
			if err != nil {
				return err
			}
			digests[i] = digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, path := range tracked {
		switch digests[i] {
		case commit.Files[path]:
		case "":
			result.Deleted = append(result.Deleted, path)
		default:
			result.Modified = append(result.Modified, path)
		}
	}

	return result, nil
}

// HasUncommittedChanges checks if the working tree differs from HEAD
func HasUncommittedChanges(ctx context.Context, cfg *config.Config, st *store.Store) (bool, error) {
	status, err := Status(ctx, cfg, st)
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}

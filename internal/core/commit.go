package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
	"go.uber.org/zap"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// CommitResult contains the new commit and any non-fatal warnings
type CommitResult struct {
	Commit   *models.Commit
	Skipped  []string // Staged paths missing from the working tree
	Warnings []string
}

// CreateCommit records a commit of the staged paths on the current branch.
// The snapshot is the parent snapshot overlaid with the staged files' current
// content. When a merge is pending the commit gets the merged branch as its
// second parent, and an empty message falls back to the merge message.
func CreateCommit(ctx context.Context, cfg *config.Config, st *store.Store, message string) (*CommitResult, error) {
	if strings.ContainsAny(message, "\r\n") {
		return nil, fmt.Errorf("commit message must be a single line: %w", models.ErrInvalidArgument)
	}

	var result *CommitResult
	err := st.WithLock(func() error {
		var err error
		result, err = createCommit(ctx, st, message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func createCommit(ctx context.Context, st *store.Store, message string) (*CommitResult, error) {
	head, err := st.Head()
	if err != nil {
		return nil, err
	}

	state, err := st.GetMergeState()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(message) == "" && state != nil {
		message = state.Message
	}
	if strings.TrimSpace(message) == "" {
		return nil, models.ErrEmptyMessage
	}

	staged, err := st.StagedPaths()
	if err != nil {
		return nil, err
	}
	if len(staged) == 0 && state == nil {
		return nil, models.ErrNothingToCommit
	}
	if state != nil && len(state.Conflicts) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(state.Conflicts, ", "), models.ErrUnresolvedConflicts)
	}

	var files models.Snapshot
	switch {
	case state != nil:
		files = state.Files.Clone()
	case head.CommitHash != "":
		parent, err := st.GetCommit(head.CommitHash)
		if err != nil {
			return nil, err
		}
		files = parent.Files.Clone()
	default:
		files = models.Snapshot{}
	}

	result := &CommitResult{}
	for _, path := range staged {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := readWorkFile(st, path)
		if errors.Is(err, models.ErrFileNotFound) {
			st.Logger().Warn("staged file is missing, keeping previous version", zap.String("path", path))
			result.Skipped = append(result.Skipped, path)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s is missing from the working tree, skipped", path))
			continue
		}
		if err != nil {
			return nil, err
		}

		digest, err := st.PutBlob(data)
		if err != nil {
			return nil, err
		}
		files[path] = digest
	}

	var parents []string
	if head.CommitHash != "" {
		parents = append(parents, head.CommitHash)
	}
	action := models.RefActionCommit
	if state != nil {
		parents = append(parents, state.Head)
		action = models.RefActionMerge
	}

	timestamp := timeNow()
	commit := &models.Commit{
		Hash:      models.GenerateCommitHash(message, timestamp, parents, files),
		Message:   message,
		Timestamp: timestamp,
		Parents:   parents,
		Files:     files,
	}

	if err := st.CreateCommit(commit); err != nil {
		return nil, err
	}
	if err := st.UpdateBranch(head.BranchName, commit.Hash); err != nil {
		return nil, err
	}
	if err := st.ClearIndex(); err != nil {
		return nil, err
	}
	if state != nil {
		if err := st.ClearMergeState(); err != nil {
			return nil, err
		}
	}

	if err := st.AppendRefLog(&models.RefLogEntry{
		Ref:     store.RefName(head.BranchName),
		Old:     head.CommitHash,
		New:     commit.Hash,
		Action:  action,
		Message: message,
	}); err != nil {
		return nil, err
	}

	st.Logger().Info("committed",
		zap.String("hash", commit.ShortHash()),
		zap.String("branch", head.BranchName),
		zap.Int("files", len(files)),
	)

	result.Commit = commit
	return result, nil
}

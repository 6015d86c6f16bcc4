package core

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
	"go.uber.org/zap"
)

// Conflict markers written into working files when the block policy stops a merge
const (
	markerOurs   = "<<<<<<< HEAD"
	markerSep    = "======="
	markerTheirs = ">>>>>>>"
)

// MergeSnapshots performs a three-way merge of path -> digest maps.
// A side that changed a path relative to base wins over a side that did not.
// When both changed it differently the path conflicts and keeps our version.
func MergeSnapshots(base, ours, theirs models.Snapshot) (models.Snapshot, []*models.MergeConflict) {
	merged := models.Snapshot{}
	var conflicts []*models.MergeConflict

	paths := make(map[string]struct{})
	for _, s := range []models.Snapshot{base, ours, theirs} {
		for p := range s {
			paths[p] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, path := range sorted {
		b, inBase := base[path]
		o, inOurs := ours[path]
		t, inTheirs := theirs[path]

		switch {
		case inOurs == inTheirs && o == t:
			// Same on both sides
			if inOurs {
				merged[path] = o
			}
		case inTheirs == inBase && t == b:
			// Only we changed it
			if inOurs {
				merged[path] = o
			}
		case inOurs == inBase && o == b:
			// Only they changed it
			if inTheirs {
				merged[path] = t
			}
		default:
			conflict := &models.MergeConflict{Path: path, Base: b, Ours: o, Theirs: t}
			switch {
			case !inBase:
				conflict.Type = models.ConflictAddAdd
			case !inOurs:
				conflict.Type = models.ConflictDeleteModify
			case !inTheirs:
				conflict.Type = models.ConflictModifyDelete
			default:
				conflict.Type = models.ConflictModifyModify
			}
			conflicts = append(conflicts, conflict)

			if inOurs {
				merged[path] = o
			}
		}
	}

	return merged, conflicts
}

// Merge merges branchName into the current branch.
func Merge(ctx context.Context, cfg *config.Config, st *store.Store, branchName string, opts models.MergeOptions) (*models.MergeResult, error) {
	var result *models.MergeResult
	err := st.WithLock(func() error {
		var err error
		result, err = merge(ctx, cfg, st, branchName, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func merge(ctx context.Context, cfg *config.Config, st *store.Store, branchName string, opts models.MergeOptions) (*models.MergeResult, error) {
	head, err := st.Head()
	if err != nil {
		return nil, err
	}
	if branchName == head.BranchName {
		return nil, fmt.Errorf("cannot merge branch '%s' into itself: %w", branchName, models.ErrInvalidArgument)
	}

	other, err := st.GetBranch(branchName)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, fmt.Errorf("'%s': %w", branchName, models.ErrBranchNotFound)
	}
	if other.IsUnborn() {
		return nil, fmt.Errorf("nothing to merge from '%s': %w", branchName, models.ErrEmptyTarget)
	}

	state, err := st.GetMergeState()
	if err != nil {
		return nil, err
	}
	if state != nil {
		return nil, fmt.Errorf("merge of '%s' is pending, commit or abort it first: %w", state.Branch, models.ErrMergeInProgress)
	}

	dirty, err := HasUncommittedChanges(ctx, cfg, st)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, fmt.Errorf("commit your changes before merging: %w", models.ErrUncommittedChanges)
	}

	policy := opts.Policy
	if policy == "" {
		policy = cfg.ConflictPolicy()
	}

	ours, theirs := head.CommitHash, other.CommitHash
	result := &models.MergeResult{Branch: branchName}

	if ours == "" {
		return fastForward(st, head, other, result)
	}
	if ours == theirs {
		result.UpToDate = true
		result.Base = ours
		return result, nil
	}

	base, err := FindMergeBase(st, ours, theirs)
	if err != nil {
		return nil, err
	}
	result.Base = base

	if base == theirs {
		result.UpToDate = true
		return result, nil
	}
	if base == ours && (opts.FastForward || cfg.Merge.FastForward) {
		return fastForward(st, head, other, result)
	}

	baseFiles := models.Snapshot{}
	if base != "" {
		c, err := st.GetCommit(base)
		if err != nil {
			return nil, err
		}
		baseFiles = c.Files
	}
	oursCommit, err := st.GetCommit(ours)
	if err != nil {
		return nil, err
	}
	theirsCommit, err := st.GetCommit(theirs)
	if err != nil {
		return nil, err
	}

	merged, conflicts := MergeSnapshots(baseFiles, oursCommit.Files, theirsCommit.Files)
	result.Snapshot = merged
	result.Conflicts = conflicts

	for _, c := range conflicts {
		st.Logger().Warn("merge conflict", zap.String("path", c.Path), zap.String("type", string(c.Type)))
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("Merge branch '%s' into %s", branchName, head.BranchName)
	}

	// Block-policy markers also land on paths we deleted and they modified
	incoming := merged
	if len(conflicts) > 0 && policy == models.ConflictBlock {
		incoming = merged.Clone()
		for _, c := range conflicts {
			if c.Ours == "" {
				incoming[c.Path] = c.Theirs
			}
		}
	}
	if err := checkUntracked(st, oursCommit.Files, incoming); err != nil {
		return nil, err
	}

	result.Updated, result.Removed, result.Warnings, err = materialize(st, oursCommit.Files, merged)
	if err != nil {
		return nil, err
	}

	if len(conflicts) > 0 && policy == models.ConflictBlock {
		return blockOnConflicts(st, other, message, result)
	}

	timestamp := timeNow()
	parents := []string{ours, theirs}
	commit := &models.Commit{
		Hash:      models.GenerateCommitHash(message, timestamp, parents, merged),
		Message:   message,
		Timestamp: timestamp,
		Parents:   parents,
		Files:     merged,
	}
	if err := st.CreateCommit(commit); err != nil {
		return nil, err
	}
	if err := st.UpdateBranch(head.BranchName, commit.Hash); err != nil {
		return nil, err
	}
	if err := st.AppendRefLog(&models.RefLogEntry{
		Ref:     store.RefName(head.BranchName),
		Old:     ours,
		New:     commit.Hash,
		Action:  models.RefActionMerge,
		Message: message,
	}); err != nil {
		return nil, err
	}

	st.Logger().Info("merged",
		zap.String("branch", branchName),
		zap.String("commit", commit.ShortHash()),
		zap.Int("conflicts", len(conflicts)),
	)

	result.Commit = commit
	return result, nil
}

// fastForward moves the current branch to the other branch's tip
func fastForward(st *store.Store, head *models.HeadState, other *models.Branch, result *models.MergeResult) (*models.MergeResult, error) {
	target, err := st.GetCommit(other.CommitHash)
	if err != nil {
		return nil, err
	}

	from := models.Snapshot{}
	if head.CommitHash != "" {
		current, err := st.GetCommit(head.CommitHash)
		if err != nil {
			return nil, err
		}
		from = current.Files
	}

	if err := checkUntracked(st, from, target.Files); err != nil {
		return nil, err
	}

	result.Updated, result.Removed, result.Warnings, err = materialize(st, from, target.Files)
	if err != nil {
		return nil, err
	}

	if err := st.UpdateBranch(head.BranchName, target.Hash); err != nil {
		return nil, err
	}
	if err := st.AppendRefLog(&models.RefLogEntry{
		Ref:     store.RefName(head.BranchName),
		Old:     head.CommitHash,
		New:     target.Hash,
		Action:  models.RefActionFastForward,
		Message: "fast-forward to " + other.Name,
	}); err != nil {
		return nil, err
	}

	st.Logger().Info("fast-forward", zap.String("branch", head.BranchName), zap.String("to", target.ShortHash()))

	result.FastForward = true
	result.Commit = target
	result.Snapshot = target.Files
	return result, nil
}

// blockOnConflicts writes conflict markers into the conflicted working files
// and records the pending merge instead of committing.
func blockOnConflicts(st *store.Store, other *models.Branch, message string, result *models.MergeResult) (*models.MergeResult, error) {
	state := &models.MergeState{
		Branch:  other.Name,
		Head:    other.CommitHash,
		Message: message,
		Files:   result.Snapshot,
	}

	for _, c := range result.Conflicts {
		ours, err := blobOrEmpty(st, c.Ours)
		if err != nil {
			return nil, err
		}
		theirs, err := blobOrEmpty(st, c.Theirs)
		if err != nil {
			return nil, err
		}

		if err := writeWorkFile(st, c.Path, conflictMarkers(ours, theirs, other.Name)); err != nil {
			return nil, err
		}
		state.Conflicts = append(state.Conflicts, c.Path)
	}

	if err := st.SetMergeState(state); err != nil {
		return nil, err
	}

	st.Logger().Info("merge stopped on conflicts",
		zap.String("branch", other.Name),
		zap.Int("conflicts", len(state.Conflicts)),
	)

	result.Pending = true
	return result, nil
}

func blobOrEmpty(st *store.Store, digest string) ([]byte, error) {
	if digest == "" {
		return nil, nil
	}
	return st.GetBlob(digest)
}

func conflictMarkers(ours, theirs []byte, branch string) []byte {
	var b bytes.Buffer
	b.WriteString(markerOurs + "\n")
	writeSide(&b, ours)
	b.WriteString(markerSep + "\n")
	writeSide(&b, theirs)
	b.WriteString(markerTheirs + " " + branch + "\n")
	return b.Bytes()
}

func writeSide(b *bytes.Buffer, content []byte) {
	b.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		b.WriteByte('\n')
	}
}

// AbortMerge abandons a pending merge, restoring HEAD's files and clearing the
// staging index.
func AbortMerge(ctx context.Context, cfg *config.Config, st *store.Store) error {
	return st.WithLock(func() error {
		state, err := st.GetMergeState()
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("no merge in progress: %w", models.ErrInvalidArgument)
		}

		head, err := st.Head()
		if err != nil {
			return err
		}
		headFiles := models.Snapshot{}
		if head.CommitHash != "" {
			c, err := st.GetCommit(head.CommitHash)
			if err != nil {
				return err
			}
			headFiles = c.Files
		}

		// Marker files for paths HEAD does not track are not in either snapshot.
		for _, path := range state.Conflicts {
			if _, ok := headFiles[path]; !ok {
				if err := removeWorkFile(st, path); err != nil {
					return err
				}
			}
		}

		_, _, warnings, err := materialize(st, state.Files, headFiles)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			st.Logger().Warn(w)
		}

		if err := st.ClearIndex(); err != nil {
			return err
		}
		if err := st.ClearMergeState(); err != nil {
			return err
		}

		st.Logger().Info("merge aborted", zap.String("branch", state.Branch))
		return nil
	})
}

package core

import (
	"context"
	"fmt"

	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
	"go.uber.org/zap"
)

// CheckoutOptions configures checkout behavior
type CheckoutOptions struct {
	Force        bool // Discard uncommitted changes and the staging index
	CreateBranch bool // Create the branch at HEAD before switching (-b flag)
}

// CheckoutResult contains the result of a checkout operation
type CheckoutResult struct {
	PreviousBranch string
	BranchName     string
	CommitHash     string // Tip of the new branch, empty if unborn
	BranchCreated  bool
	Updated        []string // Paths written to the working tree
	Removed        []string // Paths removed from the working tree
	Warnings       []string
}

// Checkout switches HEAD to branch and updates the working tree to its snapshot.
func Checkout(ctx context.Context, cfg *config.Config, st *store.Store, branch string, opts CheckoutOptions) (*CheckoutResult, error) {
	var result *CheckoutResult
	err := st.WithLock(func() error {
		var err error
		result, err = checkout(ctx, cfg, st, branch, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func checkout(ctx context.Context, cfg *config.Config, st *store.Store, name string, opts CheckoutOptions) (_ *CheckoutResult, err error) {
	state, err := st.GetMergeState()
	if err != nil {
		return nil, err
	}
	if state != nil {
		return nil, fmt.Errorf("merge of '%s' is pending, commit or abort it first: %w", state.Branch, models.ErrMergeInProgress)
	}

	head, err := st.Head()
	if err != nil {
		return nil, err
	}

	if !opts.Force {
		dirty, err := HasUncommittedChanges(ctx, cfg, st)
		if err != nil {
			return nil, err
		}
		if dirty {
			return nil, fmt.Errorf("commit your changes or use --force: %w", models.ErrUncommittedChanges)
		}
	}

	result := &CheckoutResult{PreviousBranch: head.BranchName, BranchName: name}

	if opts.CreateBranch {
		if _, err := createBranch(st, name, ""); err != nil {
			return nil, err
		}
		result.BranchCreated = true

		// A branch created for a checkout that then fails is removed again
		defer func() {
			if err == nil {
				return
			}
			if derr := st.DeleteBranch(name); derr != nil {
				st.Logger().Warn("failed to remove branch after failed checkout", zap.String("branch", name), zap.Error(derr))
				return
			}
			if derr := st.DeleteRefLog(store.RefName(name)); derr != nil {
				st.Logger().Warn("failed to remove reflog after failed checkout", zap.String("branch", name), zap.Error(derr))
			}
		}()
	}

	target, err := st.GetBranch(name)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("'%s': %w", name, models.ErrBranchNotFound)
	}
	result.CommitHash = target.CommitHash

	if target.IsUnborn() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("branch '%s' has no commits yet, working tree left as is", name))
	} else if target.CommitHash != head.CommitHash || opts.Force {
		from := models.Snapshot{}
		if head.CommitHash != "" {
			current, err := st.GetCommit(head.CommitHash)
			if err != nil {
				return nil, err
			}
			from = current.Files
		}

		commit, err := st.GetCommit(target.CommitHash)
		if err != nil {
			return nil, err
		}

		if !opts.Force {
			if err := checkUntracked(st, from, commit.Files); err != nil {
				return nil, err
			}
		}

		result.Updated, result.Removed, result.Warnings, err = materialize(st, from, commit.Files)
		if err != nil {
			return nil, err
		}
	}

	if opts.Force {
		if err := st.ClearIndex(); err != nil {
			return nil, err
		}
	}

	if err := st.SetHEAD(name); err != nil {
		return nil, err
	}
	if err := st.AppendRefLog(&models.RefLogEntry{
		Ref:     store.HeadFile,
		Old:     head.BranchName,
		New:     name,
		Action:  models.RefActionCheckout,
		Message: fmt.Sprintf("moving from %s to %s", head.BranchName, name),
	}); err != nil {
		return nil, err
	}

	for _, w := range result.Warnings {
		st.Logger().Warn(w)
	}
	st.Logger().Info("checked out",
		zap.String("branch", name),
		zap.Int("updated", len(result.Updated)),
		zap.Int("removed", len(result.Removed)),
	)

	return result, nil
}

package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
	"go.uber.org/zap"
)

// minPrefixLen is the shortest hash prefix ResolveRef accepts
const minPrefixLen = 4

// ListBranches returns all branches with the current branch name
func ListBranches(st *store.Store) ([]*models.Branch, string, error) {
	branches, err := st.ListBranches()
	if err != nil {
		return nil, "", err
	}

	currentBranch, err := st.GetHEAD()
	if err != nil {
		return nil, "", err
	}

	return branches, currentBranch, nil
}

// CreateBranch creates a new branch at the current HEAD or specified ref.
// Branching from an unborn HEAD creates another unborn branch.
func CreateBranch(st *store.Store, name string, startPoint string) (*models.Branch, error) {
	var branch *models.Branch
	err := st.WithLock(func() error {
		var err error
		branch, err = createBranch(st, name, startPoint)
		return err
	})
	return branch, err
}

func createBranch(st *store.Store, name string, startPoint string) (*models.Branch, error) {
	if err := store.ValidateBranchName(name); err != nil {
		return nil, err
	}

	exists, err := st.BranchExists(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("branch '%s': %w", name, models.ErrAlreadyExists)
	}

	var commitHash string
	if startPoint == "" {
		head, err := st.Head()
		if err != nil {
			return nil, err
		}
		commitHash = head.CommitHash
	} else {
		commitHash, _, err = ResolveRef(st, startPoint)
		if err != nil {
			return nil, err
		}
	}

	if err := st.CreateBranch(name, commitHash); err != nil {
		return nil, err
	}

	if err := st.AppendRefLog(&models.RefLogEntry{
		Ref:     store.RefName(name),
		New:     commitHash,
		Action:  models.RefActionBranch,
		Message: "created from " + startPointLabel(startPoint),
	}); err != nil {
		return nil, err
	}

	st.Logger().Debug("branch created", zap.String("branch", name), zap.String("commit", shortID(commitHash)))
	return &models.Branch{Name: name, CommitHash: commitHash}, nil
}

func startPointLabel(startPoint string) string {
	if startPoint == "" {
		return "HEAD"
	}
	return startPoint
}

// DeleteBranch deletes a branch and its reflog
func DeleteBranch(st *store.Store, name string) error {
	return st.WithLock(func() error {
		currentBranch, err := st.GetHEAD()
		if err != nil {
			return err
		}
		if name == currentBranch {
			return fmt.Errorf("cannot delete branch '%s' while it is checked out: %w", name, models.ErrInvalidArgument)
		}

		if err := st.DeleteBranch(name); err != nil {
			return err
		}
		return st.DeleteRefLog(store.RefName(name))
	})
}

// ResolveRef resolves a branch name, HEAD, HEAD~N, full hash or unique hash
// prefix to a commit hash. branchName is set when ref named a branch.
func ResolveRef(st *store.Store, ref string) (commitHash string, branchName string, err error) {
	if ref == store.HeadFile || strings.HasPrefix(ref, store.HeadFile+"~") {
		commitHash, err := resolveHEADRef(st, ref)
		return commitHash, "", err
	}

	branch, err := st.GetBranch(ref)
	if err != nil {
		return "", "", err
	}
	if branch != nil {
		if branch.IsUnborn() {
			return "", "", fmt.Errorf("branch '%s': %w", ref, models.ErrEmptyTarget)
		}
		return branch.CommitHash, branch.Name, nil
	}

	if len(ref) < minPrefixLen {
		return "", "", fmt.Errorf("'%s' is not a valid branch or commit: %w", ref, models.ErrNotFound)
	}

	matches, err := st.FindCommitsByPrefix(strings.ToLower(ref))
	if err != nil {
		return "", "", err
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("'%s' is not a valid branch or commit: %w", ref, models.ErrNotFound)
	case 1:
		return matches[0], "", nil
	default:
		return "", "", fmt.Errorf("'%s' is ambiguous (%d commits match): %w", ref, len(matches), models.ErrInvalidArgument)
	}
}

// resolveHEADRef resolves HEAD or HEAD~N by following first parents
func resolveHEADRef(st *store.Store, ref string) (string, error) {
	head, err := st.Head()
	if err != nil {
		return "", err
	}
	if head.CommitHash == "" {
		return "", fmt.Errorf("HEAD: branch '%s' has no commits yet: %w", head.BranchName, models.ErrEmptyTarget)
	}

	if ref == store.HeadFile {
		return head.CommitHash, nil
	}

	n, err := strconv.Atoi(strings.TrimPrefix(ref, store.HeadFile+"~"))
	if err != nil {
		return "", fmt.Errorf("invalid ref '%s': expected HEAD~N where N is a number: %w", ref, models.ErrInvalidArgument)
	}
	if n < 0 {
		return "", fmt.Errorf("invalid ref '%s': N must be non-negative: %w", ref, models.ErrInvalidArgument)
	}

	commitHash := head.CommitHash
	for i := 0; i < n; i++ {
		commit, err := st.GetCommit(commitHash)
		if err != nil {
			return "", err
		}
		if commit.Parent() == "" {
			return "", fmt.Errorf("cannot resolve %s: reached root commit after %d step(s): %w", ref, i, models.ErrNotFound)
		}
		commitHash = commit.Parent()
	}

	return commitHash, nil
}

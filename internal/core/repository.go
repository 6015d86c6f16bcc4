package core

import (
	"fmt"
	"os"

	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
	"go.uber.org/zap"
)

// InitRepository creates a repository in dir whose HEAD points at an unborn
// defaultBranch ("" for the configured default).
func InitRepository(dir, defaultBranch string, logger *zap.Logger) (*config.Config, *store.Store, error) {
	if defaultBranch != "" {
		if err := store.ValidateBranchName(defaultBranch); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Initialize(dir, defaultBranch)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(cfg.RepoPath(), logger)
	if err != nil {
		os.RemoveAll(cfg.RepoPath())
		return nil, nil, err
	}

	if err := st.Initialize(cfg.Core.DefaultBranch); err != nil {
		st.Close()
		os.RemoveAll(cfg.RepoPath())
		return nil, nil, err
	}

	st.Logger().Debug("repository initialized", zap.String("path", cfg.RepoPath()))
	return cfg, st, nil
}

// OpenRepository opens the repository whose .minigit directory is repoPath
func OpenRepository(repoPath string, logger *zap.Logger) (*config.Config, *store.Store, error) {
	cfg, err := config.LoadFrom(repoPath)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(cfg.RepoPath(), logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

// RefLog returns the movements of HEAD or of a branch, newest first.
// A limit of 0 returns every entry.
func RefLog(st *store.Store, ref string, limit int) ([]*models.RefLogEntry, error) {
	if ref == "" || ref == store.HeadFile {
		return st.ReadRefLog(store.HeadFile, limit)
	}

	exists, err := st.BranchExists(ref)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("'%s': %w", ref, models.ErrBranchNotFound)
	}
	return st.ReadRefLog(store.RefName(ref), limit)
}

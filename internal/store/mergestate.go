package store

import (
	"fmt"
	"os"

	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/pelletier/go-toml/v2"
)

// GetMergeState returns the pending merge, or (nil, nil) if none.
func (s *Store) GetMergeState() (*models.MergeState, error) {
	data, err := os.ReadFile(s.path(MergeStateFile))
	if isNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read merge state: %w", err)
	}

	var state models.MergeState
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse merge state: %v: %w", err, models.ErrCorruptHistory)
	}
	return &state, nil
}

// SetMergeState records a pending merge.
func (s *Store) SetMergeState(state *models.MergeState) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal merge state: %w", err)
	}
	return safeWrite(s.path(MergeStateFile), data, 0644)
}

// ClearMergeState removes the pending merge. No error if there is none.
func (s *Store) ClearMergeState() error {
	err := os.Remove(s.path(MergeStateFile))
	if err != nil && !isNotExist(err) {
		return fmt.Errorf("remove merge state: %w", err)
	}
	return nil
}

package cli

import (
	"errors"

	"github.com/kilupskalvis/minigit/internal/models"
)

// Exit statuses
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitUsage           = 2 // Invalid argument, empty message, nothing to commit
	ExitNotFound        = 3 // Unknown ref, commit or file
	ExitAlreadyExists   = 4
	ExitEmptyTarget     = 5 // Branch has no commits
	ExitCorruptHistory  = 6
	ExitConflicts       = 7 // Merge left conflicts
	ExitRepositoryState = 8 // Uncommitted changes, pending merge or held lock
)

var exitCodes = []struct {
	err  error
	code int
}{
	{models.ErrCorruptHistory, ExitCorruptHistory},
	{models.ErrUnresolvedConflicts, ExitConflicts},
	{models.ErrUncommittedChanges, ExitRepositoryState},
	{models.ErrMergeInProgress, ExitRepositoryState},
	{models.ErrLocked, ExitRepositoryState},
	{models.ErrEmptyTarget, ExitEmptyTarget},
	{models.ErrAlreadyExists, ExitAlreadyExists},
	{models.ErrFileNotFound, ExitNotFound},
	{models.ErrNotFound, ExitNotFound},
	{models.ErrInvalidArgument, ExitUsage},
	{models.ErrEmptyMessage, ExitUsage},
	{models.ErrNothingToCommit, ExitUsage},
}

// exitCode maps an error kind to the process exit status
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ExitFailure
}

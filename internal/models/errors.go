package models

import "errors"

// Error kinds shared by the store and core packages. Callers match them with
// errors.Is; producers wrap them with the path, hash or branch involved.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrFileNotFound    = errors.New("file not found")
	ErrEmptyTarget     = errors.New("branch has no commits")
	ErrCorruptHistory  = errors.New("corrupt history")
	ErrEmptyMessage    = errors.New("empty commit message")
	ErrInvalidArgument = errors.New("invalid argument")

	ErrNothingToCommit     = errors.New("nothing to commit")
	ErrUncommittedChanges  = errors.New("uncommitted changes")
	ErrMergeInProgress     = errors.New("merge in progress")
	ErrUnresolvedConflicts = errors.New("unresolved merge conflicts")
	ErrLocked              = errors.New("repository is locked")
)

// ErrBranchNotFound is a NotFound for branch refs.
var ErrBranchNotFound = &kindError{msg: "branch not found", kind: ErrNotFound}

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

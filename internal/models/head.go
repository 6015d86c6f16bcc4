package models

// HeadState represents the current HEAD position
type HeadState struct {
	BranchName string // Branch HEAD points at
	CommitHash string // Tip of that branch, empty if unborn
}

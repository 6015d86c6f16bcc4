package models

import "time"

// RefAction names what moved a ref.
type RefAction string

const (
	RefActionInit        RefAction = "init"
	RefActionCommit      RefAction = "commit"
	RefActionMerge       RefAction = "merge"
	RefActionFastForward RefAction = "fast-forward"
	RefActionBranch      RefAction = "branch"
	RefActionCheckout    RefAction = "checkout"
)

// RefLogEntry records one movement of a ref.
// For HEAD, Old and New are branch names; for branch refs they are commit hashes.
type RefLogEntry struct {
	Seq     uint64    `json:"-"`
	Ref     string    `json:"ref"`
	Old     string    `json:"old"`
	New     string    `json:"new"`
	Action  RefAction `json:"action"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

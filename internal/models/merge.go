package models

import "fmt"

// ConflictPolicy defines what a merge does when a path conflicts
type ConflictPolicy string

const (
	ConflictOurs  ConflictPolicy = "ours"  // Default: commit with our version, report conflicts
	ConflictBlock ConflictPolicy = "block" // Stop before committing until conflicts are resolved
)

// ParseConflictPolicy validates a policy name.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(s); p {
	case ConflictOurs, ConflictBlock:
		return p, nil
	}
	return "", fmt.Errorf("unknown conflict policy %q: %w", s, ErrInvalidArgument)
}

// MergeConflictType identifies the type of merge conflict
type MergeConflictType string

const (
	ConflictModifyModify MergeConflictType = "modify-modify" // Both modified differently
	ConflictDeleteModify MergeConflictType = "delete-modify" // We deleted, they modified
	ConflictModifyDelete MergeConflictType = "modify-delete" // We modified, they deleted
	ConflictAddAdd       MergeConflictType = "add-add"       // Both added with different content
)

// MergeConflict represents a conflicting path during merge.
// Digests are empty where the path is absent on that side.
type MergeConflict struct {
	Path   string
	Type   MergeConflictType
	Base   string
	Ours   string
	Theirs string
}

// MergeResult contains the outcome of a merge operation
type MergeResult struct {
	Branch      string           // Branch that was merged in
	Base        string           // Merge base, empty if histories are disjoint
	UpToDate    bool             // Nothing to merge
	FastForward bool             // Branch pointer moved without a merge commit
	Pending     bool             // Conflicts blocked the commit; MERGE_STATE written
	Commit      *Commit          // Resulting commit (merge or fast-forward target)
	Snapshot    Snapshot         // Merged snapshot
	Conflicts   []*MergeConflict // Conflicting paths
	Updated     []string         // Paths written to the worktree
	Removed     []string         // Paths removed from the worktree
	Warnings    []string         // Non-fatal warnings
}

// HasConflicts reports whether any path conflicted.
func (r *MergeResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// MergeOptions configures merge behavior
type MergeOptions struct {
	FastForward bool           // Move the branch pointer when our tip is an ancestor of theirs
	Message     string         // Custom merge commit message
	Policy      ConflictPolicy // Overrides the configured policy when set
}

// MergeState is the pending merge recorded when the block policy stops on conflicts.
// Files is the merged snapshot the resolving commit starts from; Conflicts lists
// the paths that still have to be staged.
type MergeState struct {
	Branch    string   `toml:"branch"`
	Head      string   `toml:"head"`
	Message   string   `toml:"message"`
	Conflicts []string `toml:"conflicts"`
	Files     Snapshot `toml:"files"`
}

// IsConflicted reports whether path is still unresolved.
func (s *MergeState) IsConflicted(path string) bool {
	for _, c := range s.Conflicts {
		if c == path {
			return true
		}
	}
	return false
}

// Package models defines the core data structures used throughout minigit
// including commits, branches, merge results and reflog entries.
package models

import (
	"sort"
	"time"
)

// NullHash is the on-disk sentinel for "no commit": an unborn branch ref or
// the parent of a root commit.
const NullHash = "null"

// Snapshot maps a worktree-relative slash path to a blob digest.
type Snapshot map[string]string

// Paths returns the snapshot's paths in sorted order
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a copy that can be modified independently.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for p, d := range s {
		out[p] = d
	}
	return out
}

// Commit represents a version control commit
type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Parents   []string  `json:"parents,omitempty"`
	Files     Snapshot  `json:"files"`
}

// ShortHash returns a shortened commit hash (first 7 characters)
func (c *Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Parent returns the first parent, or "" for a root commit.
func (c *Commit) Parent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// IsMergeCommit returns true if this commit has two parents
func (c *Commit) IsMergeCommit() bool {
	return len(c.Parents) > 1
}

package models

// Branch represents a named reference to a commit
type Branch struct {
	Name string `json:"name"`
	// CommitHash is empty when the branch has no commits yet.
	CommitHash string `json:"commit_hash"`
}

// IsUnborn reports whether the branch has no commits yet.
func (b *Branch) IsUnborn() bool {
	return b.CommitHash == ""
}

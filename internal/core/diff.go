package core

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind identifies whether a line was removed or added
type ChangeKind string

const (
	LineRemoved ChangeKind = "removed"
	LineAdded   ChangeKind = "added"
)

// LineChange is a single differing line. OldLine and NewLine are 1-based;
// only the side the line belongs to is set.
type LineChange struct {
	Kind    ChangeKind
	OldLine int
	NewLine int
	Text    string
}

// FileDiff holds the line changes for one path between two commits.
// A digest is empty when the path is absent on that side.
type FileDiff struct {
	Path      string
	OldDigest string
	NewDigest string
	Changes   []LineChange
}

// Added returns the number of added lines
func (f *FileDiff) Added() int { return f.count(LineAdded) }

// Removed returns the number of removed lines
func (f *FileDiff) Removed() int { return f.count(LineRemoved) }

func (f *FileDiff) count(kind ChangeKind) int {
	n := 0
	for _, c := range f.Changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// maxLineRune bounds how many distinct lines the Myers path can encode
const maxLineRune = utf8.MaxRune - (0xE000 - 0xD800)

// DiffBlobs compares two contents line by line. Line endings are not part
// of the comparison, so a missing final newline is not reported.
func DiffBlobs(oldContent, newContent []byte, algorithm string) ([]LineChange, error) {
	a, b := splitLines(oldContent), splitLines(newContent)

	switch algorithm {
	case config.DiffPositional:
		return diffPositional(a, b), nil
	case config.DiffMyers, "":
		return diffMyers(a, b)
	default:
		return nil, fmt.Errorf("unknown diff algorithm %q: %w", algorithm, models.ErrInvalidArgument)
	}
}

func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.Split(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// diffPositional compares lines at the same index. Every differing index
// reports the old line as removed, then the new line as added.
func diffPositional(a, b []string) []LineChange {
	var changes []LineChange
	for i := 0; i < max(len(a), len(b)); i++ {
		if i < len(a) && i < len(b) && a[i] == b[i] {
			continue
		}
		if i < len(a) {
			changes = append(changes, LineChange{Kind: LineRemoved, OldLine: i + 1, Text: a[i]})
		}
		if i < len(b) {
			changes = append(changes, LineChange{Kind: LineAdded, NewLine: i + 1, Text: b[i]})
		}
	}
	return changes
}

// diffMyers encodes every distinct line as one rune and runs
// diff-match-patch over the rune sequences.
func diffMyers(a, b []string) ([]LineChange, error) {
	var lines []string
	index := make(map[string]rune)

	encode := func(src []string) ([]rune, error) {
		out := make([]rune, len(src))
		for i, line := range src {
			r, ok := index[line]
			if !ok {
				if len(lines) >= maxLineRune {
					return nil, fmt.Errorf("too many distinct lines to diff: %w", models.ErrInvalidArgument)
				}
				r = lineRune(len(lines))
				index[line] = r
				lines = append(lines, line)
			}
			out[i] = r
		}
		return out, nil
	}

	ra, err := encode(a)
	if err != nil {
		return nil, err
	}
	rb, err := encode(b)
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	var changes []LineChange
	oldLine, newLine := 1, 1
	for _, d := range dmp.DiffMainRunes(ra, rb, false) {
		for _, r := range d.Text {
			text := lines[runeLine(r)]
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				changes = append(changes, LineChange{Kind: LineRemoved, OldLine: oldLine, Text: text})
				oldLine++
			case diffmatchpatch.DiffInsert:
				changes = append(changes, LineChange{Kind: LineAdded, NewLine: newLine, Text: text})
				newLine++
			}
		}
	}
	return changes, nil
}

// lineRune maps a line number to a valid rune, skipping the surrogate range.
func lineRune(i int) rune {
	r := rune(i)
	if r >= 0xD800 {
		r += 0xE000 - 0xD800
	}
	return r
}

func runeLine(r rune) int {
	if r >= 0xE000 {
		r -= 0xE000 - 0xD800
	}
	return int(r)
}

// DiffCommits compares the snapshots of two commits. Paths are reported in
// order; a path absent on one side diffs against empty content. Paths present on
// both sides without line changes are omitted.
func DiffCommits(ctx context.Context, cfg *config.Config, st *store.Store, oldHash, newHash, algorithm string) ([]*FileDiff, error) {
	oldCommit, err := st.GetCommit(oldHash)
	if err != nil {
		return nil, err
	}
	newCommit, err := st.GetCommit(newHash)
	if err != nil {
		return nil, err
	}
	return DiffSnapshots(ctx, cfg, st, oldCommit.Files, newCommit.Files, algorithm)
}

// DiffSnapshots compares two snapshots path by path
func DiffSnapshots(ctx context.Context, cfg *config.Config, st *store.Store, oldFiles, newFiles models.Snapshot, algorithm string) ([]*FileDiff, error) {
	if algorithm == "" {
		algorithm = cfg.Diff.Algorithm
	}

	union := oldFiles.Clone()
	for p, d := range newFiles {
		union[p] = d
	}

	var diffs []*FileDiff
	for _, path := range union.Paths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		oldDigest, newDigest := oldFiles[path], newFiles[path]
		if oldDigest == newDigest {
			continue
		}

		oldContent, err := blobOrEmpty(st, oldDigest)
		if err != nil {
			return nil, err
		}
		newContent, err := blobOrEmpty(st, newDigest)
		if err != nil {
			return nil, err
		}

		changes, err := DiffBlobs(oldContent, newContent, algorithm)
		if err != nil {
			return nil, err
		}
		// Digests can differ only by a final newline, which is not a line change.
		// Added or removed empty files are still reported.
		if len(changes) == 0 && oldDigest != "" && newDigest != "" {
			continue
		}
		diffs = append(diffs, &FileDiff{Path: path, OldDigest: oldDigest, NewDigest: newDigest, Changes: changes})
	}
	return diffs, nil
}

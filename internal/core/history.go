package core

import (
	"container/heap"
	"errors"
	"fmt"
	"iter"

	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
)

// getParent loads a parent commit, reporting a dangling reference as corrupt history.
func getParent(st *store.Store, child *models.Commit, parent string) (*models.Commit, error) {
	commit, err := st.GetCommit(parent)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("commit %s references missing parent %s: %w",
			child.ShortHash(), shortID(parent), models.ErrCorruptHistory)
	}
	return commit, err
}

// walkAncestors visits hash and all of its ancestors breadth-first, each once,
// passing the BFS depth. fn returns false to stop the walk.
func walkAncestors(st *store.Store, hash string, fn func(c *models.Commit, depth int) bool) error {
	start, err := st.GetCommit(hash)
	if err != nil {
		return err
	}

	type item struct {
		commit *models.Commit
		depth  int
	}
	visited := map[string]bool{hash: true}
	queue := []item{{start, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if !fn(cur.commit, cur.depth) {
			return nil
		}

		for _, p := range cur.commit.Parents {
			if visited[p] {
				continue
			}
			visited[p] = true

			parent, err := getParent(st, cur.commit, p)
			if err != nil {
				return err
			}
			queue = append(queue, item{parent, cur.depth + 1})
		}
	}
	return nil
}

// Ancestors lazily yields hash and every commit reachable from it, breadth-first.
func Ancestors(st *store.Store, hash string) iter.Seq2[*models.Commit, error] {
	return func(yield func(*models.Commit, error) bool) {
		err := walkAncestors(st, hash, func(c *models.Commit, _ int) bool {
			return yield(c, nil)
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// IsAncestor reports whether ancestor is reachable from descendant.
// A commit is its own ancestor.
func IsAncestor(st *store.Store, ancestor, descendant string) (bool, error) {
	found := false
	err := walkAncestors(st, descendant, func(c *models.Commit, _ int) bool {
		found = c.Hash == ancestor
		return !found
	})
	return found, err
}

// FindMergeBase returns the common ancestor of a and b with the smallest
// combined distance from both tips. Ties go to the lexically smaller hash.
// Returns "" when the histories are disjoint.
func FindMergeBase(st *store.Store, a, b string) (string, error) {
	if a == "" || b == "" {
		return "", nil
	}
	if a == b {
		return a, nil
	}

	depthA := make(map[string]int)
	if err := walkAncestors(st, a, func(c *models.Commit, d int) bool {
		depthA[c.Hash] = d
		return true
	}); err != nil {
		return "", err
	}

	best, bestDepth := "", -1
	if err := walkAncestors(st, b, func(c *models.Commit, d int) bool {
		da, ok := depthA[c.Hash]
		if !ok {
			return true
		}
		total := da + d
		if bestDepth < 0 || total < bestDepth || (total == bestDepth && c.Hash < best) {
			best, bestDepth = c.Hash, total
		}
		return true
	}); err != nil {
		return "", err
	}

	return best, nil
}

// History lazily yields the commits reachable from the tip of branch, newest
// first by timestamp. An unborn branch yields nothing.
func History(st *store.Store, branch string) iter.Seq2[*models.Commit, error] {
	return func(yield func(*models.Commit, error) bool) {
		b, err := st.GetBranch(branch)
		if err != nil {
			yield(nil, err)
			return
		}
		if b == nil {
			yield(nil, fmt.Errorf("'%s': %w", branch, models.ErrBranchNotFound))
			return
		}
		if b.IsUnborn() {
			return
		}

		for c, err := range Log(st, b.CommitHash) {
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

// Log lazily yields the commits reachable from hash, newest first by timestamp.
// A linear history is yielded in parent order.
func Log(st *store.Store, hash string) iter.Seq2[*models.Commit, error] {
	return func(yield func(*models.Commit, error) bool) {
		start, err := st.GetCommit(hash)
		if err != nil {
			yield(nil, err)
			return
		}

		seen := map[string]bool{hash: true}
		pending := &commitQueue{start}

		for pending.Len() > 0 {
			c := heap.Pop(pending).(*models.Commit)
			if !yield(c, nil) {
				return
			}

			for _, p := range c.Parents {
				if seen[p] {
					continue
				}
				seen[p] = true

				parent, err := getParent(st, c, p)
				if err != nil {
					yield(nil, err)
					return
				}
				heap.Push(pending, parent)
			}
		}
	}
}

// commitQueue is a max-heap of commits by timestamp.
type commitQueue []*models.Commit

func (q commitQueue) Len() int { return len(q) }

func (q commitQueue) Less(i, j int) bool {
	if q[i].Timestamp.Equal(q[j].Timestamp) {
		return q[i].Hash < q[j].Hash
	}
	return q[i].Timestamp.After(q[j].Timestamp)
}

func (q commitQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *commitQueue) Push(x any) { *q = append(*q, x.(*models.Commit)) }

func (q *commitQueue) Pop() any {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

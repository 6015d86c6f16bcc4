package core

import (
	"context"
	"os"
	"testing"

	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/kilupskalvis/minigit/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_SwitchBranch(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "main-a", "shared.txt": "s"})
	_, err := CreateBranch(st, "feature", "")
	require.NoError(t, err)

	checkoutBranch(t, cfg, st, "feature", CheckoutOptions{})
	featureCommit := commitFiles(t, cfg, st, "feature work", map[string]string{
		"a.txt":         "feature-a",
		"dir/extra.txt": "extra",
	})

	result := checkoutBranch(t, cfg, st, "main", CheckoutOptions{})
	assert.Equal(t, "feature", result.PreviousBranch)
	assert.Equal(t, "main", result.BranchName)
	assert.Equal(t, []string{"a.txt"}, result.Updated)
	assert.Equal(t, []string{"dir/extra.txt"}, result.Removed)

	assert.Equal(t, "main-a", readFile(t, st, "a.txt"))
	assert.Equal(t, "s", readFile(t, st, "shared.txt"))
	assert.False(t, fileExists(st, "dir/extra.txt"))
	assert.False(t, fileExists(st, "dir"))

	head, err := st.GetHEAD()
	require.NoError(t, err)
	assert.Equal(t, "main", head)

	result = checkoutBranch(t, cfg, st, "feature", CheckoutOptions{})
	assert.Equal(t, featureCommit.Hash, result.CommitHash)
	assert.Equal(t, "feature-a", readFile(t, st, "a.txt"))
	assert.Equal(t, "extra", readFile(t, st, "dir/extra.txt"))
}

func TestCheckout_CreateBranch(t *testing.T) {
	cfg, st := newTestRepo(t)
	c := commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})

	result := checkoutBranch(t, cfg, st, "feature", CheckoutOptions{CreateBranch: true})
	assert.True(t, result.BranchCreated)
	assert.Equal(t, c.Hash, result.CommitHash)
	assert.Empty(t, result.Updated)

	head, err := st.Head()
	require.NoError(t, err)
	assert.Equal(t, "feature", head.BranchName)
	assert.Equal(t, c.Hash, head.CommitHash)
}

func TestCheckout_CreateBranch_AlreadyExists(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})

	_, err := Checkout(context.Background(), cfg, st, "main", CheckoutOptions{CreateBranch: true})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestCheckout_BranchNotFound(t *testing.T) {
	cfg, st := newTestRepo(t)

	_, err := Checkout(context.Background(), cfg, st, "nope", CheckoutOptions{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCheckout_WithUncommittedChanges_Error(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	_, err := CreateBranch(st, "feature", "")
	require.NoError(t, err)

	writeFile(t, st, "a.txt", "dirty")
	_, err = Checkout(context.Background(), cfg, st, "feature", CheckoutOptions{})
	assert.ErrorIs(t, err, models.ErrUncommittedChanges)

	head, err := st.GetHEAD()
	require.NoError(t, err)
	assert.Equal(t, "main", head)
	assert.Equal(t, "dirty", readFile(t, st, "a.txt"))
}

func TestCheckout_WithStagedChanges_Error(t *testing.T) {
	cfg, st := newTestRepo(t)
	ctx := context.Background()
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	_, err := CreateBranch(st, "feature", "")
	require.NoError(t, err)

	writeFile(t, st, "new.txt", "n")
	_, err = Stage(ctx, cfg, st, "new.txt")
	require.NoError(t, err)

	_, err = Checkout(ctx, cfg, st, "feature", CheckoutOptions{})
	assert.ErrorIs(t, err, models.ErrUncommittedChanges)
}

func TestCheckout_WithUncommittedChanges_Force(t *testing.T) {
	cfg, st := newTestRepo(t)
	ctx := context.Background()
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	_, err := CreateBranch(st, "feature", "")
	require.NoError(t, err)

	writeFile(t, st, "a.txt", "dirty")
	writeFile(t, st, "new.txt", "n")
	_, err = Stage(ctx, cfg, st, "new.txt")
	require.NoError(t, err)

	result := checkoutBranch(t, cfg, st, "feature", CheckoutOptions{Force: true})
	assert.Equal(t, []string{"a.txt"}, result.Updated)
	assert.Equal(t, "a", readFile(t, st, "a.txt"))

	staged, err := st.StagedPaths()
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestCheckout_UnbornTarget(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	require.NoError(t, st.CreateBranch("empty", ""))

	result := checkoutBranch(t, cfg, st, "empty", CheckoutOptions{})
	assert.Empty(t, result.CommitHash)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, "a", readFile(t, st, "a.txt"))

	head, err := st.Head()
	require.NoError(t, err)
	assert.Equal(t, "empty", head.BranchName)
	assert.Empty(t, head.CommitHash)
}

func TestCheckout_MergeInProgress(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	require.NoError(t, st.SetMergeState(&models.MergeState{Branch: "feature", Head: fakeHash("1")}))

	_, err := Checkout(context.Background(), cfg, st, "main", CheckoutOptions{Force: true})
	assert.ErrorIs(t, err, models.ErrMergeInProgress)
}

func TestCheckout_RecordsRefLog(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	checkoutBranch(t, cfg, st, "feature", CheckoutOptions{CreateBranch: true})
	checkoutBranch(t, cfg, st, "main", CheckoutOptions{})

	entries, err := st.ReadRefLog(store.HeadFile, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "feature", entries[0].Old)
	assert.Equal(t, "main", entries[0].New)
	assert.Equal(t, "main", entries[1].Old)
	assert.Equal(t, "feature", entries[1].New)
}

func TestCheckout_RestoresMissingFile(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	_, err := CreateBranch(st, "feature", "")
	require.NoError(t, err)
	require.NoError(t, removeWorkFile(st, "a.txt"))

	result := checkoutBranch(t, cfg, st, "feature", CheckoutOptions{Force: true})
	assert.Equal(t, []string{"a.txt"}, result.Updated)
	assert.Equal(t, "a", readFile(t, st, "a.txt"))
}

func TestCheckout_UntrackedFileWouldBeOverwritten(t *testing.T) {
	cfg, st := newTestRepo(t)
	ctx := context.Background()
	c := commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	checkoutBranch(t, cfg, st, "feature", CheckoutOptions{CreateBranch: true})
	commitFiles(t, cfg, st, "add new", map[string]string{"new.txt": "from feature"})
	checkoutBranch(t, cfg, st, "main", CheckoutOptions{})
	require.False(t, fileExists(st, "new.txt"))

	writeFile(t, st, "new.txt", "precious untracked work")

	_, err := Checkout(ctx, cfg, st, "feature", CheckoutOptions{})
	assert.ErrorIs(t, err, models.ErrUncommittedChanges)
	assert.Contains(t, err.Error(), "new.txt")
	assert.Equal(t, "precious untracked work", readFile(t, st, "new.txt"))

	head, err := st.Head()
	require.NoError(t, err)
	assert.Equal(t, "main", head.BranchName)
	assert.Equal(t, c.Hash, head.CommitHash)

	// Force discards it
	checkoutBranch(t, cfg, st, "feature", CheckoutOptions{Force: true})
	assert.Equal(t, "from feature", readFile(t, st, "new.txt"))
}

func TestCheckout_UntrackedFileWithSameContent(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})
	checkoutBranch(t, cfg, st, "feature", CheckoutOptions{CreateBranch: true})
	commitFiles(t, cfg, st, "add new", map[string]string{"new.txt": "same"})
	checkoutBranch(t, cfg, st, "main", CheckoutOptions{})

	writeFile(t, st, "new.txt", "same")
	result := checkoutBranch(t, cfg, st, "feature", CheckoutOptions{})
	assert.Empty(t, result.Updated)
}

func TestCheckout_CreateBranchRemovedOnFailure(t *testing.T) {
	cfg, st := newTestRepo(t)
	commitFiles(t, cfg, st, "first", map[string]string{"a.txt": "a"})

	// A directory where a tracked file should be cannot be hashed
	require.NoError(t, removeWorkFile(st, "a.txt"))
	require.NoError(t, os.Mkdir(workPath(st, "a.txt"), 0755))

	_, err := Checkout(context.Background(), cfg, st, "topic", CheckoutOptions{CreateBranch: true, Force: true})
	require.Error(t, err)

	exists, err := st.BranchExists("topic")
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := st.ReadRefLog(store.RefName("topic"), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	head, err := st.GetHEAD()
	require.NoError(t, err)
	assert.Equal(t, "main", head)
}

package store

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates an initialized store in a temp directory for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := filepath.Join(t.TempDir(), ".minigit")
	st, err := New(root, nil)
	require.NoError(t, err)
	require.NoError(t, st.Initialize("main"))
	t.Cleanup(func() { st.Close() })
	return st
}

func testHash(n int) string {
	return models.HashContent([]byte(fmt.Sprintf("commit-%d", n)))
}

// ==================== Store Tests ====================

func TestStore_Initialize(t *testing.T) {
	st := newTestStore(t)

	for _, dir := range []string{ObjectsDir, RefsDir, CommitsDir} {
		info, err := os.Stat(filepath.Join(st.Root(), dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	head, err := os.ReadFile(filepath.Join(st.Root(), HeadFile))
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/main\n", string(head))

	ref, err := os.ReadFile(filepath.Join(st.Root(), RefsDir, "main"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(ref))

	state, err := st.Head()
	require.NoError(t, err)
	assert.Equal(t, "main", state.BranchName)
	assert.Empty(t, state.CommitHash)
}

// ==================== Object Tests ====================

func TestStore_PutBlobIdempotent(t *testing.T) {
	st := newTestStore(t)

	d1, err := st.PutBlob([]byte("hello"))
	require.NoError(t, err)
	d2, err := st.PutBlob([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	count, err := st.CountBlobs()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := st.GetBlob(d1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestStore_PutBlobEmptyContent(t *testing.T) {
	st := newTestStore(t)

	d, err := st.PutBlob(nil)
	require.NoError(t, err)

	got, err := st.GetBlob(d)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_GetBlobNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetBlob(models.HashContent([]byte("never stored")))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = st.GetBlob("../HEAD")
	assert.ErrorIs(t, err, models.ErrNotFound)

	has, err := st.HasBlob("nonexistent")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_BlobCorpusNoCollisions(t *testing.T) {
	st := newTestStore(t)
	rng := rand.New(rand.NewSource(42))

	seen := make(map[string][]byte)
	for i := 0; i < 500; i++ {
		content := make([]byte, rng.Intn(64))
		rng.Read(content)
		content = append(content, []byte(fmt.Sprintf("#%d", i))...)

		digest, err := st.PutBlob(content)
		require.NoError(t, err)

		if prev, ok := seen[digest]; ok {
			require.Equal(t, prev, content, "digest collision for %s", digest)
		}
		seen[digest] = content
	}

	count, err := st.CountBlobs()
	require.NoError(t, err)
	assert.Equal(t, len(seen), count)

	for digest, content := range seen {
		got, err := st.GetBlob(digest)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	}
}

// ==================== Ref Tests ====================

func TestStore_CreateAndGetBranch(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.CreateBranch("feature", testHash(1)))

	branch, err := st.GetBranch("feature")
	require.NoError(t, err)
	require.NotNil(t, branch)
	assert.Equal(t, testHash(1), branch.CommitHash)

	err = st.CreateBranch("feature", testHash(2))
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	missing, err := st.GetBranch("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_UpdateAndDeleteBranch(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.UpdateBranch("main", testHash(1)))
	branch, err := st.GetBranch("main")
	require.NoError(t, err)
	assert.Equal(t, testHash(1), branch.CommitHash)

	err = st.UpdateBranch("ghost", testHash(1))
	assert.ErrorIs(t, err, models.ErrBranchNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, st.CreateBranch("tmp", ""))
	require.NoError(t, st.DeleteBranch("tmp"))
	exists, err := st.BranchExists("tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_ListBranchesSorted(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateBranch("zeta", ""))
	require.NoError(t, st.CreateBranch("alpha", ""))

	branches, err := st.ListBranches()
	require.NoError(t, err)

	var names []string
	for _, b := range branches {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"alpha", "main", "zeta"}, names)
}

func TestValidateBranchName(t *testing.T) {
	for _, name := range []string{"", "HEAD", "-x", ".hidden", "a/b", `a\b`, "a..b", "has space"} {
		assert.ErrorIs(t, ValidateBranchName(name), models.ErrInvalidArgument, name)
	}
	for _, name := range []string{"main", "feature-1", "fix_2", "v1.0"} {
		assert.NoError(t, ValidateBranchName(name), name)
	}
}

func TestStore_SetHEAD(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateBranch("dev", ""))
	require.NoError(t, st.SetHEAD("dev"))

	name, err := st.GetHEAD()
	require.NoError(t, err)
	assert.Equal(t, "dev", name)
}

// ==================== Index Tests ====================

func TestStore_IndexSetSemantics(t *testing.T) {
	st := newTestStore(t)

	added, err := st.AddToIndex("b.txt")
	require.NoError(t, err)
	assert.True(t, added)
	_, err = st.AddToIndex("a.txt")
	require.NoError(t, err)
	added, err = st.AddToIndex("b.txt")
	require.NoError(t, err)
	assert.False(t, added)

	paths, err := st.StagedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "a.txt"}, paths)
}

func TestStore_IndexPersistsAcrossReopen(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".minigit")
	st, err := New(root, nil)
	require.NoError(t, err)
	require.NoError(t, st.Initialize("main"))
	_, err = st.AddToIndex("one")
	require.NoError(t, err)
	_, err = st.AddToIndex("two")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := New(root, nil)
	require.NoError(t, err)
	defer reopened.Close()

	paths, err := reopened.StagedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, paths)
}

func TestStore_IndexEntriesRestartable(t *testing.T) {
	st := newTestStore(t)
	_, _ = st.AddToIndex("x")
	_, _ = st.AddToIndex("y")

	seq := st.IndexEntries()
	collect := func() []string {
		var out []string
		for p, err := range seq {
			require.NoError(t, err)
			out = append(out, p)
		}
		return out
	}
	assert.Equal(t, []string{"x", "y"}, collect())

	_, _ = st.AddToIndex("z")
	assert.Equal(t, []string{"x", "y", "z"}, collect())
}

func TestStore_RemoveAndClearIndex(t *testing.T) {
	st := newTestStore(t)
	_, _ = st.AddToIndex("x")
	_, _ = st.AddToIndex("y")

	removed, err := st.RemoveFromIndex("x")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = st.RemoveFromIndex("x")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, st.ClearIndex())
	paths, err := st.StagedPaths()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

// ==================== Commit Tests ====================

func TestStore_CreateAndGetCommit(t *testing.T) {
	st := newTestStore(t)

	commit := &models.Commit{
		Hash:      testHash(1),
		Message:   "Initial commit",
		Timestamp: time.Date(2026, 10, 14, 9, 30, 0, 123456789, time.UTC),
		Files:     models.Snapshot{"b.txt": testHash(3), "a dir/a.txt": testHash(2)},
	}
	require.NoError(t, st.CreateCommit(commit))

	got, err := st.GetCommit(commit.Hash)
	require.NoError(t, err)
	assert.Equal(t, commit.Message, got.Message)
	assert.True(t, commit.Timestamp.Equal(got.Timestamp))
	assert.Empty(t, got.Parents)
	assert.Equal(t, commit.Files, got.Files)

	again, err := st.GetCommit(commit.Hash)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestStore_CreateCommitImmutable(t *testing.T) {
	st := newTestStore(t)
	ts := time.Now().UTC()

	require.NoError(t, st.CreateCommit(&models.Commit{Hash: testHash(1), Message: "first", Timestamp: ts}))
	require.NoError(t, st.CreateCommit(&models.Commit{Hash: testHash(1), Message: "rewritten", Timestamp: ts}))

	got, err := st.GetCommit(testHash(1))
	require.NoError(t, err)
	assert.Equal(t, "first", got.Message)
}

func TestStore_GetCommitNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetCommit(testHash(9))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = st.GetCommit("short")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEncodeCommit_Format(t *testing.T) {
	c := &models.Commit{
		Message:   "merge it",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Parents:   []string{"p1", "p2"},
		Files:     models.Snapshot{"z.txt": "d2", "a.txt": "d1"},
	}

	want := "message: merge it\n" +
		"timestamp: 2026-01-02T03:04:05Z\n" +
		"parent: p1\n" +
		"parent: p2\n" +
		"files:\n" +
		" a.txt -> d1\n" +
		" z.txt -> d2\n"
	assert.Equal(t, want, string(EncodeCommit(c)))

	root := &models.Commit{Message: "root", Timestamp: c.Timestamp}
	assert.Contains(t, string(EncodeCommit(root)), "parent: null\n")
}

func TestDecodeCommit_RoundTripParents(t *testing.T) {
	c := &models.Commit{
		Message:   "two parents",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
		Parents:   []string{testHash(1), testHash(2)},
		Files:     models.Snapshot{"f": testHash(3)},
	}

	got, err := DecodeCommit("h", EncodeCommit(c))
	require.NoError(t, err)
	assert.Equal(t, c.Parents, got.Parents)
	assert.Equal(t, c.Files, got.Files)
}

func TestDecodeCommit_Malformed(t *testing.T) {
	tests := map[string]string{
		"no timestamp":  "message: x\nparent: null\nfiles:\n",
		"bad timestamp": "message: x\ntimestamp: yesterday\nfiles:\n",
		"bad entry":     "message: x\ntimestamp: 2026-01-02T03:04:05Z\nfiles:\n a.txt\n",
		"junk":          "message: x\ntimestamp: 2026-01-02T03:04:05Z\nwhat\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCommit("h", []byte(body))
			assert.ErrorIs(t, err, models.ErrCorruptHistory)
		})
	}
}

func TestStore_FindCommitsByPrefix(t *testing.T) {
	st := newTestStore(t)
	hashes := []string{testHash(1), testHash(2), testHash(3)}
	for _, h := range hashes {
		require.NoError(t, st.CreateCommit(&models.Commit{Hash: h, Message: "m", Timestamp: time.Now().UTC()}))
	}

	all, err := st.FindCommitsByPrefix("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := st.FindCommitsByPrefix(hashes[1][:10])
	require.NoError(t, err)
	assert.Equal(t, []string{hashes[1]}, got)
}

// ==================== Merge State Tests ====================

func TestStore_MergeState(t *testing.T) {
	st := newTestStore(t)

	state, err := st.GetMergeState()
	require.NoError(t, err)
	assert.Nil(t, state)

	want := &models.MergeState{Branch: "feature", Head: testHash(1), Message: "Merge", Conflicts: []string{"a.txt"},
		Files: models.Snapshot{"a.txt": models.HashContent([]byte("ours")), "dir/b.txt": models.HashContent([]byte("b"))}}
	require.NoError(t, st.SetMergeState(want))

	state, err = st.GetMergeState()
	require.NoError(t, err)
	assert.Equal(t, want, state)

	require.NoError(t, st.ClearMergeState())
	require.NoError(t, st.ClearMergeState())
	state, err = st.GetMergeState()
	require.NoError(t, err)
	assert.Nil(t, state)
}

// ==================== RefLog Tests ====================

func TestStore_RefLogNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ref := RefName("main")

	for i := 1; i <= 3; i++ {
		require.NoError(t, st.AppendRefLog(&models.RefLogEntry{
			Ref: ref, Old: testHash(i - 1), New: testHash(i), Action: models.RefActionCommit,
			Message: fmt.Sprintf("c%d", i),
		}))
	}

	entries, err := st.ReadRefLog(ref, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c3", entries[0].Message)
	assert.Equal(t, "c1", entries[2].Message)
	assert.Greater(t, entries[0].Seq, entries[1].Seq)
	assert.False(t, entries[0].Time.IsZero())

	limited, err := st.ReadRefLog(ref, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, st.DeleteRefLog(ref))
	entries, err = st.ReadRefLog(ref, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_InitializeRecordsHeadRefLog(t *testing.T) {
	st := newTestStore(t)

	entries, err := st.ReadRefLog(HeadFile, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.RefActionInit, entries[0].Action)
	assert.Equal(t, "main", entries[0].New)
}

// ==================== Lock Tests ====================

func TestStore_LockExclusive(t *testing.T) {
	st := newTestStore(t)

	release, err := st.Lock()
	require.NoError(t, err)

	_, err = st.Lock()
	assert.ErrorIs(t, err, models.ErrLocked)

	require.NoError(t, release())
	_, err = os.Stat(filepath.Join(st.Root(), LockFile))
	assert.True(t, os.IsNotExist(err))

	release, err = st.Lock()
	require.NoError(t, err)
	require.NoError(t, release())
}

func TestStore_WithLockReleasesOnError(t *testing.T) {
	st := newTestStore(t)
	boom := fmt.Errorf("boom")

	err := st.WithLock(func() error { return boom })
	assert.ErrorIs(t, err, boom)

	err = st.WithLock(func() error { return nil })
	assert.NoError(t, err)
}

func TestStore_LockReleaseDetectsStolenLock(t *testing.T) {
	st := newTestStore(t)

	release, err := st.Lock()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(st.Root(), LockFile), []byte("someone-else 1\n"), 0644))

	assert.ErrorIs(t, release(), models.ErrLocked)
}

func TestStore_LockRemovesStaleHolder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process probing is unix only")
	}
	st := newTestStore(t)
	path := filepath.Join(st.Root(), LockFile)

	// Above any pid_max, so no such process exists
	require.NoError(t, os.WriteFile(path, []byte("deadbeef 1073741824\n"), 0644))

	release, err := st.Lock()
	require.NoError(t, err)
	require.NoError(t, release())
}

func TestStore_LockKeepsLiveHolder(t *testing.T) {
	st := newTestStore(t)
	path := filepath.Join(st.Root(), LockFile)

	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("other %d\n", os.Getpid())), 0644))
	_, err := st.Lock()
	assert.ErrorIs(t, err, models.ErrLocked)
	assert.Contains(t, err.Error(), "remove it if no minigit command is running")

	// A holder without a pid cannot be judged stale
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0644))
	_, err = st.Lock()
	assert.ErrorIs(t, err, models.ErrLocked)
}

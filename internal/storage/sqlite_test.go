package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"typin/internal/inferencer"
	"typin/internal/record"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSnapshot() *inferencer.Snapshot {
	return &inferencer.Snapshot{
		Events: 7,
		Counts: map[string]int{"call": 3, "return": 3, "exception": 1},
		Files: []inferencer.FileSnapshot{
			{
				Path:  "/src/a.py",
				Stubs: "class K:\n    def m(self) -> int: ...\ndef f(i: int) -> str: ...",
				Units: []inferencer.UnitSnapshot{
					{
						Namespace:  "K",
						Name:       "m",
						Stub:       "def m(self) -> int: ...",
						Signature:  "(self)",
						Arguments:  []record.NamedTypes{{Name: "self", Types: []string{"a.K"}}},
						Returns:    map[int][]string{4: {"int"}},
						EntryLines: []int{3},
					},
					{
						Name:       "f",
						Stub:       "def f(i: int) -> str: ...",
						Arguments:  []record.NamedTypes{{Name: "i", Types: []string{"int"}}},
						Returns:    map[int][]string{9: {"str"}},
						Exceptions: map[int][]string{8: {"ValueError"}},
						EntryLines: []int{7},
					},
				},
			},
			{Path: "/src/b.py", Stubs: ""},
		},
	}
}

func TestSQLiteStore_SaveLoadRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	snap := testSnapshot()
	id, err := store.SaveRun(ctx, snap)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	loaded, err := store.LoadRun(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, loaded); diff != "" {
		t.Errorf("LoadRun() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_RunsAreIndependent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, testSnapshot())
	require.NoError(t, err)
	second, err := store.SaveRun(ctx, &inferencer.Snapshot{Events: 1, Counts: map[string]int{"call": 1}})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	loaded, err := store.LoadRun(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, loaded.Files)
	assert.Equal(t, uint64(1), loaded.Events)

	loaded, err = store.LoadRun(ctx, first)
	require.NoError(t, err)
	require.Len(t, loaded.Files, 2)
	assert.Len(t, loaded.Files[0].Units, 2)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	older, err := store.SaveRun(ctx, testSnapshot())
	require.NoError(t, err)
	newer, err := store.SaveRun(ctx, &inferencer.Snapshot{Events: 2})
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, Run{ID: newer, CreatedAt: base.Add(2 * time.Minute), Events: 2, Files: 0}, runs[0])
	assert.Equal(t, Run{ID: older, CreatedAt: base.Add(time.Minute), Events: 7, Files: 2}, runs[1])
}

func TestSQLiteStore_Errors(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.LoadRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = store.SaveRun(ctx, nil)
	assert.Error(t, err)
}

func TestSQLiteStore_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	id, err := store.SaveRun(ctx, testSnapshot())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	loaded, err := store.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "/src/a.py", loaded.Files[0].Path)
}

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(id string, ts time.Time) review.StoreRun {
	return review.StoreRun{
		RunID:          id,
		Timestamp:      ts,
		Repository:     "acme/widgets",
		PRNumber:       42,
		CommitSHA:      "abc123",
		Model:          "gpt-4o",
		FilesReviewed:  3,
		FilesSkipped:   1,
		CommentsPosted: 2,
		TokensIn:       900,
		TokensOut:      300,
		TotalCost:      0.012,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", ts)))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "acme/widgets", run.Repository)
	assert.Equal(t, 42, run.PRNumber)
	assert.Equal(t, "gpt-4o", run.Model)
	assert.Equal(t, 3, run.FilesReviewed)
	assert.Equal(t, ts, run.Timestamp)
	assert.InDelta(t, 0.012, run.TotalCost, 1e-9)
}

func TestGetRun_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListRuns_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-old", base)))
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-new", base.Add(time.Hour))))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].RunID)
	assert.Equal(t, "run-old", runs[1].RunID)
}

func TestListRuns_Limit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		run := sampleRun(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.SaveRun(ctx, run))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSaveAndGetSuggestions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", time.Now())))

	suggestions := []review.StoreSuggestion{
		{SuggestionID: "s2", RunID: "run-1", File: "b.go", Line: 9, Severity: "low", Comment: "nit", Posted: false},
		{SuggestionID: "s1", RunID: "run-1", File: "a.go", Line: 3, Severity: "high", Category: "bug", Comment: "fix", Posted: true},
	}
	require.NoError(t, store.SaveSuggestions(ctx, "run-1", suggestions))

	got, err := store.GetSuggestionsByRun(ctx, "run-1")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "a.go", got[0].File)
	assert.True(t, got[0].Posted)
	assert.Equal(t, "b.go", got[1].File)
	assert.False(t, got[1].Posted)
}

func TestSaveSuggestions_EmptyIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.SaveSuggestions(context.Background(), "run-x", nil))
}

func TestSaveSuggestions_UnknownRunFails(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveSuggestions(context.Background(), "missing", []review.StoreSuggestion{
		{SuggestionID: "s1", RunID: "missing", File: "a.go", Line: 1, Severity: "low", Comment: "c"},
	})
	assert.Error(t, err)
}

func TestNewStore_CreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "history.db")

	store, err := sqlite.NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveRun(context.Background(), sampleRun("run-1", time.Now())))
}

package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_RecordAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := Record{
		Tab:        "2026-01-15-ceo-articles",
		Key:        "http://x",
		Changes:    []string{"sentiment: negative → positive", "marked sentiment_edited"},
		MarkEdited: true,
		AppliedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.Record(ctx, rec))

	got, err := st.List(ctx, Filter{Tab: "2026-01-15-ceo-articles"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID, "missing id is filled in")
	assert.Equal(t, rec.Key, got[0].Key)
	assert.Equal(t, rec.Changes, got[0].Changes)
	assert.True(t, got[0].MarkEdited)
}

func TestSQLite_ListFiltersByTab(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Record(ctx, Record{Tab: "ceo", Key: "a", Changes: []string{"x"}}))
	require.NoError(t, st.Record(ctx, Record{Tab: "brand", Key: "b", Changes: []string{"y"}}))

	got, err := st.List(ctx, Filter{Tab: "brand"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Key)

	all, err := st.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_ListOrderAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.Record(ctx, Record{
			Tab:       "ceo",
			Key:       string(rune('a' + i)),
			Changes:   []string{"x"},
			AppliedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := st.List(ctx, Filter{Tab: "ceo", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Key, "newest first")
	assert.Equal(t, "b", got[1].Key)
}

func TestSQLite_ListEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.List(context.Background(), Filter{Tab: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

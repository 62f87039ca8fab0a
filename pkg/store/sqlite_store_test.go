package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "db", "stories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SaveThenLoad(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	assert.Empty(t, s.Load(ctx, "knight"))

	require.NoError(t, s.Save(ctx, "knight", samplePanels()))
	assert.Equal(t, samplePanels(), s.Load(ctx, "knight"))

	require.NoError(t, s.Save(ctx, "knight", samplePanels()[:1]))
	assert.Len(t, s.Load(ctx, "knight"), 1)
}

func TestSQLiteStore_CorruptRowIsEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, sqliteUpsert, "broken", `{"not": "a list"}`, 0)
	require.NoError(t, err)

	assert.Empty(t, s.Load(ctx, "broken"))
}

func TestSQLiteStore_ListStoryIDs(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "zeta", samplePanels()))
	require.NoError(t, s.Save(ctx, "alpha", samplePanels()))
	require.NoError(t, s.Save(ctx, "alpha", samplePanels()))

	ids, err := s.ListStoryIDs(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, ids)
}

func TestOpen_SQLiteBackend(t *testing.T) {
	st, err := Open(context.Background(), BackendSQLite, "", filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer st.Close()

	ids, err := st.ListStoryIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

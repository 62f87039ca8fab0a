package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-comicflow/pkg/domain"
)

func strPtr(s string) *string { return &s }

func samplePanels() domain.Panels {
	return domain.Panels{
		{
			PanelNumber:    1,
			UserInput:      "A knight wakes up",
			AINarration:    "Dawn breaks over the castle.",
			AIDialogue:     strPtr("KNIGHT: Another day."),
			AIVisualPrompt: "a knight stretching at sunrise",
			ImageURL:       "/static/panels/panel_0123.png",
		},
		{
			PanelNumber:    2,
			UserInput:      "A dragon appears",
			AINarration:    "A shadow covers the sun.",
			AIVisualPrompt: "a dragon over the castle",
			AISoundEffect:  strPtr("ROAR!"),
			ImageURL:       "/static/panels/panel_4567.png",
		},
	}
}

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	return s, dir
}

func TestFileStore_LoadMissingStoryIsEmpty(t *testing.T) {
	s, _ := newTestFileStore(t)

	got := s.Load(context.Background(), "nothing-here")

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	s, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "knight", samplePanels()))

	assert.Equal(t, samplePanels(), s.Load(ctx, "knight"))
	assert.Equal(t, s.Load(ctx, "knight"), s.Load(ctx, "knight"))
	assert.FileExists(t, filepath.Join(dir, "knight.json"))

	// 一時ファイルが残っていないこと
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_WritesIndentedJSONWithNulls(t *testing.T) {
	s, dir := newTestFileStore(t)

	require.NoError(t, s.Save(context.Background(), "knight", samplePanels()[:1]))

	data, err := os.ReadFile(filepath.Join(dir, "knight.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"panel_number\": 1,")
	assert.Contains(t, string(data), `"ai_sound_effect": null`)
}

func TestFileStore_CorruptFileIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{{{ definitely broken"},
		{name: "object instead of array", content: `{"panel_number": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newTestFileStore(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(tt.content), 0o644))

			assert.Empty(t, s.Load(context.Background(), "broken"))
		})
	}
}

func TestFileStore_SaveReplacesWholeSequence(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "knight", samplePanels()))
	require.NoError(t, s.Save(ctx, "knight", samplePanels()[:1]))

	assert.Len(t, s.Load(ctx, "knight"), 1)
}

func TestFileStore_SaveRejectsInvalidID(t *testing.T) {
	s, _ := newTestFileStore(t)

	err := s.Save(context.Background(), "../escape", samplePanels())

	assert.ErrorIs(t, err, domain.ErrInvalidStoryID)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
}

func TestFileStore_ListStoryIDs(t *testing.T) {
	s, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "zeta", samplePanels()))
	require.NoError(t, s.Save(ctx, "alpha", samplePanels()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".alpha-123.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	ids, err := s.ListStoryIDs(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, ids)
}

func TestFileStore_ListStoryIDsFailsWhenDirectoryIsGone(t *testing.T) {
	s, dir := newTestFileStore(t)
	require.NoError(t, os.RemoveAll(dir))

	_, err := s.ListStoryIDs(context.Background())

	assert.Error(t, err)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "redis", t.TempDir(), "")
	assert.Error(t, err)
}

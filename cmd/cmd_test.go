package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-comicflow/pkg/domain"
	"github.com/shouni/go-comicflow/pkg/runner"
	"github.com/shouni/go-comicflow/pkg/store"
)

// setupWorkspace は保存先を一時ディレクトリに向け、API キーを外します。
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("COMICFLOW_STORY_DIR", filepath.Join(dir, "stories"))
	t.Setenv("COMICFLOW_IMAGE_DIR", filepath.Join(dir, "panels"))
	t.Setenv("COMICFLOW_STORE", store.BackendFile)
	t.Setenv("GEMINI_API_KEY", "")
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	return dir
}

func seedStory(t *testing.T, dir, id string) {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(dir, "stories"))
	require.NoError(t, err)
	dialogue := "CAT: Adventure awaits!"
	require.NoError(t, st.Save(context.Background(), id, domain.Panels{{
		PanelNumber:    1,
		UserInput:      "A cat leaves home",
		AINarration:    "The cat steps outside.",
		AIDialogue:     &dialogue,
		AIVisualPrompt: "a cat at a doorway",
		ImageURL:       "/static/panels/panel_0123456789abcdef0123456789abcdef.png",
	}}))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	opts = appOptions{}
	panelStoryID, panelInput = "", ""
	suggestStoryID = ""
	exportStoryID, exportOutput = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStoriesCommand(t *testing.T) {
	dir := setupWorkspace(t)

	out, err := run(t, "stories")
	require.NoError(t, err)
	assert.Contains(t, out, "ストーリーはまだ無いのだ")

	seedStory(t, dir, "demo")
	out, err = run(t, "stories")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "1 stories")
}

func TestExportCommand(t *testing.T) {
	dir := setupWorkspace(t)
	seedStory(t, dir, "demo")

	out, err := run(t, "export", "--story", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "# demo")
	assert.Contains(t, out, "**Dialogue:** CAT: Adventure awaits!")

	target := filepath.Join(dir, "out", "demo.md")
	_, err = run(t, "export", "--story", "demo", "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "> The cat steps outside.")

	_, err = run(t, "export", "--story", "ghost")
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}

func TestSuggestCommand_EmptyStoryWithoutAPIKey(t *testing.T) {
	setupWorkspace(t)

	out, err := run(t, "suggest", "--story", "blank")

	require.NoError(t, err)
	assert.Contains(t, out, runner.EmptyStoryMessage)
}

func TestPanelCommand_RequiresAPIKey(t *testing.T) {
	setupWorkspace(t)

	_, err := run(t, "panel", "--story", "demo", "--input", "A cat explores")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestPanelCommand_RejectsBlankInput(t *testing.T) {
	setupWorkspace(t)

	_, err := run(t, "panel", "--story", "demo", "--input", "   ")

	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestConfigFlagOverridesStore(t *testing.T) {
	setupWorkspace(t)

	_, err := run(t, "--store", "redis", "stories")

	assert.Error(t, err)
	assert.Equal(t, "redis", cfg.StoreBackend)
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStoryID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "simple", id: "demo"},
		{name: "mixed", id: "My_Story-01"},
		{name: "max length", id: strings.Repeat("a", MaxStoryIDLength)},
		{name: "empty", id: "", wantErr: true},
		{name: "too long", id: strings.Repeat("a", MaxStoryIDLength+1), wantErr: true},
		{name: "space", id: "my story", wantErr: true},
		{name: "path traversal", id: "../etc", wantErr: true},
		{name: "dot", id: "story.json", wantErr: true},
		{name: "non ascii", id: "物語", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStoryID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStoryID)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStory_Exists(t *testing.T) {
	assert.False(t, Story{ID: "a"}.Exists())
	assert.True(t, Story{ID: "a", Panels: Panels{{PanelNumber: 1}}}.Exists())
}

func TestPanels_Numbering(t *testing.T) {
	var ps Panels
	assert.Equal(t, 1, ps.NextNumber())
	assert.True(t, ps.IsContiguous())

	ps = append(ps, Panel{PanelNumber: 1}, Panel{PanelNumber: 2})
	assert.Equal(t, 3, ps.NextNumber())
	assert.True(t, ps.IsContiguous())

	ps = append(ps, Panel{PanelNumber: 5})
	assert.False(t, ps.IsContiguous())
}

func TestIsNoneLiteral(t *testing.T) {
	for _, s := range []string{"None", "none", " NONE ", "nOnE"} {
		assert.True(t, IsNoneLiteral(s), s)
	}
	for _, s := range []string{"", "KAPOW!", "nonexistent", "no one"} {
		assert.False(t, IsNoneLiteral(s), s)
	}
}

func TestPanel_DisplayTexts(t *testing.T) {
	none := "None"
	line := "HERO: Let's go!"
	sfx := "BOOM!"

	assert.Equal(t, "", Panel{}.DialogueText())
	assert.Equal(t, "", Panel{AIDialogue: &none}.DialogueText())
	assert.Equal(t, line, Panel{AIDialogue: &line}.DialogueText())
	assert.Equal(t, "", Panel{AISoundEffect: &none}.SoundEffectText())
	assert.Equal(t, sfx, Panel{AISoundEffect: &sfx}.SoundEffectText())
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("outer: %w", NewError(KindRendering, "render", base))

	assert.Equal(t, KindRendering, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, KindUnknown, KindOf(base))
	assert.Equal(t, "render failed (rendering): boom", NewError(KindRendering, "render", base).Error())
}

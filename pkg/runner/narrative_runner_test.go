package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-comicflow/pkg/domain"
)

const validReply = `{
  "ai_narration": "The alley falls silent.",
  "ai_dialogue": "CAT: Is anyone there?",
  "ai_visual_prompt": "a black cat in a rainy alley at night, neon reflections",
  "ai_sound_effect": "DRIP!"
}`

func TestParseNarrative(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      *domain.NarrativeElements
		wantErrIs error
	}{
		{
			name: "plain json",
			raw:  validReply,
			want: &domain.NarrativeElements{
				Narration:    "The alley falls silent.",
				Dialogue:     strPtr("CAT: Is anyone there?"),
				VisualPrompt: "a black cat in a rainy alley at night, neon reflections",
				SoundEffect:  strPtr("DRIP!"),
			},
		},
		{
			name: "fenced json with chatter",
			raw:  "Sure! Here is the panel:\n```json\n" + validReply + "\n```\nEnjoy!",
			want: &domain.NarrativeElements{
				Narration:    "The alley falls silent.",
				Dialogue:     strPtr("CAT: Is anyone there?"),
				VisualPrompt: "a black cat in a rainy alley at night, neon reflections",
				SoundEffect:  strPtr("DRIP!"),
			},
		},
		{
			name: "nulls and sound effect None",
			raw:  `{"ai_narration": "n", "ai_dialogue": null, "ai_visual_prompt": "v", "ai_sound_effect": "None"}`,
			want: &domain.NarrativeElements{Narration: "n", VisualPrompt: "v"},
		},
		{
			name: "dialogue None is kept verbatim",
			raw:  `{"ai_narration": "n", "ai_dialogue": "None", "ai_visual_prompt": "v", "ai_sound_effect": null}`,
			want: &domain.NarrativeElements{Narration: "n", Dialogue: strPtr("None"), VisualPrompt: "v"},
		},
		{
			name:      "missing key",
			raw:       `{"ai_narration": "n", "ai_dialogue": null, "ai_visual_prompt": "v"}`,
			wantErrIs: ErrMissingFields,
		},
		{
			name:      "non string dialogue",
			raw:       `{"ai_narration": "n", "ai_dialogue": 42, "ai_visual_prompt": "v", "ai_sound_effect": null}`,
			wantErrIs: ErrInvalidField,
		},
		{
			name:      "null narration",
			raw:       `{"ai_narration": null, "ai_dialogue": null, "ai_visual_prompt": "v", "ai_sound_effect": null}`,
			wantErrIs: ErrInvalidField,
		},
		{
			name:      "empty visual prompt",
			raw:       `{"ai_narration": "n", "ai_dialogue": null, "ai_visual_prompt": "  ", "ai_sound_effect": null}`,
			wantErrIs: ErrInvalidField,
		},
		{
			name: "not json",
			raw:  "I'm sorry, I can't help with that.",
		},
		{
			name: "json array",
			raw:  `[1, 2, 3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNarrative(tt.raw)
			if tt.want == nil {
				require.Error(t, err)
				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNarrative_SoundEffectNoneVariants(t *testing.T) {
	for _, sfx := range []string{"None", "none", " NONE "} {
		raw := `{"ai_narration": "n", "ai_dialogue": null, "ai_visual_prompt": "v", "ai_sound_effect": "` + sfx + `"}`
		got, err := ParseNarrative(raw)
		require.NoError(t, err, sfx)
		assert.Nil(t, got.SoundEffect, sfx)
	}

	got, err := ParseNarrative(`{"ai_narration": "n", "ai_dialogue": null, "ai_visual_prompt": "v", "ai_sound_effect": "KAPOW!"}`)
	require.NoError(t, err)
	assert.Equal(t, "KAPOW!", *got.SoundEffect)
}

func TestNarrativeRunner_FirstPanelUsesFirstPanelNarration(t *testing.T) {
	textGen := &fakeTextGenerator{reply: validReply}
	r := NewNarrativeRunner(textGen, newPromptBuilder(t))

	got, err := r.Refine(context.Background(), "A cat explores an alley", nil)

	require.NoError(t, err)
	assert.Equal(t, "The alley falls silent.", got.Narration)
	require.Len(t, textGen.prompts, 1)
	assert.Contains(t, textGen.prompts[0], FirstPanelNarration)
	assert.Contains(t, textGen.prompts[0], "A cat explores an alley")
	assert.NotContains(t, textGen.prompts[0], "Previous scenes included:")
}

func TestNarrativeRunner_IncludesPreviousPanels(t *testing.T) {
	textGen := &fakeTextGenerator{reply: validReply}
	r := NewNarrativeRunner(textGen, newPromptBuilder(t))
	previous := domain.Panels{
		{PanelNumber: 1, AINarration: "Night falls.", AIVisualPrompt: "a dark city"},
		{PanelNumber: 2, AINarration: "A light flickers.", AIVisualPrompt: "a lamp in a window"},
	}

	_, err := r.Refine(context.Background(), "Someone opens the door", previous)

	require.NoError(t, err)
	prompt := textGen.prompts[0]
	assert.Contains(t, prompt, "- Panel 1 Visual: a dark city")
	assert.Contains(t, prompt, "- Panel 2 Narration: A light flickers.")
	assert.Contains(t, prompt, `"A light flickers."`)
	assert.NotContains(t, prompt, FirstPanelNarration)
}

func TestNarrativeRunner_BlankPreviousNarrationIsNotFirstPanel(t *testing.T) {
	textGen := &fakeTextGenerator{reply: validReply}
	r := NewNarrativeRunner(textGen, newPromptBuilder(t))
	previous := domain.Panels{{PanelNumber: 1, AINarration: "  ", AIVisualPrompt: "an empty street"}}

	_, err := r.Refine(context.Background(), "A bus arrives", previous)

	require.NoError(t, err)
	prompt := textGen.prompts[0]
	assert.NotContains(t, prompt, FirstPanelNarration)
	assert.Contains(t, prompt, `panel right before this one: "N/A"`)
}

func TestNarrativeRunner_Failures(t *testing.T) {
	pb := newPromptBuilder(t)

	_, err := NewNarrativeRunner(&fakeTextGenerator{reply: validReply}, pb).Refine(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	boom := errors.New("quota exceeded")
	_, err = NewNarrativeRunner(&fakeTextGenerator{err: boom}, pb).Refine(context.Background(), "x", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.KindGeneration, domain.KindOf(err))

	_, err = NewNarrativeRunner(&fakeTextGenerator{reply: "no json here"}, pb).Refine(context.Background(), "x", nil)
	assert.Equal(t, domain.KindParse, domain.KindOf(err))
}

func TestBuildContextSummary(t *testing.T) {
	assert.Equal(t, "", BuildContextSummary(nil))

	got := BuildContextSummary(domain.Panels{{PanelNumber: 1, AINarration: "Hello."}})
	assert.Equal(t, "Previous scenes included:\n- Panel 1 Visual: N/A\n- Panel 1 Narration: Hello.\n", got)
}

func strPtr(s string) *string { return &s }

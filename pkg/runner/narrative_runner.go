package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-comicflow/pkg/domain"
	"github.com/shouni/go-comicflow/pkg/generator"
	"github.com/shouni/go-comicflow/pkg/prompts"
)

// FirstPanelNarration は先行パネルが無いときに「直前のナレーション」として渡す文です。
const FirstPanelNarration = "This is the first panel of the comic."

const (
	keyNarration    = "ai_narration"
	keyDialogue     = "ai_dialogue"
	keyVisualPrompt = "ai_visual_prompt"
	keySoundEffect  = "ai_sound_effect"
)

var requiredKeys = []string{keyNarration, keyDialogue, keyVisualPrompt, keySoundEffect}

var (
	// ErrMissingFields は応答 JSON に必須キーが欠けていることを示します。
	ErrMissingFields = errors.New("reply is missing required fields")
	// ErrInvalidField は応答 JSON のフィールド型や値が不正であることを示します。
	ErrInvalidField = errors.New("reply has an invalid field")
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// NarrativeRefiner はユーザー入力と既存パネルから次の 1 コマの内容を作ります。
type NarrativeRefiner interface {
	Refine(ctx context.Context, userInput string, previous domain.Panels) (*domain.NarrativeElements, error)
}

// NarrativeRunner はテキストモデルで NarrativeRefiner を実装します。
type NarrativeRunner struct {
	textGen       generator.TextGenerator
	promptBuilder prompts.PromptBuilder
}

// NewNarrativeRunner は依存関係を注入して初期化します。
func NewNarrativeRunner(textGen generator.TextGenerator, pb prompts.PromptBuilder) *NarrativeRunner {
	return &NarrativeRunner{
		textGen:       textGen,
		promptBuilder: pb,
	}
}

// Refine はユーザー入力をナレーション・セリフ・視覚プロンプト・効果音に展開します。
// 成功時は効果音の "None" が nil に正規化されています。
func (r *NarrativeRunner) Refine(ctx context.Context, userInput string, previous domain.Panels) (*domain.NarrativeElements, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, domain.NewError(domain.KindValidation, "refine", domain.ErrEmptyInput)
	}

	templateData := prompts.TemplateData{
		UserInput:      userInput,
		ContextSummary: BuildContextSummary(previous),
		LastNarration:  lastNarration(previous),
	}
	finalPrompt, err := r.promptBuilder.Build(prompts.ModeRefine, templateData)
	if err != nil {
		return nil, domain.NewError(domain.KindGeneration, "refine", fmt.Errorf("プロンプト生成に失敗: %w", err))
	}

	slog.Info("NarrativeRunner: Calling text model", "previous_panels", len(previous))
	raw, err := r.textGen.GenerateText(ctx, finalPrompt)
	if err != nil {
		slog.Error("ナラティブ生成の呼び出しに失敗しました", "error", err)
		return nil, domain.NewError(domain.KindGeneration, "refine", err)
	}

	elements, err := ParseNarrative(raw)
	if err != nil {
		slog.Error("ナラティブ応答の解析に失敗しました", "error", err, "raw", truncateString(raw, 500))
		return nil, domain.NewError(domain.KindParse, "refine", err)
	}

	slog.Info("NarrativeRunner: Refined panel",
		"narration", elements.Narration,
		"has_dialogue", elements.Dialogue != nil,
		"has_sound_effect", elements.SoundEffect != nil,
	)
	return elements, nil
}

// BuildContextSummary は既存パネルを「Visual」と「Narration」の箇条書きにまとめます。
// パネルが無ければ空文字を返します。
func BuildContextSummary(previous domain.Panels) string {
	if len(previous) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Previous scenes included:\n")
	for i, p := range previous {
		fmt.Fprintf(&sb, "- Panel %d Visual: %s\n", i+1, orNA(p.AIVisualPrompt))
		fmt.Fprintf(&sb, "- Panel %d Narration: %s\n", i+1, orNA(p.AINarration))
	}
	return sb.String()
}

func lastNarration(previous domain.Panels) string {
	if len(previous) == 0 {
		return FirstPanelNarration
	}
	return orNA(previous[len(previous)-1].AINarration)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// ParseNarrative はモデル応答から JSON オブジェクトを取り出し、4 つのフィールドを検証します。
func ParseNarrative(raw string) (*domain.NarrativeElements, error) {
	rawJSON := extractJSONObject(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rawJSON), &fields); err != nil {
		return nil, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	narration, err := requiredString(fields, keyNarration)
	if err != nil {
		return nil, err
	}
	visualPrompt, err := requiredString(fields, keyVisualPrompt)
	if err != nil {
		return nil, err
	}
	dialogue, err := optionalString(fields, keyDialogue)
	if err != nil {
		return nil, err
	}
	soundEffect, err := optionalString(fields, keySoundEffect)
	if err != nil {
		return nil, err
	}
	if soundEffect != nil && domain.IsNoneLiteral(*soundEffect) {
		soundEffect = nil
	}

	return &domain.NarrativeElements{
		Narration:    narration,
		Dialogue:     dialogue,
		VisualPrompt: visualPrompt,
		SoundEffect:  soundEffect,
	}, nil
}

func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}
	// コードフェンスが無ければ最も外側の {...} を使う
	firstBracket := strings.Index(raw, "{")
	lastBracket := strings.LastIndex(raw, "}")
	if firstBracket != -1 && lastBracket > firstBracket {
		return raw[firstBracket : lastBracket+1]
	}
	return raw
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	var s string
	if err := json.Unmarshal(fields[key], &s); err != nil || isJSONNull(fields[key]) {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidField, key)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s must not be empty", ErrInvalidField, key)
	}
	return s, nil
}

func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	if isJSONNull(fields[key]) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(fields[key], &s); err != nil {
		return nil, fmt.Errorf("%w: %s must be a string or null", ErrInvalidField, key)
	}
	return &s, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

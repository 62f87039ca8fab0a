package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-comicflow/pkg/domain"
	"github.com/shouni/go-comicflow/pkg/generator"
	"github.com/shouni/go-comicflow/pkg/prompts"
)

const (
	// EmptyStoryMessage はパネルが 1 枚も無いストーリーへの固定の返答です。モデルは呼ばれません。
	EmptyStoryMessage = "The story hasn't started yet! Add a panel to get a suggestion."
	// emptyContextMessage はパネルはあるがナレーションもセリフも無いときの文脈です。
	emptyContextMessage = "The story has panels but no narration or dialogue yet."
)

// ErrEmptySuggestion は整形後の提案が空になったことを示します。
var ErrEmptySuggestion = errors.New("suggestion is empty")

// モデルが付けがちな前置き。この順に 1 回ずつ取り除く
var suggestionLeadIns = []string{"Here's a suggestion:", "Here’s a suggestion:", "Your suggestion:"}

const suggestionQuotes = "\"“”"

// Director はストーリーの次の展開を提案します。
type Director interface {
	Suggest(ctx context.Context, storyID string, panels domain.Panels) (string, error)
}

// DirectorRunner はテキストモデルで Director を実装します。
// 同時要求は 1 回の呼び出しにまとめられます。TTL を指定すると同じストーリー・同じパネル数への提案をキャッシュします。
type DirectorRunner struct {
	textGen       generator.TextGenerator
	promptBuilder prompts.PromptBuilder
	cache         *cache.Cache
	group         singleflight.Group
}

// NewDirectorRunner は DirectorRunner を初期化します。ttl が 0 以下ならキャッシュしません。
func NewDirectorRunner(textGen generator.TextGenerator, pb prompts.PromptBuilder, ttl time.Duration) *DirectorRunner {
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	return &DirectorRunner{
		textGen:       textGen,
		promptBuilder: pb,
		cache:         c,
	}
}

// Suggest は次のパネルに向けた 2〜3 個の短いアイデアを返します。
func (r *DirectorRunner) Suggest(ctx context.Context, storyID string, panels domain.Panels) (string, error) {
	if len(panels) == 0 {
		return EmptyStoryMessage, nil
	}

	key := fmt.Sprintf("%s#%d", storyID, len(panels))
	if r.cache != nil {
		if cached, found := r.cache.Get(key); found {
			if s, ok := cached.(string); ok {
				slog.Debug("DirectorRunner: Cache hit", "story_id", storyID, "panels", len(panels))
				return s, nil
			}
		}
	}

	// 共有の呼び出しは最初の呼び出し元の切断に巻き込まない。上限は生成タイムアウトが決める
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		suggestion, err := r.generate(shared, storyID, panels)
		if err == nil && r.cache != nil {
			r.cache.Set(key, suggestion, cache.DefaultExpiration)
		}
		return suggestion, err
	})

	select {
	case <-ctx.Done():
		return "", domain.NewError(domain.KindGeneration, "suggest", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		suggestion, ok := res.Val.(string)
		if !ok {
			return "", fmt.Errorf("unexpected return type from singleflight: %T", res.Val)
		}
		return suggestion, nil
	}
}

func (r *DirectorRunner) generate(ctx context.Context, storyID string, panels domain.Panels) (string, error) {
	finalPrompt, err := r.promptBuilder.Build(prompts.ModeDirector, prompts.TemplateData{
		StoryContext: BuildStoryContext(panels),
	})
	if err != nil {
		return "", domain.NewError(domain.KindGeneration, "suggest", fmt.Errorf("プロンプト生成に失敗: %w", err))
	}

	slog.Info("DirectorRunner: Calling text model", "story_id", storyID, "panels", len(panels))
	raw, err := r.textGen.GenerateText(ctx, finalPrompt)
	if err != nil {
		slog.Error("提案生成の呼び出しに失敗しました", "story_id", storyID, "error", err)
		return "", domain.NewError(domain.KindGeneration, "suggest", err)
	}

	suggestion := CleanSuggestion(raw)
	if suggestion == "" {
		slog.Error("提案が空でした", "story_id", storyID, "raw", truncateString(raw, 200))
		return "", domain.NewError(domain.KindParse, "suggest", ErrEmptySuggestion)
	}
	return suggestion, nil
}

// BuildStoryContext は各パネルを "Panel N: ナレーション" と、あればセリフで 1 行にまとめます。
func BuildStoryContext(panels domain.Panels) string {
	lines := make([]string, 0, len(panels))
	hasContent := false
	for i, p := range panels {
		line := fmt.Sprintf("Panel %d: %s", i+1, p.AINarration)
		if d := p.DialogueText(); d != "" {
			line += " Dialogue: " + d
			hasContent = true
		}
		if strings.TrimSpace(p.AINarration) != "" {
			hasContent = true
		}
		lines = append(lines, line)
	}
	if !hasContent {
		return emptyContextMessage
	}
	return strings.Join(lines, "\n")
}

// CleanSuggestion は前置きと外側の引用符を取り除きます。
func CleanSuggestion(raw string) string {
	s := strings.TrimSpace(raw)
	for _, prefix := range suggestionLeadIns {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	s = strings.Trim(s, suggestionQuotes)
	return strings.TrimSpace(s)
}

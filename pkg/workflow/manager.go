package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comicflow/pkg/domain"
	"github.com/shouni/go-comicflow/pkg/generator"
	"github.com/shouni/go-comicflow/pkg/pipeline"
	"github.com/shouni/go-comicflow/pkg/prompts"
	"github.com/shouni/go-comicflow/pkg/publisher"
	"github.com/shouni/go-comicflow/pkg/runner"
	"github.com/shouni/go-comicflow/pkg/store"
)

// ErrGenerationUnavailable は生成器が構成されていない状態で生成を要求したことを示します。
var ErrGenerationUnavailable = errors.New("generation is not configured (GEMINI_API_KEY is missing)")

// Manager は、ストーリーへの追記・閲覧・提案・書き出しをまとめて提供します。
type Manager struct {
	cfg       Config
	store     store.StoryStore
	pipeline  *pipeline.PanelPipeline
	director  runner.Director
	publisher *publisher.MarkdownPublisher
}

// New は、設定と依存関係を基に新しい Manager を初期化します。
// 生成器が得られない場合は閲覧専用の Manager になります。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	if args.Store == nil {
		return nil, fmt.Errorf("StoryStore は必須です")
	}

	m := &Manager{
		cfg:       args.Config,
		store:     args.Store,
		publisher: publisher.NewMarkdownPublisher(""),
	}

	textGen, imageGen, err := initializeGenerators(ctx, args)
	if err != nil {
		return nil, err
	}
	if textGen == nil || imageGen == nil {
		slog.Warn("生成器が構成されていないため、閲覧専用で起動します")
		return m, nil
	}
	if args.Images == nil {
		return nil, fmt.Errorf("ImageWriter は必須です")
	}

	textPrompt, err := initializeTextPrompt(args.TextPrompt)
	if err != nil {
		return nil, err
	}

	m.pipeline = pipeline.NewPanelPipeline(
		args.Store,
		runner.NewNarrativeRunner(textGen, textPrompt),
		runner.NewPanelImageRunner(imageGen, prompts.NewImagePromptBuilder(args.Config.StyleSuffix), args.Images),
		args.Notifier,
		args.Config.StaticPrefix,
	)
	m.director = runner.NewDirectorRunner(textGen, textPrompt, args.Config.SuggestionTTL)
	return m, nil
}

// initializeGenerators は注入された生成器を優先し、無ければ API キーから Gemini クライアントを初期化します。
func initializeGenerators(ctx context.Context, args ManagerArgs) (generator.TextGenerator, generator.ImageGenerator, error) {
	textGen, imageGen := args.TextGenerator, args.ImageGenerator
	if textGen != nil && imageGen != nil {
		return textGen, imageGen, nil
	}
	if args.Config.GeminiAPIKey == "" {
		return textGen, imageGen, nil
	}

	cfg := args.Config
	client, err := generator.NewGeminiClient(ctx, generator.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		TextModel:   cfg.GeminiModel,
		ImageModel:  cfg.ImageModel,
		Temperature: cfg.Temperature,
		Guard: generator.GuardOptions{
			RateInterval:    cfg.RateInterval,
			RateBurst:       cfg.RateBurst,
			BreakerFailures: cfg.BreakerFailures,
			BreakerCooldown: cfg.BreakerCooldown,
			Timeout:         cfg.GenerationTimeout,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	if textGen == nil {
		textGen = client
	}
	if imageGen == nil {
		imageGen = client
	}
	return textGen, imageGen, nil
}

// initializeTextPrompt は PromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializeTextPrompt(textPrompt prompts.PromptBuilder) (prompts.PromptBuilder, error) {
	if textPrompt != nil {
		return textPrompt, nil
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	return pb, nil
}

// CanGenerate はパネル生成と提案が利用可能かを返します。
func (m *Manager) CanGenerate() bool {
	return m.pipeline != nil
}

// AddPanel はユーザー入力から新しいパネルを生成してストーリーへ追記します。
func (m *Manager) AddPanel(ctx context.Context, storyID, userInput string) (*domain.Panel, error) {
	if m.pipeline == nil {
		return nil, domain.NewError(domain.KindGeneration, "add panel", ErrGenerationUnavailable)
	}
	return m.pipeline.AddPanel(ctx, storyID, userInput)
}

// Story は保存済みのストーリーを返します。パネルが無ければ Exists() が false になります。
func (m *Manager) Story(ctx context.Context, storyID string) (domain.Story, error) {
	if err := domain.ValidateStoryID(storyID); err != nil {
		return domain.Story{}, domain.NewError(domain.KindValidation, "get story", err)
	}
	return domain.Story{ID: storyID, Panels: m.store.Load(ctx, storyID)}, nil
}

// ListStories は保存済みストーリーの ID 一覧を返します。
func (m *Manager) ListStories(ctx context.Context) ([]string, error) {
	return m.store.ListStoryIDs(ctx)
}

// Suggest はストーリーの次の展開の提案を返します。
func (m *Manager) Suggest(ctx context.Context, storyID string) (string, error) {
	story, err := m.Story(ctx, storyID)
	if err != nil {
		return "", err
	}
	if !story.Exists() {
		return runner.EmptyStoryMessage, nil
	}
	if m.director == nil {
		return "", domain.NewError(domain.KindGeneration, "suggest", ErrGenerationUnavailable)
	}
	return m.director.Suggest(ctx, storyID, story.Panels)
}

// ExportMarkdown はストーリーを Markdown に変換します。存在しないストーリーは domain.ErrStoryNotFound です。
func (m *Manager) ExportMarkdown(ctx context.Context, storyID string) (string, error) {
	story, err := m.Story(ctx, storyID)
	if err != nil {
		return "", err
	}
	if !story.Exists() {
		return "", fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	return m.publisher.BuildStoryMarkdown(story), nil
}

// PublishMarkdown はストーリーの Markdown を outputPath に書き出します。
func (m *Manager) PublishMarkdown(ctx context.Context, storyID, outputPath string) error {
	story, err := m.Story(ctx, storyID)
	if err != nil {
		return err
	}
	if !story.Exists() {
		return fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	if err := m.publisher.Publish(story, outputPath); err != nil {
		return domain.NewError(domain.KindPersistence, "publish markdown", err)
	}
	return nil
}

// Close はストアを閉じます。
func (m *Manager) Close() error {
	return m.store.Close()
}

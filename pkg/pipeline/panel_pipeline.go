package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shouni/go-comicflow/pkg/asset"
	"github.com/shouni/go-comicflow/pkg/domain"
	"github.com/shouni/go-comicflow/pkg/runner"
	"github.com/shouni/go-comicflow/pkg/store"
)

// Notifier はパネルが永続化された直後に呼ばれます。
type Notifier interface {
	PanelAdded(storyID string, panel domain.Panel)
}

// PanelPipeline はユーザー入力 1 件を 1 コマに変換し、ストーリーへ追記する司令塔です。
// 同じストーリーへの追記は読み込みから保存まで直列に実行されます。
type PanelPipeline struct {
	store        store.StoryStore
	refiner      runner.NarrativeRefiner
	renderer     runner.PanelRenderer
	notifier     Notifier
	staticPrefix string
	locks        *keyedMutex
}

// NewPanelPipeline は各コンポーネントを受け取り、PanelPipeline を生成します。notifier は nil でも構いません。
func NewPanelPipeline(
	st store.StoryStore,
	refiner runner.NarrativeRefiner,
	renderer runner.PanelRenderer,
	notifier Notifier,
	staticPrefix string,
) *PanelPipeline {
	return &PanelPipeline{
		store:        st,
		refiner:      refiner,
		renderer:     renderer,
		notifier:     notifier,
		staticPrefix: staticPrefix,
		locks:        newKeyedMutex(),
	}
}

// AddPanel は既存パネルを読み込み、ナラティブ生成と画像生成を行って新しいパネルを追記します。
// 生成のいずれかが失敗した場合は何も保存しません。
// 保存の失敗はログに残し、生成済みのパネルはそのまま返します。
func (p *PanelPipeline) AddPanel(ctx context.Context, storyID, userInput string) (*domain.Panel, error) {
	if err := domain.ValidateStoryID(storyID); err != nil {
		return nil, domain.NewError(domain.KindValidation, "add panel", err)
	}
	if strings.TrimSpace(userInput) == "" {
		return nil, domain.NewError(domain.KindValidation, "add panel", domain.ErrEmptyInput)
	}

	unlock := p.locks.Lock(storyID)
	defer unlock()

	logger := slog.With("story_id", storyID)
	startTime := time.Now()

	current := p.store.Load(ctx, storyID)
	logger.Info("パネルの生成を開始します", "existing_panels", len(current))

	elements, err := p.refiner.Refine(ctx, userInput, current)
	if err != nil {
		return nil, fmt.Errorf("pipeline: ナラティブ生成に失敗しました: %w", err)
	}

	fileName, err := p.renderer.Render(ctx, elements.VisualPrompt)
	if err != nil {
		return nil, fmt.Errorf("pipeline: パネル画像の生成に失敗しました: %w", err)
	}

	panel := domain.Panel{
		PanelNumber:    current.NextNumber(),
		UserInput:      userInput,
		AINarration:    elements.Narration,
		AIDialogue:     elements.Dialogue,
		AIVisualPrompt: elements.VisualPrompt,
		AISoundEffect:  elements.SoundEffect,
		ImageURL:       asset.PublicURL(p.staticPrefix, fileName),
	}

	updated := append(slices.Clone(current), panel)
	if err := p.store.Save(ctx, storyID, updated); err != nil {
		logger.Error("パネルの保存に失敗しました。生成済みのパネルは呼び出し元に返します", "panel_number", panel.PanelNumber, "error", err)
		return &panel, nil
	}

	logger.Info("パネルを追記しました",
		"panel_number", panel.PanelNumber,
		"image_url", panel.ImageURL,
		"duration", time.Since(startTime).Round(time.Millisecond),
	)
	if p.notifier != nil {
		p.notifier.PanelAdded(storyID, panel)
	}
	return &panel, nil
}

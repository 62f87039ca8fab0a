package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comicflow/internal/config"
	"github.com/shouni/go-comicflow/pkg/asset"
	"github.com/shouni/go-comicflow/pkg/pipeline"
	"github.com/shouni/go-comicflow/pkg/store"
	"github.com/shouni/go-comicflow/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config  *config.Config // 環境変数・設定ファイル・フラグから組み立てた設定
	Manager *workflow.Manager
	Images  *asset.ImageStore // 静的配信するパネル画像の置き場所
}

// Close は保持しているリソースを解放します。
func (a *AppContext) Close() error {
	if a.Manager == nil {
		return nil
	}
	return a.Manager.Close()
}

// BuildAppContext はストア・画像置き場・Manager を初期化します。
// notifier は nil でも構いません。
func BuildAppContext(ctx context.Context, cfg *config.Config, notifier pipeline.Notifier) (*AppContext, error) {
	st, err := store.Open(ctx, cfg.StoreBackend, cfg.StoryDir, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("ストーリーストアの初期化に失敗したのだ: %w", err)
	}

	images, err := asset.NewImageStore(cfg.ImageDir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	manager, err := workflow.New(ctx, workflow.ManagerArgs{
		Config:   cfg.WorkflowConfig(),
		Store:    st,
		Images:   images,
		Notifier: notifier,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ワークフローの初期化に失敗したのだ: %w", err)
	}

	slog.Debug("アプリケーションを構築しました",
		"store", cfg.StoreBackend,
		"image_dir", images.Dir(),
		"can_generate", manager.CanGenerate(),
	)
	return &AppContext{Config: cfg, Manager: manager, Images: images}, nil
}

// Package store はストーリーのパネル列を永続化します。
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shouni/go-comicflow/pkg/domain"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// StoryStore はストーリー ID ごとのパネル列を読み書きします。
// Load は読み込みに失敗しても空のパネル列を返し、エラーにはしません。
type StoryStore interface {
	Load(ctx context.Context, storyID string) domain.Panels
	Save(ctx context.Context, storyID string, panels domain.Panels) error
	ListStoryIDs(ctx context.Context) ([]string, error)
	Close() error
}

func decodePanels(data []byte) (domain.Panels, error) {
	var panels domain.Panels
	if err := json.Unmarshal(data, &panels); err != nil {
		return nil, fmt.Errorf("パネル列の JSON 解析に失敗しました: %w", err)
	}
	return panels, nil
}

func nonNil(panels domain.Panels) domain.Panels {
	if panels == nil {
		return domain.Panels{}
	}
	return panels
}

// Open は backend 名に応じた StoryStore を初期化します。
func Open(ctx context.Context, backend, storyDir, sqlitePath string) (StoryStore, error) {
	switch backend {
	case "", BackendFile:
		s, err := NewFileStore(storyDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := NewSQLiteStore(ctx, sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("未対応のストアバックエンドです: %q (file または sqlite)", backend)
	}
}

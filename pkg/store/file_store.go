package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shouni/go-comicflow/pkg/domain"
)

const (
	// DefaultStoryDir はストーリー JSON を保存するデフォルトのディレクトリです。
	DefaultStoryDir = "data/stories"
	storyFileExt    = ".json"
)

// FileStore は 1 ストーリーを <dir>/<story_id>.json の 1 ファイルとして保存します。
type FileStore struct {
	dir string
}

// NewFileStore は保存先ディレクトリを作成して FileStore を返します。
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultStoryDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ストーリーディレクトリの作成に失敗しました (%s): %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(storyID string) string {
	return filepath.Join(s.dir, storyID+storyFileExt)
}

// Load はストーリーのパネル列を読み込みます。
// ファイルが無い、読めない、または壊れている場合は空を返します。
func (s *FileStore) Load(ctx context.Context, storyID string) domain.Panels {
	logger := slog.With("story_id", storyID, "store", BackendFile)
	if err := domain.ValidateStoryID(storyID); err != nil {
		logger.Warn("不正なストーリー ID のため空のストーリーとして扱います", "error", err)
		return domain.Panels{}
	}

	data, err := os.ReadFile(s.path(storyID))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Panels{}
	}
	if err != nil {
		logger.Warn("ストーリーファイルの読み込みに失敗しました。空のストーリーとして扱います", "error", err)
		return domain.Panels{}
	}

	panels, err := decodePanels(data)
	if err != nil {
		logger.Warn("ストーリーファイルが破損しています。空のストーリーとして扱います", "error", err)
		return domain.Panels{}
	}
	return nonNil(panels)
}

// Save はパネル列全体を一時ファイル経由で置き換えます。
// 書き込み途中で失敗しても既存ファイルは壊れません。
func (s *FileStore) Save(ctx context.Context, storyID string, panels domain.Panels) error {
	if err := domain.ValidateStoryID(storyID); err != nil {
		return domain.NewError(domain.KindPersistence, "save", err)
	}

	data, err := json.MarshalIndent(nonNil(panels), "", "  ")
	if err != nil {
		return domain.NewError(domain.KindPersistence, "save", err)
	}

	if err := s.writeAtomic(storyID, data); err != nil {
		slog.Error("ストーリーの保存に失敗しました", "story_id", storyID, "store", BackendFile, "error", err)
		return domain.NewError(domain.KindPersistence, "save", err)
	}
	return nil
}

func (s *FileStore) writeAtomic(storyID string, data []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, "."+storyID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("一時ファイルへの書き込みに失敗しました: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("一時ファイルの同期に失敗しました: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path(storyID)); err != nil {
		return fmt.Errorf("ストーリーファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}

// ListStoryIDs は保存済みストーリーの ID を辞書順で返します。
func (s *FileStore) ListStoryIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.NewError(domain.KindPersistence, "list", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != storyFileExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, storyFileExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Close は何もしません。
func (s *FileStore) Close() error {
	return nil
}

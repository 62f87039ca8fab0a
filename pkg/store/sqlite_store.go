package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shouni/go-comicflow/pkg/domain"
)

// DefaultSQLitePath は SQLite バックエンドのデフォルトのデータベースファイルです。
const DefaultSQLitePath = "data/comicflow.db"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS stories (
	story_id   TEXT PRIMARY KEY,
	panels     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

const sqliteUpsert = `INSERT INTO stories (story_id, panels, updated_at) VALUES (?, ?, ?)
ON CONFLICT(story_id) DO UPDATE SET panels = excluded.panels, updated_at = excluded.updated_at`

// SQLiteStore はストーリーごとに 1 行を持つ SQLite テーブルへパネル列を保存します。
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore はデータベースを開き、テーブルが無ければ作成します。
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("データベースディレクトリの作成に失敗しました (%s): %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// 書き込みの直列化は SQLite 側に任せず 1 接続に絞る
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create stories table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Load はストーリーのパネル列を読み込みます。行が無い、または壊れている場合は空を返します。
func (s *SQLiteStore) Load(ctx context.Context, storyID string) domain.Panels {
	logger := slog.With("story_id", storyID, "store", BackendSQLite)

	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT panels FROM stories WHERE story_id = ?", storyID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Panels{}
	}
	if err != nil {
		logger.Warn("ストーリーの読み込みに失敗しました。空のストーリーとして扱います", "error", err)
		return domain.Panels{}
	}

	panels, err := decodePanels([]byte(raw))
	if err != nil {
		logger.Warn("保存済みのパネル列が破損しています。空のストーリーとして扱います", "error", err)
		return domain.Panels{}
	}
	return nonNil(panels)
}

// Save はストーリーの行をパネル列全体で置き換えます。
func (s *SQLiteStore) Save(ctx context.Context, storyID string, panels domain.Panels) error {
	if err := domain.ValidateStoryID(storyID); err != nil {
		return domain.NewError(domain.KindPersistence, "save", err)
	}

	data, err := json.Marshal(nonNil(panels))
	if err != nil {
		return domain.NewError(domain.KindPersistence, "save", err)
	}

	if _, err := s.db.ExecContext(ctx, sqliteUpsert, storyID, string(data), time.Now().UTC().Unix()); err != nil {
		slog.Error("ストーリーの保存に失敗しました", "story_id", storyID, "store", BackendSQLite, "error", err)
		return domain.NewError(domain.KindPersistence, "save", err)
	}
	return nil
}

// ListStoryIDs は保存済みストーリーの ID を辞書順で返します。
func (s *SQLiteStore) ListStoryIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT story_id FROM stories ORDER BY story_id")
	if err != nil {
		return nil, domain.NewError(domain.KindPersistence, "list", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewError(domain.KindPersistence, "list", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindPersistence, "list", err)
	}
	return ids, nil
}

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package asset

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageDir は生成されたパネル画像を格納するデフォルトのディレクトリです。
	DefaultImageDir = "data/panels"
	// DefaultStaticPrefix はパネル画像を公開する URL パスのデフォルトです。
	DefaultStaticPrefix = "/static/panels"

	panelFilePrefix = "panel_"
	panelFileExt    = ".png"
)

// PanelFileRegex は生成されるパネル画像名 (panel_<32桁の16進>.png) に一致します。
var PanelFileRegex = regexp.MustCompile(`^` + panelFilePrefix + `[0-9a-f]{32}` + regexp.QuoteMeta(panelFileExt) + `$`)

// ImageStore はパネル画像をローカルディレクトリに書き出します。
type ImageStore struct {
	dir string
}

// NewImageStore は出力先ディレクトリを作成して ImageStore を返します。
func NewImageStore(dir string) (*ImageStore, error) {
	if dir == "" {
		dir = DefaultImageDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("画像ディレクトリの作成に失敗しました (%s): %w", dir, err)
	}
	return &ImageStore{dir: dir}, nil
}

// Dir は画像の保存先ディレクトリを返します。
func (s *ImageStore) Dir() string {
	return s.dir
}

// SaveImage は PNG データを一意な名前で保存し、そのファイル名を返します。
func (s *ImageStore) SaveImage(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fileName := NewPanelFileName()
	fullPath, err := ResolveOutputPath(s.dir, fileName)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("パネル画像の書き込みに失敗しました (%s): %w", fullPath, err)
	}
	return fileName, nil
}

// NewPanelFileName は panel_<ハイフンなしUUID>.png 形式のファイル名を生成します。
func NewPanelFileName() string {
	return panelFilePrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + panelFileExt
}

// PublicURL は公開プレフィックスとファイル名から画像の URL を組み立てます。
// 例: "/static/panels", "panel_ab.png" -> "/static/panels/panel_ab.png"
func PublicURL(prefix, fileName string) string {
	if prefix == "" {
		prefix = DefaultStaticPrefix
	}
	return strings.TrimSuffix(prefix, "/") + "/" + fileName
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

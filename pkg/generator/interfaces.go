package generator

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrPromptBlocked はモデル側の安全フィルタでプロンプトが拒否されたことを示します。
	ErrPromptBlocked = errors.New("prompt was blocked by the model")
	// ErrEmptyResponse はモデルが候補を 1 件も返さなかったことを示します。
	ErrEmptyResponse = errors.New("model returned no candidates")
)

// TextGenerator はプロンプトからテキスト応答を生成します。
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator はプロンプトから画像を含むマルチパート応答を生成します。
// 返却されるパーツの順序はモデルの応答順を保持します。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]ContentPart, error)
}

// ContentPart は生成応答の 1 パーツです。テキストかインラインデータのどちらかを持ちます。
type ContentPart struct {
	Text     string
	MIMEType string
	Data     []byte
}

// IsImage は MIME タイプが image/ で始まるかどうかを返します。
func (p ContentPart) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(p.MIMEType), "image/")
}

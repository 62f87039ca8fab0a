package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/shouni/go-comicflow/pkg/domain"
	"github.com/shouni/go-comicflow/pkg/generator"
	"github.com/shouni/go-comicflow/pkg/prompts"
)

// ErrNoImagePart は画像生成の応答に image/ パーツが 1 つも無いことを示します。
var ErrNoImagePart = errors.New("no image part in generation response")

// PanelRenderer は視覚プロンプトから画像を生成・保存し、そのファイル名を返します。
type PanelRenderer interface {
	Render(ctx context.Context, visualPrompt string) (string, error)
}

// ImageWriter は PNG データを保存し、生成したファイル名を返します。
type ImageWriter interface {
	SaveImage(ctx context.Context, data []byte) (string, error)
}

// PanelImageRunner は画像モデルで PanelRenderer を実装します。
type PanelImageRunner struct {
	imageGen      generator.ImageGenerator
	promptBuilder *prompts.ImagePromptBuilder
	writer        ImageWriter
}

// NewPanelImageRunner は、依存関係を注入して初期化します。
func NewPanelImageRunner(imageGen generator.ImageGenerator, pb *prompts.ImagePromptBuilder, writer ImageWriter) *PanelImageRunner {
	return &PanelImageRunner{
		imageGen:      imageGen,
		promptBuilder: pb,
		writer:        writer,
	}
}

// Render は画像を 1 枚生成し、PNG に変換して保存したファイル名を返すのだ。
func (r *PanelImageRunner) Render(ctx context.Context, visualPrompt string) (string, error) {
	if visualPrompt == "" {
		return "", domain.NewError(domain.KindValidation, "render", errors.New("visual prompt is empty"))
	}

	startTime := time.Now()
	parts, err := r.imageGen.GenerateImage(ctx, r.promptBuilder.BuildPanelPrompt(visualPrompt))
	if err != nil {
		slog.Error("パネル画像生成の呼び出しに失敗しました", "error", err)
		return "", domain.NewError(domain.KindGeneration, "render", err)
	}

	part, ok := FirstImagePart(parts)
	if !ok {
		slog.Error("応答に画像パーツが含まれていません", "parts", len(parts))
		return "", domain.NewError(domain.KindRendering, "render", ErrNoImagePart)
	}

	pngData, err := toPNG(part.Data)
	if err != nil {
		slog.Error("パネル画像のデコードに失敗しました", "mime_type", part.MIMEType, "error", err)
		return "", domain.NewError(domain.KindRendering, "render", err)
	}

	fileName, err := r.writer.SaveImage(ctx, pngData)
	if err != nil {
		slog.Error("パネル画像の保存に失敗しました", "error", err)
		return "", domain.NewError(domain.KindRendering, "render", err)
	}

	slog.Info("Panel image rendered", "file", fileName, "duration", time.Since(startTime).Round(time.Millisecond))
	return fileName, nil
}

// FirstImagePart は応答順で最初の image/ パーツを返します。以降の画像は無視します。
func FirstImagePart(parts []generator.ContentPart) (generator.ContentPart, bool) {
	for _, p := range parts {
		if p.IsImage() {
			return p, true
		}
	}
	return generator.ContentPart{}, false
}

// toPNG は PNG/JPEG/GIF の画像データをデコードし、PNG として再エンコードします。
func toPNG(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像データのデコードに失敗しました: %w", err)
	}
	if format == "png" {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("PNG へのエンコードに失敗しました (元形式: %s): %w", format, err)
	}
	return buf.Bytes(), nil
}

package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

var imageModalities = []string{"TEXT", "IMAGE"}

// GeminiConfig は GeminiClient の設定です。
type GeminiConfig struct {
	APIKey      string
	TextModel   string
	ImageModel  string
	Temperature float32
	Guard       GuardOptions
}

// GeminiClient は Gemini API を使って TextGenerator と ImageGenerator を実装します。
// テキスト用と画像用でレート制限とブレーカーを別々に持ちます。
type GeminiClient struct {
	models      *genai.Models
	textModel   string
	imageModel  string
	temperature float32
	textGuard   *guard
	imageGuard  *guard
}

// NewGeminiClient は API キーから genai クライアントを初期化します。
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY が設定されていません")
	}
	if cfg.TextModel == "" || cfg.ImageModel == "" {
		return nil, errors.New("テキストモデルと画像モデルの両方を指定してください")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
	}

	return &GeminiClient{
		models:      client.Models,
		textModel:   cfg.TextModel,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
		textGuard:   newGuard("gemini-text", cfg.Guard),
		imageGuard:  newGuard("gemini-image", cfg.Guard),
	}, nil
}

// GenerateText はテキストモデルを呼び出し、連結されたテキスト部分を返します。
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()
	resp, err := guardedCall(ctx, c.textGuard, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.models.GenerateContent(ctx, c.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature: genai.Ptr(c.temperature),
		})
	})
	if err != nil {
		return "", fmt.Errorf("テキスト生成の呼び出しに失敗しました (model: %s): %w", c.textModel, err)
	}
	if err := checkResponse(resp); err != nil {
		return "", err
	}

	slog.Debug("テキスト生成が完了しました", "model", c.textModel, "duration", time.Since(startTime).Round(time.Millisecond))
	return resp.Text(), nil
}

// GenerateImage は画像モデルを呼び出し、最初の候補のパーツを順序どおり返します。
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) ([]ContentPart, error) {
	startTime := time.Now()
	resp, err := guardedCall(ctx, c.imageGuard, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.models.GenerateContent(ctx, c.imageModel, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseModalities: imageModalities,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("画像生成の呼び出しに失敗しました (model: %s): %w", c.imageModel, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	parts := contentParts(resp)
	slog.Debug("画像生成が完了しました", "model", c.imageModel, "parts", len(parts), "duration", time.Since(startTime).Round(time.Millisecond))
	return parts, nil
}

func checkResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("%w: %s", ErrPromptBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return ErrEmptyResponse
	}
	return nil
}

// contentParts は最初の候補のパーツを ContentPart に変換します。
func contentParts(resp *genai.GenerateContentResponse) []ContentPart {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil
	}

	var parts []ContentPart
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil {
			continue
		}
		part := ContentPart{Text: p.Text}
		if p.InlineData != nil {
			part.MIMEType = p.InlineData.MIMEType
			part.Data = p.InlineData.Data
		}
		parts = append(parts, part)
	}
	return parts
}

package prompts

import (
	"strings"
)

// ImagePromptBuilder はパネルの視覚プロンプトから画像モデル用のプロンプトを組み立てます。
type ImagePromptBuilder struct {
	defaultSuffix string // "vibrant comic book style" 等の共通サフィックス
}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder(suffix string) *ImagePromptBuilder {
	return &ImagePromptBuilder{defaultSuffix: strings.TrimSpace(suffix)}
}

// BuildPanelPrompt は視覚プロンプトにスタイルサフィックスを付与します。
// サフィックスが空なら視覚プロンプトをそのまま返します。
func (pb *ImagePromptBuilder) BuildPanelPrompt(visualPrompt string) string {
	if pb == nil || pb.defaultSuffix == "" {
		return visualPrompt
	}
	return strings.TrimRight(visualPrompt, " \n") + "\n\n" + pb.defaultSuffix
}

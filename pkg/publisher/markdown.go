package publisher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-comicflow/pkg/domain"
)

// MarkdownPublisher は、ストーリーを読み物として Markdown 形式で出力する役割を担います。
type MarkdownPublisher struct {
	// imageBaseURL が空でなければ、相対の image_url の前に付けます。
	imageBaseURL string
}

// NewMarkdownPublisher は MarkdownPublisher を生成します。
func NewMarkdownPublisher(imageBaseURL string) *MarkdownPublisher {
	return &MarkdownPublisher{imageBaseURL: strings.TrimSuffix(imageBaseURL, "/")}
}

// BuildStoryMarkdown は、ストーリー ID を見出しに、各パネルの画像とテキストを順に並べた Markdown を生成します。
func (mp *MarkdownPublisher) BuildStoryMarkdown(story domain.Story) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", story.ID)

	for _, panel := range story.Panels {
		fmt.Fprintf(&sb, "## Panel %d\n\n", panel.PanelNumber)
		if panel.ImageURL != "" {
			fmt.Fprintf(&sb, "![Panel %d](%s)\n\n", panel.PanelNumber, mp.imageURL(panel.ImageURL))
		}
		if narration := strings.TrimSpace(panel.AINarration); narration != "" {
			fmt.Fprintf(&sb, "> %s\n\n", narration)
		}
		// セリフの "None" は表示しない
		if dialogue := panel.DialogueText(); dialogue != "" {
			fmt.Fprintf(&sb, "**Dialogue:** %s\n\n", strings.TrimSpace(dialogue))
		}
		if sfx := panel.SoundEffectText(); sfx != "" {
			fmt.Fprintf(&sb, "**SFX:** *%s*\n\n", strings.TrimSpace(sfx))
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// Publish は Markdown を outputPath に書き出します。
func (mp *MarkdownPublisher) Publish(story domain.Story, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("出力ディレクトリの作成に失敗しました (%s): %w", dir, err)
		}
	}
	if err := os.WriteFile(outputPath, []byte(mp.BuildStoryMarkdown(story)), 0o644); err != nil {
		return fmt.Errorf("Markdown の書き込みに失敗しました (%s): %w", outputPath, err)
	}
	return nil
}

func (mp *MarkdownPublisher) imageURL(raw string) string {
	if mp.imageBaseURL == "" || strings.Contains(raw, "://") {
		return raw
	}
	return mp.imageBaseURL + "/" + strings.TrimPrefix(raw, "/")
}

package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comicflow/internal/builder"
	"github.com/shouni/go-comicflow/pkg/domain"
)

var (
	panelStoryID string
	panelInput   string
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "ストーリーにパネルを 1 枚追加するのだ",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(panelInput) == "" {
			return fmt.Errorf("--input は必須なのだ: %w", domain.ErrEmptyInput)
		}
		if err := cfg.Validate(true); err != nil {
			return err
		}

		ctx := cmd.Context()
		app, err := builder.BuildAppContext(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		slog.Info("パネルを生成中なのだ...", "story_id", panelStoryID)
		panel, err := app.Manager.AddPanel(ctx, panelStoryID, panelInput)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ %s にパネル %d を追加したのだ", panelStoryID, panel.PanelNumber)))
		fmt.Fprintln(out, renderPanel(*panel))
		return nil
	},
}

func renderPanel(p domain.Panel) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("Narration:"), p.AINarration)
	if d := p.DialogueText(); d != "" {
		fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("Dialogue: "), d)
	}
	if s := p.SoundEffectText(); s != "" {
		fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("SFX:      "), s)
	}
	fmt.Fprintf(&sb, "%s %s", labelStyle.Render("Image:    "), mutedStyle.Render(p.ImageURL))
	return sb.String()
}

func init() {
	panelCmd.Flags().StringVarP(&panelStoryID, "story", "s", "", "追記先のストーリー ID なのだ。")
	panelCmd.Flags().StringVarP(&panelInput, "input", "i", "", "次のコマで起きることを一文で書くのだ。")
	_ = panelCmd.MarkFlagRequired("story")
	_ = panelCmd.MarkFlagRequired("input")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comicflow/internal/builder"
)

var (
	exportStoryID string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "ストーリーを Markdown に書き出すのだ",
	Long: `ストーリーを Markdown に書き出すのだ。
-o を省略すると標準出力に出すのだ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := builder.BuildAppContext(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		if exportOutput == "" {
			md, err := app.Manager.ExportMarkdown(ctx, exportStoryID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}

		if err := app.Manager.PublishMarkdown(ctx, exportStoryID, exportOutput); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ 書き出したのだ: "+exportOutput))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportStoryID, "story", "s", "", "書き出すストーリー ID なのだ。")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "出力先の Markdown ファイルなのだ。")
	_ = exportCmd.MarkFlagRequired("story")
}

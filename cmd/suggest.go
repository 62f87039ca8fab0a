package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comicflow/internal/builder"
)

var suggestStoryID string

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "ストーリーの次の展開をディレクターに提案させるのだ",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := builder.BuildAppContext(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		suggestion, err := app.Manager.Suggest(ctx, suggestStoryID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), suggestionStyle.Render(suggestion))
		return nil
	},
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestStoryID, "story", "s", "", "対象のストーリー ID なのだ。")
	_ = suggestCmd.MarkFlagRequired("story")
}

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comicflow/internal/builder"
)

var storiesCmd = &cobra.Command{
	Use:     "stories",
	Aliases: []string{"ls"},
	Short:   "保存済みのストーリーを一覧表示するのだ",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := builder.BuildAppContext(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		ids, err := app.Manager.ListStories(ctx)
		if err != nil {
			return err
		}

		counts := make(map[string]int, len(ids))
		for _, id := range ids {
			story, err := app.Manager.Story(ctx, id)
			if err != nil {
				return err
			}
			counts[id] = len(story.Panels)
		}
		writeStoryList(cmd.OutOrStdout(), ids, counts)
		return nil
	},
}

func writeStoryList(out io.Writer, ids []string, counts map[string]int) {
	if len(ids) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("ストーリーはまだ無いのだ。"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📚 %d stories", len(ids))))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, labelStyle.Render("STORY")+"\t"+labelStyle.Render("PANELS"))
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%d\n", idStyle.Render(id), counts[id])
	}
	_ = w.Flush()
}

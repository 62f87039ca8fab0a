package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comicflow/internal/config"
)

// appOptions はコマンドラインフラグの値を保持するのだ。
type appOptions struct {
	ConfigFile string
	Verbose    bool
	LogJSON    bool
	AIModel    string
	ImageModel string
	Store      string
}

var (
	opts appOptions
	// cfg は PersistentPreRunE で組み立てられ、各サブコマンドから参照されるのだ。
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "comicflow",
	Short: "みんなで一コマずつ描き足していく AI 漫画ストーリーのサーバーと CLI なのだ",
	Long: `comicflow はユーザーの短い一文を Gemini で語り・台詞・効果音・画像に仕立てて、
ストーリーにパネルとして追記していくツールなのだ。

  comicflow serve                                # HTTP API を起動
  comicflow panel --story demo --input "猫が旅立つ" # CLI からパネルを追加
  comicflow stories                              # ストーリー一覧
  comicflow export --story demo -o demo.md       # Markdown に書き出し`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, panelCmd, suggestCmd, storiesCmd, exportCmd)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML 設定ファイルのパスなのだ。環境変数の値を上書きするのだ。")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出すのだ。")
	root.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "ログを JSON で出力するのだ。")

	// --- AIモデル・保存先 ---
	root.PersistentFlags().StringVar(&opts.AIModel, "model", "", "テキスト生成に使う Gemini モデル名なのだ。")
	root.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使う Gemini モデル名なのだ。")
	root.PersistentFlags().StringVar(&opts.Store, "store", "", "ストーリーの保存先 (file / sqlite) なのだ。")
}

// preRunAppE は、ロガーを整えてから 環境変数 → 設定ファイル → フラグ の順に設定を組み立てるのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	setupLogger(opts.Verbose, opts.LogJSON)

	loaded := config.LoadConfig()
	if opts.ConfigFile != "" {
		if err := loaded.LoadFile(opts.ConfigFile); err != nil {
			return err
		}
	}
	applyFlagOverrides(cmd, loaded)

	cfg = loaded
	return nil
}

// applyFlagOverrides は明示的に指定されたフラグだけで設定を上書きするのだ。
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("model") {
		c.GeminiModel = opts.AIModel
	}
	if flags.Changed("image-model") {
		c.GeminiImageModel = opts.ImageModel
	}
	if flags.Changed("store") {
		c.StoreBackend = opts.Store
	}
}

func setupLogger(verbose, asJSON bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	if asJSON {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("エラー: "+err.Error()))
		os.Exit(1)
	}
}

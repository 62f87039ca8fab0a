package workflow

import (
	"github.com/shouni/go-comicflow/pkg/generator"
	"github.com/shouni/go-comicflow/pkg/pipeline"
	"github.com/shouni/go-comicflow/pkg/prompts"
	"github.com/shouni/go-comicflow/pkg/runner"
	"github.com/shouni/go-comicflow/pkg/store"
)

// ManagerArgs は Manager の初期化に必要な依存関係をまとめたものです。
type ManagerArgs struct {
	Config Config
	// Store は必須です。
	Store store.StoryStore
	// Images は生成を有効にする場合に必須です。
	Images runner.ImageWriter

	// 以下は省略可能です。生成器が nil で API キーがあれば Gemini クライアントを作ります。
	TextGenerator  generator.TextGenerator
	ImageGenerator generator.ImageGenerator
	TextPrompt     prompts.PromptBuilder
	Notifier       pipeline.Notifier
}

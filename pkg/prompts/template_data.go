package prompts

import (
	_ "embed"
)

const (
	ModeRefine   = "refine"
	ModeDirector = "director"
)

// TemplateData はテキストプロンプトのテンプレートに渡すデータ構造です。
// モードごとに使うフィールドが異なります。
type TemplateData struct {
	// refine 用
	UserInput      string
	ContextSummary string
	LastNarration  string

	// director 用
	StoryContext string
}

var (
	//go:embed refine.md
	RefinePrompt string
	//go:embed director.md
	DirectorPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeRefine:   RefinePrompt,
	ModeDirector: DirectorPrompt,
}

package domain

import "strings"

// noneLiteral は生成モデルが「該当なし」を表すときに返す文字列なのだ。
const noneLiteral = "none"

// Panel は物語に追記される1コマ分のレコードです。
// 一度追記されたパネルは変更されません。修正は新しいパネルとして追加します。
type Panel struct {
	PanelNumber    int     `json:"panel_number"`
	UserInput      string  `json:"user_input"`
	AINarration    string  `json:"ai_narration"`
	AIDialogue     *string `json:"ai_dialogue"`      // "None" のまま保存される場合があるのだ
	AIVisualPrompt string  `json:"ai_visual_prompt"` // 画像生成に渡した詳細プロンプト
	AISoundEffect  *string `json:"ai_sound_effect"`  // "None" は生成時に nil へ正規化済み
	ImageURL       string  `json:"image_url"`
}

// DialogueText は表示用のセリフを返します。nil やリテラルの "None" は空文字として扱います。
func (p Panel) DialogueText() string {
	if p.AIDialogue == nil || IsNoneLiteral(*p.AIDialogue) {
		return ""
	}
	return *p.AIDialogue
}

// SoundEffectText は効果音を返します。未設定なら空文字なのだ。
func (p Panel) SoundEffectText() string {
	if p.AISoundEffect == nil || IsNoneLiteral(*p.AISoundEffect) {
		return ""
	}
	return *p.AISoundEffect
}

// Panels は保存順に並んだパネルの列です。
type Panels []Panel

// NextNumber は次に追記されるパネルの番号（既存数 + 1）を返すのだ。
func (ps Panels) NextNumber() int {
	return len(ps) + 1
}

// IsContiguous はパネル番号が 1 から保存順に連番になっているかを判定します。
func (ps Panels) IsContiguous() bool {
	for i, p := range ps {
		if p.PanelNumber != i+1 {
			return false
		}
	}
	return true
}

// NarrativeElements はテキスト生成モデルが1コマ分として返す4つのフィールドです。
// SoundEffect は正規化済みで、"None" は nil になっています。
type NarrativeElements struct {
	Narration    string
	Dialogue     *string
	VisualPrompt string
	SoundEffect  *string
}

// IsNoneLiteral は前後の空白を無視して大文字小文字を区別せず "none" と一致するかを返します。
func IsNoneLiteral(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), noneLiteral)
}

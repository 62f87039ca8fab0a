package domain

import (
	"fmt"
	"regexp"
)

// MaxStoryIDLength はストーリーIDの最大文字数なのだ。
const MaxStoryIDLength = 50

var storyIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateStoryID はストーリーIDが 1〜50 文字の英数字・アンダースコア・ハイフンのみで
// 構成されているかを検証します。
func ValidateStoryID(id string) error {
	if id == "" || len(id) > MaxStoryIDLength {
		return fmt.Errorf("%w: length must be 1-%d, got %d", ErrInvalidStoryID, MaxStoryIDLength, len(id))
	}
	if !storyIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidStoryID, id, storyIDPattern.String())
	}
	return nil
}

// Story はIDとパネル列の組です。パネルが1枚もないストーリーは存在しないものとして扱われます。
type Story struct {
	ID     string
	Panels Panels
}

// Exists は1枚以上のパネルが永続化されているかを返すのだ。
func (s Story) Exists() bool {
	return len(s.Panels) > 0
}

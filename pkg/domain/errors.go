package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStoryID はストーリーIDの形式が不正な場合のエラーです。
	ErrInvalidStoryID = errors.New("invalid story id")
	// ErrEmptyInput はユーザー入力が空の場合のエラーです。
	ErrEmptyInput = errors.New("user input is empty")
	// ErrStoryNotFound はパネルが1枚もないストーリーを参照した場合のエラーです。
	ErrStoryNotFound = errors.New("story not found")
)

// Kind はコア処理の失敗を分類する閉じた列挙なのだ。
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindGeneration
	KindParse
	KindRendering
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindGeneration:
		return "generation"
	case KindParse:
		return "parse"
	case KindRendering:
		return "rendering"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error は失敗の種類と発生した操作を保持するエラーです。
type Error struct {
	Kind Kind
	Op   string // "refine", "render", "save" など
	Err  error
}

// NewError は Kind と操作名で err を包みます。
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf はラップされたエラーチェーンから Kind を取り出します。見つからなければ KindUnknown なのだ。
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

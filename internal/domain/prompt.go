package domain

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxPromptLength は、プロンプトの最大文字数のデフォルト値です
const DefaultMaxPromptLength = 500

// Prompt は、ユーザーが入力した前後の空白を除去済みのテキストを表現する値オブジェクトです
type Prompt struct {
	content string
}

// NewPrompt は新しいPromptを作成します
func NewPrompt(text string) Prompt {
	return Prompt{content: strings.TrimSpace(text)}
}

// Content はプロンプトの内容を返します
func (p Prompt) Content() string {
	return p.content
}

// IsEmpty は、プロンプトが空かどうかを判定します
func (p Prompt) IsEmpty() bool {
	return p.content == ""
}

// Truncate は、プロンプトを指定された文字数に制限します
// 制限が0以下の場合はそのまま返します
func (p Prompt) Truncate(maxLength int) Prompt {
	if maxLength <= 0 || utf8.RuneCountInString(p.content) <= maxLength {
		return p
	}

	runes := []rune(p.content)[:maxLength]

	// 単語の途中で切れないように調整
	truncated := string(runes)
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 && utf8.RuneCountInString(truncated[lastSpace:]) < 20 {
		truncated = truncated[:lastSpace]
	}

	return NewPrompt(truncated)
}

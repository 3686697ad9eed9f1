package domain

import "slices"

// VibeStatus は、セッションの状態を表す列挙型です
type VibeStatus int

const (
	StatusIdle VibeStatus = iota
	StatusThinking
	StatusGeneratingImage
	StatusComplete
	StatusError
)

var vibeStatusNames = []string{
	"IDLE",
	"THINKING",
	"GENERATING_IMAGE",
	"COMPLETE",
	"ERROR",
}

// String はVibeStatusの名前を返します
func (s VibeStatus) String() string {
	if int(s) >= 0 && int(s) < len(vibeStatusNames) {
		return vibeStatusNames[s]
	}
	return "IDLE"
}

// IsBusy は、生成処理が進行中の状態かどうかを判定します
func (s VibeStatus) IsBusy() bool {
	return s == StatusThinking || s == StatusGeneratingImage
}

// IsTerminal は、1回のリクエストにおける終端状態かどうかを判定します
func (s VibeStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// AllVibeStatuses はすべてのVibeStatusを返します
func AllVibeStatuses() []VibeStatus {
	return []VibeStatus{
		StatusIdle,
		StatusThinking,
		StatusGeneratingImage,
		StatusComplete,
		StatusError,
	}
}

// VibeResponse は、正規化済みの生成結果です
type VibeResponse struct {
	Text     string   `json:"text"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// HasImage は、画像が生成されたかどうかを返します
func (r VibeResponse) HasImage() bool {
	return r.ImageURL != ""
}

// HasTags は、タグが存在するかどうかを返します
func (r VibeResponse) HasTags() bool {
	return len(r.Tags) > 0
}

// Raw は、正規化前の形に戻したペイロードを返します
func (r VibeResponse) Raw() RawPayload {
	return RawPayload{
		Text:     r.Text,
		ImageURL: r.ImageURL,
		Tags:     slices.Clone(r.Tags),
	}
}

// clone はTagsを複製したコピーを返します
func (r VibeResponse) clone() VibeResponse {
	r.Tags = slices.Clone(r.Tags)
	return r
}

// RawPayload は、プロバイダーから受け取った正規化前の出力です
type RawPayload struct {
	Text     string   `json:"text"`
	ImageURL string   `json:"imageUrl"`
	Tags     []string `json:"tags"`
}

// suggestedPrompts は、入力欄の下に表示するおすすめのプロンプトです
var suggestedPrompts = []string{
	"Where's the best après-ski party?",
	"I need a fit check for the slopes.",
	"Is it too cold for a sauna selfie?",
	"Take me to the secret reindeer rave.",
}

// SuggestedPrompts はおすすめのプロンプト一覧を返します
func SuggestedPrompts() []string {
	return slices.Clone(suggestedPrompts)
}

package domain

import "strings"

// Normalize は、プロバイダーの出力を正規のVibeResponseに変換します
// キャプションが空の場合のみ失敗し、画像やタグが欠けていても正常な結果として扱います
func Normalize(raw RawPayload) (VibeResponse, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return VibeResponse{}, NewGenerationFailure(FailureEmptyText, nil)
	}

	var tags []string
	for _, tag := range raw.Tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	return VibeResponse{
		Text:     text,
		ImageURL: strings.TrimSpace(raw.ImageURL),
		Tags:     tags,
	}, nil
}

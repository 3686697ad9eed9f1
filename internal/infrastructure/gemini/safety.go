package gemini

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// createSafetySettings は、安全フィルター設定を作成します
func createSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}

// formatSafetyRatings は、ログ出力用にSafetyRatingsを「カテゴリ=確率」の形式で連結します
// ブロックされたカテゴリには(blocked)を付けます
func formatSafetyRatings(ratings []*genai.SafetyRating) string {
	var details []string
	for _, rating := range ratings {
		if rating == nil {
			continue
		}
		detail := fmt.Sprintf("%s=%s", strings.TrimPrefix(string(rating.Category), "HARM_CATEGORY_"), rating.Probability)
		if rating.Blocked {
			detail += "(blocked)"
		}
		details = append(details, detail)
	}

	if len(details) == 0 {
		return "詳細情報なし"
	}
	return strings.Join(details, ", ")
}

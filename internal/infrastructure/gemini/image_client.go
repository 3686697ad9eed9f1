package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"vibecheck/internal/domain"

	"google.golang.org/genai"
)

// markdownImagePattern は、Markdown形式の画像リンク ![alt](url) に一致します
var markdownImagePattern = regexp.MustCompile(`!\[.*?\]\((https?://[^)\s]+)\)`)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// createImageGenerateConfig は、画像生成用の設定を作成します
func (g *GeminiAPIClient) createImageGenerateConfig() *genai.GenerateContentConfig {
	temperature := g.config.Temperature
	topP := g.config.TopP

	return &genai.GenerateContentConfig{
		Temperature:        &temperature,
		TopP:               &topP,
		ResponseModalities: []string{string(genai.ModalityText), string(genai.ModalityImage)},
		SafetySettings:     createSafetySettings(),
	}
}

// GenerateImage は、プロンプトから画像を生成し、data URIまたはURLを返します
func (g *GeminiAPIClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	g.logger.DebugContext(ctx, "Gemini APIに画像生成をリクエスト中", "model", g.config.ImageModelName, "chars", len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, g.config.ImageModelName, genai.Text(prompt), g.createImageGenerateConfig())
	if err != nil {
		return "", wrapRequestError(ctx, err)
	}

	return g.processImageResponse(ctx, resp)
}

// processImageResponse は、画像生成レスポンスから画像を取り出します
// インライン画像を優先し、無い場合はテキスト中の画像URLを探します
func (g *GeminiAPIClient) processImageResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	candidate, err := g.firstCandidate(ctx, resp)
	if err != nil {
		return "", err
	}

	for i, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
			continue
		}
		g.logger.DebugContext(ctx, "インライン画像を発見", "part", i, "mime_type", part.InlineData.MIMEType, "bytes", len(part.InlineData.Data))
		return encodeDataURI(part.InlineData.MIMEType, part.InlineData.Data), nil
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if imageURL := extractImageURLFromText(part.Text); imageURL != "" {
			g.logger.DebugContext(ctx, "テキストから画像URLを発見", "url", imageURL)
			return imageURL, nil
		}
	}

	return "", fmt.Errorf("%w: 画像が見つかりませんでした", domain.ErrMalformedPayload)
}

// encodeDataURI は、画像データをdata URIに変換します
func encodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// extractImageURLFromText は、テキストから画像URLを抽出します
func extractImageURLFromText(text string) string {
	if match := markdownImagePattern.FindStringSubmatch(text); len(match) > 1 {
		return match[1]
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
			continue
		}

		lower := strings.ToLower(line)
		for _, ext := range imageExtensions {
			if strings.Contains(lower, ext) {
				return line
			}
		}
	}

	return ""
}

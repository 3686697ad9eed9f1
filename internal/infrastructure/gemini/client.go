package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vibecheck/internal/domain"
	"vibecheck/internal/infrastructure/config"

	"google.golang.org/genai"
)

// GeminiAPIClient は、Gemini APIとの通信を行うクライアントです
// キャプション生成と画像生成の両方を提供します
type GeminiAPIClient struct {
	client       *genai.Client
	config       *config.GeminiConfig
	systemPrompt string
	logger       *slog.Logger
}

// NewGeminiAPIClient は新しいGeminiAPIClientインスタンスを作成します
func NewGeminiAPIClient(ctx context.Context, geminiConfig *config.GeminiConfig, systemPrompt string, logger *slog.Logger) (*GeminiAPIClient, error) {
	if geminiConfig == nil {
		geminiConfig = config.DefaultGeminiConfig()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if geminiConfig.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: geminiConfig.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
	}

	return &GeminiAPIClient{
		client:       client,
		config:       geminiConfig,
		systemPrompt: systemPrompt,
		logger:       logger,
	}, nil
}

// captionSchema は、キャプション応答のJSONスキーマです
var captionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"text": {
			Type:        genai.TypeString,
			Description: "Oku's one or two sentence caption",
		},
		"tags": {
			Type:        genai.TypeArray,
			Description: "Up to four short hashtags",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"text"},
}

// createGenerateConfig は、キャプション生成用の設定を作成します
func (g *GeminiAPIClient) createGenerateConfig() *genai.GenerateContentConfig {
	temperature := g.config.Temperature
	topP := g.config.TopP
	topK := float32(g.config.TopK)

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  g.config.MaxTokens,
		Temperature:      &temperature,
		TopP:             &topP,
		ResponseMIMEType: "application/json",
		ResponseSchema:   captionSchema,
		SafetySettings:   createSafetySettings(),
	}
	if g.config.TopK > 0 {
		cfg.TopK = &topK
	}
	if g.systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(g.systemPrompt, genai.RoleUser)
	}
	return cfg
}

// GenerateCaption は、プロンプトからキャプションとタグを含むJSON文字列を生成します
func (g *GeminiAPIClient) GenerateCaption(ctx context.Context, prompt domain.Prompt) (string, error) {
	g.logger.DebugContext(ctx, "Gemini APIにキャプション生成をリクエスト中", "model", g.config.ModelName, "chars", len(prompt.Content()))

	resp, err := g.client.Models.GenerateContent(ctx, g.config.ModelName, genai.Text(prompt.Content()), g.createGenerateConfig())
	if err != nil {
		return "", wrapRequestError(ctx, err)
	}

	return g.processResponse(ctx, resp)
}

// processResponse は、Gemini APIのレスポンスからテキスト部分を取り出します
func (g *GeminiAPIClient) processResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	candidate, err := g.firstCandidate(ctx, resp)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought && part.Text != "" {
			builder.WriteString(part.Text)
		}
	}

	result := builder.String()
	if strings.TrimSpace(result) == "" {
		return "", fmt.Errorf("%w: Gemini APIの応答にテキストが含まれていません", domain.ErrMalformedPayload)
	}

	g.logger.DebugContext(ctx, "Gemini APIから応答を取得", "chars", len(result), "finish_reason", string(candidate.FinishReason))
	return result, nil
}

// firstCandidate は、レスポンスの最初の候補を検証して返します
func (g *GeminiAPIClient) firstCandidate(ctx context.Context, resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: プロンプトがブロックされました: %s", domain.ErrMalformedPayload, resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("%w: Gemini APIから有効な応答が得られませんでした", domain.ErrMalformedPayload)
	}

	candidate := resp.Candidates[0]

	// FinishReasonをチェックして安全フィルターによるブロックを検出
	switch candidate.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonImageSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		ratings := formatSafetyRatings(candidate.SafetyRatings)
		g.logger.WarnContext(ctx, "安全フィルターによって応答がブロックされました", "finish_reason", string(candidate.FinishReason), "ratings", ratings)
		return nil, fmt.Errorf("%w: Gemini APIの安全フィルターによって応答がブロックされました: %s", domain.ErrMalformedPayload, ratings)
	case genai.FinishReasonRecitation:
		return nil, fmt.Errorf("%w: Gemini APIが著作権保護された内容を検出しました", domain.ErrMalformedPayload)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: Gemini APIの応答にコンテンツが含まれていません", domain.ErrMalformedPayload)
	}

	return candidate, nil
}

// wrapRequestError は、通信エラーに文脈を付与します
func wrapRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("Gemini APIへのリクエストがタイムアウトしました: %w", context.DeadlineExceeded)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("Gemini APIがエラーを返しました (code=%d, status=%s): %w", apiErr.Code, apiErr.Status, err)
	}
	return fmt.Errorf("Gemini APIからの応答取得に失敗: %w", err)
}

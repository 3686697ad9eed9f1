package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vibecheck/internal/domain"
)

// imagePromptTemplate は、キャプションを文脈として画像生成用のプロンプトを組み立てるテンプレートです
const imagePromptTemplate = `Create a vibrant, photorealistic selfie of Oku, a stylish Gen Z reindeer, in Ruka, Finland.
Snowy fells, northern lights and neon après-ski energy. Vertical 4:5 framing, no text in the image.
Scene requested by the traveller: %s
Oku's caption for the moment: %s`

// VibeGenerationClient は、キャプション生成と画像生成を順に呼び出すクライアントです
//
// 画像生成はキャプション生成が成功した後にのみ実行されます。
// 画像生成が失敗またはタイムアウトした場合は、画像なしの結果として成功を返します。
// クライアント内部ではリトライを行いません。
type VibeGenerationClient struct {
	captions       CaptionGenerator
	images         ImageGenerator
	requestTimeout time.Duration
	imageTimeout   time.Duration
	logger         *slog.Logger
}

// NewVibeGenerationClient は新しいVibeGenerationClientインスタンスを作成します
// imagesがnilの場合、画像生成フェーズは実行されません
func NewVibeGenerationClient(captions CaptionGenerator, images ImageGenerator, requestTimeout, imageTimeout time.Duration, logger *slog.Logger) *VibeGenerationClient {
	return &VibeGenerationClient{
		captions:       captions,
		images:         images,
		requestTimeout: requestTimeout,
		imageTimeout:   imageTimeout,
		logger:         logger,
	}
}

// Generate は、プロンプトからバイブチェックの生ペイロードを生成します
// onImagePhaseは画像生成フェーズに入る直前に1回だけ呼び出されます
func (c *VibeGenerationClient) Generate(ctx context.Context, prompt domain.Prompt, onImagePhase func()) (domain.RawPayload, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	content, err := c.captions.GenerateCaption(ctx, prompt)
	if err != nil {
		return domain.RawPayload{}, classifyFailure(ctx, err)
	}

	payload, err := decodeCaption(content)
	if err != nil {
		return domain.RawPayload{}, domain.NewGenerationFailure(domain.FailureMalformedPayload, err)
	}
	c.logger.DebugContext(ctx, "キャプションを取得", "chars", len(payload.Text), "tags", len(payload.Tags), "latency", time.Since(start))

	// 空のキャプションは正規化で失敗するため、画像生成を呼び出さない
	if c.images == nil || strings.TrimSpace(payload.Text) == "" {
		payload.ImageURL = ""
		return payload, nil
	}

	if onImagePhase != nil {
		onImagePhase()
	}

	payload.ImageURL = c.generateImage(ctx, prompt, payload.Text)
	return payload, nil
}

// generateImage は画像を生成し、失敗した場合は空文字を返します
func (c *VibeGenerationClient) generateImage(ctx context.Context, prompt domain.Prompt, caption string) string {
	if c.imageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.imageTimeout)
		defer cancel()
	}

	start := time.Now()
	imagePrompt := fmt.Sprintf(imagePromptTemplate, prompt.Content(), strings.TrimSpace(caption))
	imageURL, err := c.images.GenerateImage(ctx, imagePrompt)
	if err != nil {
		c.logger.WarnContext(ctx, "画像生成に失敗したため、テキストのみの結果を返します",
			"kind", classifyFailure(ctx, err).Kind.String(), "error", err, "latency", time.Since(start))
		return ""
	}

	c.logger.DebugContext(ctx, "画像を取得", "bytes", len(imageURL), "latency", time.Since(start))
	return imageURL
}

// decodeCaption は、プロバイダーが返したJSONを生ペイロードに変換します
func decodeCaption(content string) (domain.RawPayload, error) {
	content = stripCodeFence(content)
	if content == "" {
		return domain.RawPayload{}, errors.New("応答が空です")
	}

	var payload domain.RawPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return domain.RawPayload{}, fmt.Errorf("JSONの解析に失敗しました: %w", err)
	}
	return payload, nil
}

// stripCodeFence は、Markdownのコードブロックで囲まれた応答から中身を取り出します
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if newline := strings.Index(content, "\n"); newline >= 0 {
		content = content[newline+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// classifyFailure は、任意のエラーを*domain.GenerationFailureに分類します
func classifyFailure(ctx context.Context, err error) *domain.GenerationFailure {
	var failure *domain.GenerationFailure
	if errors.As(err, &failure) {
		return failure
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.NewGenerationFailure(domain.FailureTimeout, err)
	case errors.Is(err, domain.ErrMalformedPayload):
		return domain.NewGenerationFailure(domain.FailureMalformedPayload, err)
	case errors.Is(err, domain.ErrEmptyText):
		return domain.NewGenerationFailure(domain.FailureEmptyText, err)
	default:
		return domain.NewGenerationFailure(domain.FailureProviderUnavailable, err)
	}
}

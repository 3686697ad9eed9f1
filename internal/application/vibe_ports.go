package application

import (
	"context"

	"vibecheck/internal/domain"
)

// CaptionGenerator は、キャプションとタグを生成するAIプロバイダーとの境界です
type CaptionGenerator interface {
	// GenerateCaption は、プロンプトからキャプションとタグを含むJSON文字列を生成します
	GenerateCaption(ctx context.Context, prompt domain.Prompt) (string, error)
}

// ImageGenerator は、画像を生成するAIプロバイダーとの境界です
type ImageGenerator interface {
	// GenerateImage は、プロンプトから画像を生成し、data URIまたはURLを返します
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Generator は、1回の論理的な生成リクエストを実行するクライアントのインターフェースです
// 失敗は常に*domain.GenerationFailureとして返されます
type Generator interface {
	Generate(ctx context.Context, prompt domain.Prompt, onImagePhase func()) (domain.RawPayload, error)
}

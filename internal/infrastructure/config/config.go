package config

import "time"

// GeminiConfig は、Gemini API関連の設定を定義します
type GeminiConfig struct {
	APIKey         string
	BaseURL        string // APIエンドポイントの上書き（プロキシやテスト用）
	ModelName      string
	ImageModelName string // 画像生成用モデル名
	MaxTokens      int32
	Temperature    float32
	TopP           float32
	TopK           int32
	EnableImageGen bool // 画像生成機能の有効/無効
}

// DefaultGeminiConfig は、デフォルトのGemini設定を返します
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		ModelName:      "gemini-2.5-flash",
		ImageModelName: "gemini-2.5-flash-image",
		MaxTokens:      1000,
		Temperature:    0.9,
		TopP:           0.95,
		TopK:           40,
		EnableImageGen: true,
	}
}

// VibeConfig は、バイブチェックの生成処理に関する設定を定義します
type VibeConfig struct {
	RequestTimeout  time.Duration // 生成処理全体のタイムアウト
	ImageTimeout    time.Duration // 画像生成フェーズのタイムアウト
	MaxPromptLength int           // プロンプトの最大文字数
	SystemPrompt    string
	LogLevel        string
}

// DefaultSystemPrompt は、Oku the Reindeerのペルソナを定義するシステムプロンプトです
const DefaultSystemPrompt = `You are Oku, a Gen Z reindeer who lives in Ruka, Finland and knows every slope, sauna and après-ski spot.
Answer the traveller's message with one short, witty caption (max 2 sentences, emojis welcome) that starts with "Oku says:".
Also suggest up to 4 short tags about the vibe (e.g. "nightlife", "ruka", "aurora").`

// DefaultVibeConfig は、デフォルトのバイブチェック設定を返します
func DefaultVibeConfig() *VibeConfig {
	return &VibeConfig{
		RequestTimeout:  45 * time.Second,
		ImageTimeout:    30 * time.Second,
		MaxPromptLength: 500,
		SystemPrompt:    DefaultSystemPrompt,
		LogLevel:        "info",
	}
}

// DiscordConfig は、Discord関連の設定を定義します
type DiscordConfig struct {
	BotToken string
	GuildID  string // スラッシュコマンドを登録するギルド（空の場合はグローバル）
}

package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"vibecheck/internal/infrastructure/config"

	"github.com/joho/godotenv"
)

// Config は、アプリケーション全体の設定を定義します
type Config struct {
	Discord config.DiscordConfig
	Gemini  config.GeminiConfig
	Vibe    config.VibeConfig
}

// LoadConfig は、環境変数から設定を読み込みます
// 検証は利用するクライアントに応じてValidateまたはValidateForTerminalで行います
func LoadConfig() (*Config, error) {
	// .envファイルを読み込み（ファイルが存在しない場合は無視）
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "警告: .envファイルの読み込みに失敗しました: %v\n", err)
	}

	geminiDefaults := config.DefaultGeminiConfig()
	vibeDefaults := config.DefaultVibeConfig()

	cfg := &Config{
		Discord: config.DiscordConfig{
			BotToken: getEnvOrDefault("DISCORD_BOT_TOKEN", ""),
			GuildID:  getEnvOrDefault("DISCORD_GUILD_ID", ""),
		},
		Gemini: config.GeminiConfig{
			APIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
			BaseURL:        getEnvOrDefault("GEMINI_BASE_URL", ""),
			ModelName:      getEnvOrDefault("GEMINI_MODEL_NAME", geminiDefaults.ModelName),
			ImageModelName: getEnvOrDefault("GEMINI_IMAGE_MODEL_NAME", geminiDefaults.ImageModelName),
			MaxTokens:      int32(getEnvAsIntOrDefault("GEMINI_MAX_TOKENS", int(geminiDefaults.MaxTokens))),
			Temperature:    float32(getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", float64(geminiDefaults.Temperature))),
			TopP:           float32(getEnvAsFloatOrDefault("GEMINI_TOP_P", float64(geminiDefaults.TopP))),
			TopK:           int32(getEnvAsIntOrDefault("GEMINI_TOP_K", int(geminiDefaults.TopK))),
			EnableImageGen: getEnvAsBoolOrDefault("GEMINI_ENABLE_IMAGE_GEN", geminiDefaults.EnableImageGen),
		},
		Vibe: config.VibeConfig{
			RequestTimeout:  getEnvAsDurationOrDefault("REQUEST_TIMEOUT", vibeDefaults.RequestTimeout),
			ImageTimeout:    getEnvAsDurationOrDefault("IMAGE_TIMEOUT", vibeDefaults.ImageTimeout),
			MaxPromptLength: getEnvAsIntOrDefault("MAX_PROMPT_LENGTH", vibeDefaults.MaxPromptLength),
			SystemPrompt:    getEnvOrDefault("SYSTEM_PROMPT", vibeDefaults.SystemPrompt),
			LogLevel:        getEnvOrDefault("LOG_LEVEL", vibeDefaults.LogLevel),
		},
	}

	return cfg, nil
}

// Validate は、Discord Botとして起動するための設定の妥当性を検証します
func (c *Config) Validate() error {
	if c.Discord.BotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN が設定されていません")
	}

	return c.ValidateForTerminal()
}

// ValidateForTerminal は、Discordを使用しないクライアント向けに設定の妥当性を検証します
func (c *Config) ValidateForTerminal() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}

	if c.Gemini.ModelName == "" {
		return fmt.Errorf("GEMINI_MODEL_NAME が設定されていません")
	}

	if c.Gemini.EnableImageGen && c.Gemini.ImageModelName == "" {
		return fmt.Errorf("GEMINI_IMAGE_MODEL_NAME が設定されていません")
	}

	if c.Gemini.MaxTokens <= 0 {
		return fmt.Errorf("GEMINI_MAX_TOKENS は正の整数である必要があります")
	}

	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE は0以上2以下の値である必要があります")
	}

	if c.Gemini.TopP < 0 || c.Gemini.TopP > 1 {
		return fmt.Errorf("GEMINI_TOP_P は0以上1以下の値である必要があります")
	}

	if c.Vibe.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT は正の値である必要があります")
	}

	if c.Vibe.ImageTimeout <= 0 {
		return fmt.Errorf("IMAGE_TIMEOUT は正の値である必要があります")
	}

	if c.Vibe.ImageTimeout > c.Vibe.RequestTimeout {
		return fmt.Errorf("IMAGE_TIMEOUT は REQUEST_TIMEOUT 以下である必要があります")
	}

	if c.Vibe.MaxPromptLength <= 0 {
		return fmt.Errorf("MAX_PROMPT_LENGTH は正の整数である必要があります")
	}

	switch c.Vibe.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL は debug, info, warn, error のいずれかである必要があります")
	}

	return nil
}

// getEnvOrDefault は、環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は、環境変数を整数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault は、環境変数を浮動小数点数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault は、環境変数を時間として取得し、存在しない場合はデフォルト値を返します
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は、環境変数を真偽値として取得し、存在しない場合はデフォルト値を返します
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

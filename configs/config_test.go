package configs

import (
	"os"
	"testing"
	"time"

	"vibecheck/internal/infrastructure/config"
)

// validConfig は、検証を通過する設定を返します
func validConfig() *Config {
	return &Config{
		Discord: config.DiscordConfig{
			BotToken: "test-token",
		},
		Gemini: config.GeminiConfig{
			APIKey:         "test-api-key",
			ModelName:      "gemini-2.5-flash",
			ImageModelName: "gemini-2.5-flash-image",
			MaxTokens:      1000,
			Temperature:    0.9,
			TopP:           0.95,
			TopK:           40,
			EnableImageGen: true,
		},
		Vibe: config.VibeConfig{
			RequestTimeout:  45 * time.Second,
			ImageTimeout:    30 * time.Second,
			MaxPromptLength: 500,
			SystemPrompt:    "test prompt",
			LogLevel:        "info",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "有効な設定",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "Discord BotTokenが空",
			mutate:  func(c *Config) { c.Discord.BotToken = "" },
			wantErr: true,
			errMsg:  "DISCORD_BOT_TOKEN が設定されていません",
		},
		{
			name:    "Gemini APIKeyが空",
			mutate:  func(c *Config) { c.Gemini.APIKey = "" },
			wantErr: true,
			errMsg:  "GEMINI_API_KEY が設定されていません",
		},
		{
			name:    "画像生成が有効で画像モデル名が空",
			mutate:  func(c *Config) { c.Gemini.ImageModelName = "" },
			wantErr: true,
			errMsg:  "GEMINI_IMAGE_MODEL_NAME が設定されていません",
		},
		{
			name: "画像生成が無効なら画像モデル名は不要",
			mutate: func(c *Config) {
				c.Gemini.ImageModelName = ""
				c.Gemini.EnableImageGen = false
			},
			wantErr: false,
		},
		{
			name:    "MaxTokensが0以下",
			mutate:  func(c *Config) { c.Gemini.MaxTokens = 0 },
			wantErr: true,
			errMsg:  "GEMINI_MAX_TOKENS は正の整数である必要があります",
		},
		{
			name:    "Temperatureが範囲外（負の値）",
			mutate:  func(c *Config) { c.Gemini.Temperature = -0.1 },
			wantErr: true,
			errMsg:  "GEMINI_TEMPERATURE は0以上2以下の値である必要があります",
		},
		{
			name:    "Temperatureが範囲外（2を超える）",
			mutate:  func(c *Config) { c.Gemini.Temperature = 2.1 },
			wantErr: true,
			errMsg:  "GEMINI_TEMPERATURE は0以上2以下の値である必要があります",
		},
		{
			name:    "TopPが範囲外",
			mutate:  func(c *Config) { c.Gemini.TopP = 1.5 },
			wantErr: true,
			errMsg:  "GEMINI_TOP_P は0以上1以下の値である必要があります",
		},
		{
			name:    "RequestTimeoutが0",
			mutate:  func(c *Config) { c.Vibe.RequestTimeout = 0 },
			wantErr: true,
			errMsg:  "REQUEST_TIMEOUT は正の値である必要があります",
		},
		{
			name:    "ImageTimeoutがRequestTimeoutを超える",
			mutate:  func(c *Config) { c.Vibe.ImageTimeout = time.Minute },
			wantErr: true,
			errMsg:  "IMAGE_TIMEOUT は REQUEST_TIMEOUT 以下である必要があります",
		},
		{
			name:    "MaxPromptLengthが0",
			mutate:  func(c *Config) { c.Vibe.MaxPromptLength = 0 },
			wantErr: true,
			errMsg:  "MAX_PROMPT_LENGTH は正の整数である必要があります",
		},
		{
			name:    "不正なLogLevel",
			mutate:  func(c *Config) { c.Vibe.LogLevel = "verbose" },
			wantErr: true,
			errMsg:  "LOG_LEVEL は debug, info, warn, error のいずれかである必要があります",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("エラーが期待されましたが、発生しませんでした")
				} else if err.Error() != tt.errMsg {
					t.Errorf("期待されるエラーメッセージ: %s, 実際: %s", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("予期しないエラーが発生しました: %v", err)
				}
			}
		})
	}
}

func TestConfig_ValidateForTerminal_WithoutDiscordToken(t *testing.T) {
	cfg := validConfig()
	cfg.Discord.BotToken = ""

	if err := cfg.ValidateForTerminal(); err != nil {
		t.Errorf("ターミナルクライアントではDiscordトークンは不要です: %v", err)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GEMINI_MODEL_NAME", "gemini-test")
	t.Setenv("GEMINI_ENABLE_IMAGE_GEN", "false")
	t.Setenv("REQUEST_TIMEOUT", "20s")
	t.Setenv("IMAGE_TIMEOUT", "10s")
	t.Setenv("MAX_PROMPT_LENGTH", "120")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗: %v", err)
	}

	if cfg.Gemini.APIKey != "env-key" {
		t.Errorf("期待されるAPIKey: env-key, 実際: %s", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.ModelName != "gemini-test" {
		t.Errorf("期待されるModelName: gemini-test, 実際: %s", cfg.Gemini.ModelName)
	}
	if cfg.Gemini.EnableImageGen {
		t.Error("EnableImageGenがfalseになっていません")
	}
	if cfg.Vibe.RequestTimeout != 20*time.Second {
		t.Errorf("期待されるRequestTimeout: 20s, 実際: %v", cfg.Vibe.RequestTimeout)
	}
	if cfg.Vibe.ImageTimeout != 10*time.Second {
		t.Errorf("期待されるImageTimeout: 10s, 実際: %v", cfg.Vibe.ImageTimeout)
	}
	if cfg.Vibe.MaxPromptLength != 120 {
		t.Errorf("期待されるMaxPromptLength: 120, 実際: %d", cfg.Vibe.MaxPromptLength)
	}
	if cfg.Vibe.LogLevel != "debug" {
		t.Errorf("期待されるLogLevel: debug, 実際: %s", cfg.Vibe.LogLevel)
	}
	if cfg.Vibe.SystemPrompt != config.DefaultSystemPrompt {
		t.Error("SYSTEM_PROMPT未設定時にデフォルトのシステムプロンプトが使われていません")
	}
	if err := cfg.ValidateForTerminal(); err != nil {
		t.Errorf("予期しないエラーが発生しました: %v", err)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	// 環境変数をクリア
	os.Unsetenv("TEST_ENV_VAR")

	// デフォルト値のテスト
	result := getEnvOrDefault("TEST_ENV_VAR", "default")
	if result != "default" {
		t.Errorf("期待される値: default, 実際: %s", result)
	}

	// 環境変数が設定されている場合のテスト
	os.Setenv("TEST_ENV_VAR", "test-value")
	defer os.Unsetenv("TEST_ENV_VAR")

	result = getEnvOrDefault("TEST_ENV_VAR", "default")
	if result != "test-value" {
		t.Errorf("期待される値: test-value, 実際: %s", result)
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	// 環境変数をクリア
	os.Unsetenv("TEST_INT_VAR")

	// デフォルト値のテスト
	result := getEnvAsIntOrDefault("TEST_INT_VAR", 42)
	if result != 42 {
		t.Errorf("期待される値: 42, 実際: %d", result)
	}

	// 有効な整数値のテスト
	os.Setenv("TEST_INT_VAR", "123")
	defer os.Unsetenv("TEST_INT_VAR")

	result = getEnvAsIntOrDefault("TEST_INT_VAR", 42)
	if result != 123 {
		t.Errorf("期待される値: 123, 実際: %d", result)
	}

	// 無効な値のテスト
	os.Setenv("TEST_INT_VAR", "invalid")
	result = getEnvAsIntOrDefault("TEST_INT_VAR", 42)
	if result != 42 {
		t.Errorf("無効な値の場合、デフォルト値が返されるべきです。期待: 42, 実際: %d", result)
	}
}

func TestGetEnvAsFloatOrDefault(t *testing.T) {
	// 環境変数をクリア
	os.Unsetenv("TEST_FLOAT_VAR")

	// デフォルト値のテスト
	result := getEnvAsFloatOrDefault("TEST_FLOAT_VAR", 3.14)
	if result != 3.14 {
		t.Errorf("期待される値: 3.14, 実際: %f", result)
	}

	// 有効な浮動小数点値のテスト
	os.Setenv("TEST_FLOAT_VAR", "2.71")
	defer os.Unsetenv("TEST_FLOAT_VAR")

	result = getEnvAsFloatOrDefault("TEST_FLOAT_VAR", 3.14)
	if result != 2.71 {
		t.Errorf("期待される値: 2.71, 実際: %f", result)
	}

	// 無効な値のテスト
	os.Setenv("TEST_FLOAT_VAR", "invalid")
	result = getEnvAsFloatOrDefault("TEST_FLOAT_VAR", 3.14)
	if result != 3.14 {
		t.Errorf("無効な値の場合、デフォルト値が返されるべきです。期待: 3.14, 実際: %f", result)
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	// 環境変数をクリア
	os.Unsetenv("TEST_DURATION_VAR")

	// デフォルト値のテスト
	defaultDuration := 30 * time.Second
	result := getEnvAsDurationOrDefault("TEST_DURATION_VAR", defaultDuration)
	if result != defaultDuration {
		t.Errorf("期待される値: %v, 実際: %v", defaultDuration, result)
	}

	// 有効な時間値のテスト
	os.Setenv("TEST_DURATION_VAR", "60s")
	defer os.Unsetenv("TEST_DURATION_VAR")

	expectedDuration := 60 * time.Second
	result = getEnvAsDurationOrDefault("TEST_DURATION_VAR", defaultDuration)
	if result != expectedDuration {
		t.Errorf("期待される値: %v, 実際: %v", expectedDuration, result)
	}

	// 無効な値のテスト
	os.Setenv("TEST_DURATION_VAR", "invalid")
	result = getEnvAsDurationOrDefault("TEST_DURATION_VAR", defaultDuration)
	if result != defaultDuration {
		t.Errorf("無効な値の場合、デフォルト値が返されるべきです。期待: %v, 実際: %v", defaultDuration, result)
	}
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	// 環境変数をクリア
	os.Unsetenv("TEST_BOOL_VAR")

	// デフォルト値のテスト
	if result := getEnvAsBoolOrDefault("TEST_BOOL_VAR", true); result != true {
		t.Errorf("期待される値: true, 実際: %v", result)
	}

	// 有効な真偽値のテスト
	os.Setenv("TEST_BOOL_VAR", "false")
	defer os.Unsetenv("TEST_BOOL_VAR")

	if result := getEnvAsBoolOrDefault("TEST_BOOL_VAR", true); result != false {
		t.Errorf("期待される値: false, 実際: %v", result)
	}

	// 無効な値のテスト
	os.Setenv("TEST_BOOL_VAR", "maybe")
	if result := getEnvAsBoolOrDefault("TEST_BOOL_VAR", true); result != true {
		t.Errorf("無効な値の場合、デフォルト値が返されるべきです。期待: true, 実際: %v", result)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"vibecheck/configs"
	"vibecheck/internal/application"
	"vibecheck/internal/infrastructure/gemini"
	"vibecheck/internal/infrastructure/logging"
	"vibecheck/internal/presentation/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logPath := flag.String("log", "", "ログの出力先ファイル（空の場合は出力しません）")
	saveDir := flag.String("save-dir", ".", "画像の保存先ディレクトリ")
	flag.Parse()

	cfg, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if err := cfg.ValidateForTerminal(); err != nil {
		return fmt.Errorf("設定が不正です: %w", err)
	}

	// 画面を乱さないよう、ログはファイルにのみ出力
	logger, closeLog, err := openLogger(cfg.Vibe.LogLevel, *logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	geminiClient, err := gemini.NewGeminiAPIClient(context.Background(), &cfg.Gemini, cfg.Vibe.SystemPrompt, logger.With("component", "gemini"))
	if err != nil {
		return fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
	}

	var images application.ImageGenerator
	if cfg.Gemini.EnableImageGen {
		images = geminiClient
	}
	generator := application.NewVibeGenerationClient(
		geminiClient,
		images,
		cfg.Vibe.RequestTimeout,
		cfg.Vibe.ImageTimeout,
		logger.With("component", "generation"),
	)

	service := application.NewVibeSessionService(generator, cfg.Vibe.MaxPromptLength, logger.With("component", "session"))
	defer service.Close()

	return tui.Run(service, cfg.Vibe.MaxPromptLength, *saveDir, tea.WithAltScreen())
}

// openLogger は、指定されたファイルに出力するロガーを作成します
func openLogger(level, path string) (*slog.Logger, func(), error) {
	if path == "" {
		logger, err := logging.NewLogger(level, io.Discard)
		return logger, func() {}, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("ログファイルを開けません: %w", err)
	}
	logger, err := logging.NewLogger(level, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, func() { f.Close() }, nil
}

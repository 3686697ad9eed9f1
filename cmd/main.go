package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibecheck/configs"
	"vibecheck/internal/application"
	discordInfra "vibecheck/internal/infrastructure/discord"
	"vibecheck/internal/infrastructure/gemini"
	"vibecheck/internal/infrastructure/logging"
	discordPres "vibecheck/internal/presentation/discord"

	"github.com/bwmarrin/discordgo"
)

const (
	// sessionSweepInterval は、放置されたセッションを掃除する間隔です
	sessionSweepInterval = 10 * time.Minute
	// sessionMaxIdle は、セッションを保持する最大の放置時間です
	sessionMaxIdle = time.Hour
)

func main() {
	// 設定を読み込み
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定が不正です: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Vibe.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("ロガーの作成に失敗: %v", err)
	}
	logger.Info("Nordic Vibe Check Botを起動中...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Discordセッションを作成
	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		log.Fatalf("Discordセッションの作成に失敗: %v", err)
	}

	// Botの情報を取得
	user, err := session.User("@me")
	if err != nil {
		log.Fatalf("Bot情報の取得に失敗: %v", err)
	}
	logger.Info("Bot情報を取得しました", "username", user.Username, "id", user.ID)

	// Gemini APIクライアントを作成
	geminiClient, err := gemini.NewGeminiAPIClient(ctx, &cfg.Gemini, cfg.Vibe.SystemPrompt, logger.With("component", "gemini"))
	if err != nil {
		log.Fatalf("Gemini APIクライアントの作成に失敗: %v", err)
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

	// ユーザーごとのバイブセッションを管理
	registry := discordInfra.NewSessionRegistry(func() *application.VibeSessionService {
		return application.NewVibeSessionService(generator, cfg.Vibe.MaxPromptLength, logger.With("component", "session"))
	})
	defer registry.Close()

	// スラッシュコマンドハンドラを作成
	handler := discordPres.NewSlashCommandHandler(session, registry, logger.With("component", "discord"))
	handler.SetupSlashCommandHandlers(session)
	defer handler.Close()

	// Discordに接続
	if err := session.Open(); err != nil {
		log.Fatalf("Discordへの接続に失敗: %v", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Discordセッションのクローズに失敗", "error", err)
		}
	}()

	// スラッシュコマンドを登録
	if err := discordPres.SetupSlashCommands(session, user.ID, cfg.Discord.GuildID, cfg.Vibe.MaxPromptLength, logger); err != nil {
		logger.Error("スラッシュコマンドの設定に失敗", "error", err)
		return
	}

	logger.Info("Discordに接続しました。Botが準備完了しました！", "commands", "/vibe, /vibe-reset, /vibe-ideas")

	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := registry.Sweep(sessionMaxIdle); removed > 0 {
				logger.Debug("放置されたセッションを削除しました", "removed", removed, "remaining", registry.Len())
			}
		case <-ctx.Done():
			logger.Info("終了シグナルを受信しました。Botを停止中...")
			return
		}
	}
}

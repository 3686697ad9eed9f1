package discord

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"vibecheck/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// スラッシュコマンド名
const (
	commandVibe      = "vibe"
	commandVibeReset = "vibe-reset"
	commandVibeIdeas = "vibe-ideas"

	optionPrompt = "prompt"
)

// ボタンのカスタムIDの接頭辞
const (
	customIDReset = "vibe-reset"
	customIDIdea  = "vibe-idea"
)

// Commands は、Botが登録するスラッシュコマンドの定義を返します
func Commands(maxPromptLength int) []*discordgo.ApplicationCommand {
	if maxPromptLength <= 0 || maxPromptLength > 6000 {
		maxPromptLength = domain.DefaultMaxPromptLength
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        commandVibe,
			Description: "Ask Oku the Reindeer for a Ruka vibe check",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optionPrompt,
					Description: "What's the vibe? e.g. Skiing in Ruka at golden hour",
					Required:    true,
					MaxLength:   maxPromptLength,
				},
			},
		},
		{
			Name:        commandVibeReset,
			Description: "Clear your current vibe check and start fresh",
		},
		{
			Name:        commandVibeIdeas,
			Description: "Get some prompt inspo from Oku",
		},
	}
}

// SetupSlashCommands は、スラッシュコマンドを登録します
// guildIDが空の場合はグローバルコマンドとして登録します
func SetupSlashCommands(s *discordgo.Session, appID, guildID string, maxPromptLength int, logger *slog.Logger) error {
	for _, command := range Commands(maxPromptLength) {
		if _, err := s.ApplicationCommandCreate(appID, guildID, command); err != nil {
			return fmt.Errorf("スラッシュコマンド %s の登録に失敗: %w", command.Name, err)
		}
		logger.Info("スラッシュコマンドを登録しました", "command", command.Name, "guild_id", guildID)
	}
	return nil
}

// parseCustomID は、ボタンのカスタムIDを接頭辞と値に分解します
func parseCustomID(customID string) (prefix, value string) {
	prefix, value, _ = strings.Cut(customID, ":")
	return prefix, value
}

// parseResetValue は、リセットボタンの値をオーナーIDと生成IDに分解します
func parseResetValue(value string) (ownerID string, generationID uint64, ok bool) {
	ownerID, rawID, found := strings.Cut(value, ":")
	if !found || ownerID == "" {
		return "", 0, false
	}
	generationID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return ownerID, generationID, true
}

// suggestionAt は、アイデアボタンの値に対応するおすすめプロンプトを返します
func suggestionAt(value string) (string, bool) {
	index, err := strconv.Atoi(value)
	if err != nil {
		return "", false
	}
	suggestions := domain.SuggestedPrompts()
	if index < 0 || index >= len(suggestions) {
		return "", false
	}
	return suggestions[index], true
}

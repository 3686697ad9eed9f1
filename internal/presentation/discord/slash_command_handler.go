package discord

import (
	"log/slog"
	"sync"
	"time"

	"vibecheck/internal/application"
	"vibecheck/internal/domain"
	discordInfra "vibecheck/internal/infrastructure/discord"

	"github.com/bwmarrin/discordgo"
)

// InteractionResponder は、インタラクションへの応答を送信するDiscord APIの境界です
// *discordgo.Sessionがこのインターフェースを満たします
type InteractionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SessionProvider は、Discordユーザーごとのセッションを提供します
type SessionProvider interface {
	Get(key discordInfra.SessionKey) *application.VibeSessionService
	Lookup(key discordInfra.SessionKey) (*application.VibeSessionService, bool)
}

// SlashCommandHandler は、Discordのスラッシュコマンドとボタンを処理するハンドラーです
type SlashCommandHandler struct {
	responder InteractionResponder
	sessions  SessionProvider
	logger    *slog.Logger
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSlashCommandHandler は新しいSlashCommandHandlerインスタンスを作成します
func NewSlashCommandHandler(responder InteractionResponder, sessions SessionProvider, logger *slog.Logger) *SlashCommandHandler {
	return &SlashCommandHandler{
		responder: responder,
		sessions:  sessions,
		logger:    logger,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// SetupSlashCommandHandlers は、スラッシュコマンドのハンドラーを設定します
func (h *SlashCommandHandler) SetupSlashCommandHandlers(s *discordgo.Session) {
	s.AddHandler(h.handleInteractionCreate)
}

// Close は、応答の追跡を停止し、追跡中のゴルーチンの終了を待ちます
func (h *SlashCommandHandler) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
	h.wg.Wait()
}

// handleInteractionCreate は、インタラクション作成イベントを処理します
func (h *SlashCommandHandler) handleInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	h.HandleInteraction(i.Interaction)
}

// HandleInteraction は、1つのインタラクションを種類に応じて振り分けます
func (h *SlashCommandHandler) HandleInteraction(i *discordgo.Interaction) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(i)
	}
}

func (h *SlashCommandHandler) handleCommand(i *discordgo.Interaction) {
	data := i.ApplicationCommandData()

	switch data.Name {
	case commandVibe:
		var prompt string
		for _, option := range data.Options {
			if option.Name == optionPrompt && option.Type == discordgo.ApplicationCommandOptionString {
				prompt = option.StringValue()
			}
		}
		h.handleVibe(i, prompt)
	case commandVibeReset:
		h.handleReset(i)
	case commandVibeIdeas:
		h.respond(i, IdeasView(), true)
	default:
		h.logger.Warn("未知のスラッシュコマンド", "command", data.Name)
	}
}

func (h *SlashCommandHandler) handleComponent(i *discordgo.Interaction) {
	prefix, value := parseCustomID(i.MessageComponentData().CustomID)

	switch prefix {
	case customIDReset:
		h.handleResetButton(i, value)
	case customIDIdea:
		prompt, ok := suggestionAt(value)
		if !ok {
			h.logger.Warn("不正なアイデアボタン", "value", value)
			return
		}
		h.handleVibe(i, prompt)
	default:
		h.logger.Warn("未知のボタン", "custom_id", i.MessageComponentData().CustomID)
	}
}

// handleVibe は、プロンプトを送信し、状態が変わるたびに応答を更新します
func (h *SlashCommandHandler) handleVibe(i *discordgo.Interaction, prompt string) {
	key := sessionKey(i)
	service := h.sessions.Get(key)
	logger := h.logger.With("guild_id", key.GuildID, "channel_id", key.ChannelID, "user_id", key.UserID)

	if err := h.responder.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		logger.Error("インタラクションへの応答に失敗", "error", err)
		return
	}

	states := make(chan domain.Session, 4)
	done := make(chan struct{})
	unsubscribe := service.Subscribe(func(state domain.Session) {
		select {
		case states <- state:
		case <-done:
		}
	})

	target, err := service.SubmitWithID(prompt)
	if err != nil {
		close(done)
		unsubscribe()
		logger.Debug("送信が受け付けられなかったため、現在の状態を表示します", "reason", err)
		h.edit(i, service.State(), key.UserID)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer unsubscribe()
		defer close(done)
		h.follow(i, key.UserID, target, states)
	}()
}

// follow は、対象の生成が終わるまで状態の変化を応答に反映します
func (h *SlashCommandHandler) follow(i *discordgo.Interaction, ownerID string, target uint64, states <-chan domain.Session) {
	for {
		select {
		case state := <-states:
			if state.GenerationID > target {
				return
			}
			if state.GenerationID < target {
				continue
			}
			h.edit(i, state, ownerID)
			if state.Status.IsTerminal() || state.Status == domain.StatusIdle {
				return
			}
		case <-h.stop:
			return
		}
	}
}

// handleReset は、/vibe-resetコマンドを処理します
func (h *SlashCommandHandler) handleReset(i *discordgo.Interaction) {
	if service, ok := h.sessions.Lookup(sessionKey(i)); ok {
		service.Reset()
	}
	h.respond(i, View{Content: "Clean slate! Oku is ready for your next vibe."}, true)
}

// handleResetButton は、カードのGO AGAIN / TRY AGAINボタンを処理します
// ボタンが属する生成が現在の結果である場合のみSessionをリセットします
func (h *SlashCommandHandler) handleResetButton(i *discordgo.Interaction, value string) {
	ownerID, generationID, ok := parseResetValue(value)
	if !ok {
		h.logger.Warn("不正なリセットボタン", "value", value)
		return
	}

	key := sessionKey(i)
	if key.UserID != ownerID {
		h.respond(i, View{Content: "Only the original viber can reset this card. Start your own with `/vibe`!"}, true)
		return
	}

	if service, ok := h.sessions.Lookup(key); ok {
		state := service.State()
		if state.GenerationID == generationID && state.Status.IsTerminal() {
			service.Reset()
		} else {
			h.logger.Debug("古いカードのボタンのためリセットしません", "card_generation_id", generationID, "current_generation_id", state.GenerationID, "status", state.Status.String())
		}
	}

	view := RenderSession(domain.NewSession(), ownerID, h.now())
	err := h.responder.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    view.Content,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		h.logger.Error("メッセージの更新に失敗", "error", err)
	}
}

// edit は、インタラクションの応答をSessionの状態で上書きします
func (h *SlashCommandHandler) edit(i *discordgo.Interaction, state domain.Session, ownerID string) {
	view := RenderSession(state, ownerID, h.now())
	if _, err := h.responder.InteractionResponseEdit(i, view.WebhookEdit()); err != nil {
		h.logger.Error("インタラクション応答の編集に失敗", "status", state.Status.String(), "error", err)
	}
}

// respond は、インタラクションに即座に応答します
func (h *SlashCommandHandler) respond(i *discordgo.Interaction, view View, ephemeral bool) {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    view.Content,
			Embeds:     view.Embeds,
			Components: view.Components,
			Files:      view.Files,
		},
	}
	if ephemeral {
		response.Data.Flags = discordgo.MessageFlagsEphemeral
	}

	if err := h.responder.InteractionRespond(i, response); err != nil {
		h.logger.Error("インタラクションへの応答に失敗", "error", err)
	}
}

// sessionKey は、インタラクションを送ったユーザーのセッションキーを返します
func sessionKey(i *discordgo.Interaction) discordInfra.SessionKey {
	key := discordInfra.SessionKey{GuildID: i.GuildID, ChannelID: i.ChannelID}
	switch {
	case i.Member != nil && i.Member.User != nil:
		key.UserID = i.Member.User.ID
	case i.User != nil:
		key.UserID = i.User.ID
	}
	return key
}

package discord

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"vibecheck/internal/application"
	"vibecheck/internal/domain"
	discordInfra "vibecheck/internal/infrastructure/discord"
	"vibecheck/internal/infrastructure/logging"

	"github.com/bwmarrin/discordgo"
)

// fakeResponder は、送信された応答を記録するテスト用のInteractionResponderです
type fakeResponder struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	editCh    chan *discordgo.WebhookEdit
}

func newFakeResponder() *fakeResponder {
	return &fakeResponder{editCh: make(chan *discordgo.WebhookEdit, 16)}
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	f.edits = append(f.edits, edit)
	f.mu.Unlock()
	f.editCh <- edit
	return &discordgo.Message{}, nil
}

func (f *fakeResponder) lastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

// waitEdit は、条件を満たす編集が届くまで待機します
func (f *fakeResponder) waitEdit(t *testing.T, match func(*discordgo.WebhookEdit) bool) *discordgo.WebhookEdit {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case edit := <-f.editCh:
			if match(edit) {
				return edit
			}
		case <-timeout:
			t.Fatal("応答の編集を待機中にタイムアウトしました")
			return nil
		}
	}
}

// scriptedGenerator は、テストから結果を送るまでブロックする生成クライアントです
type scriptedGenerator struct {
	results chan domain.RawPayload
}

func (g *scriptedGenerator) Generate(ctx context.Context, _ domain.Prompt, onImagePhase func()) (domain.RawPayload, error) {
	select {
	case payload := <-g.results:
		if payload.ImageURL != "" {
			onImagePhase()
		}
		return payload, nil
	case <-ctx.Done():
		return domain.RawPayload{}, ctx.Err()
	}
}

func newTestHandler(t *testing.T) (*SlashCommandHandler, *fakeResponder, *scriptedGenerator, *discordInfra.SessionRegistry) {
	t.Helper()
	gen := &scriptedGenerator{results: make(chan domain.RawPayload, 4)}
	registry := discordInfra.NewSessionRegistry(func() *application.VibeSessionService {
		return application.NewVibeSessionService(gen, 0, logging.Discard())
	})
	responder := newFakeResponder()
	handler := NewSlashCommandHandler(responder, registry, logging.Discard())
	handler.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		handler.Close()
		registry.Close()
	})
	return handler, responder, gen, registry
}

func commandInteraction(name, userID string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild",
		ChannelID: "channel",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data:      discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
	}
}

func buttonInteraction(customID, userID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "guild",
		ChannelID: "channel",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID, ComponentType: discordgo.ButtonComponent},
	}
}

func promptOption(prompt string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "prompt",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: prompt,
	}
}

func embedTitle(edit *discordgo.WebhookEdit) string {
	if edit.Embeds == nil || len(*edit.Embeds) == 0 {
		return ""
	}
	return (*edit.Embeds)[0].Title
}

func hasImage(edit *discordgo.WebhookEdit) bool {
	return edit.Embeds != nil && len(*edit.Embeds) > 0 && (*edit.Embeds)[0].Image != nil
}

func TestSlashCommandHandler_VibeFlow(t *testing.T) {
	handler, responder, gen, _ := newTestHandler(t)

	handler.HandleInteraction(commandInteraction("vibe", "alice", promptOption("Skiing in Ruka")))

	if resp := responder.lastResponse(); resp == nil || resp.Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Fatalf("遅延応答が期待されます: %+v", resp)
	}

	responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return strings.Contains(embedTitle(e), "Cooking up responses...")
	})

	gen.results <- domain.RawPayload{Text: "Oku says: slay", ImageURL: "data:image/png;base64,aGVsbG8="}

	responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return strings.Contains(embedTitle(e), "Rendering 4K Snow...")
	})
	final := responder.waitEdit(t, hasImage)

	if len(final.Files) != 1 || final.Files[0].Name != "ruka-rizz-1735732800123.png" {
		t.Errorf("画像が添付されていません: %+v", final.Files)
	}
}

func TestSlashCommandHandler_VibeWhileBusyShowsCurrentState(t *testing.T) {
	handler, responder, gen, registry := newTestHandler(t)

	handler.HandleInteraction(commandInteraction("vibe", "alice", promptOption("first")))
	responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return strings.Contains(embedTitle(e), "Cooking up responses...")
	})

	handler.HandleInteraction(commandInteraction("vibe", "alice", promptOption("second")))
	busy := responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return strings.Contains(embedTitle(e), "Cooking up responses...")
	})
	if desc := (*busy.Embeds)[0].Description; !strings.Contains(desc, "first") {
		t.Errorf("実行中のプロンプトが表示されるべきです: %s", desc)
	}

	service, _ := registry.Lookup(discordInfra.SessionKey{GuildID: "guild", ChannelID: "channel", UserID: "alice"})
	if state := service.State(); state.GenerationID != 1 || state.Prompt != "first" {
		t.Errorf("2回目の送信は無視されるべきです: %+v", state)
	}

	gen.results <- domain.RawPayload{Text: "Oku says: one at a time"}
}

func TestSlashCommandHandler_ResetButton(t *testing.T) {
	handler, responder, gen, registry := newTestHandler(t)

	handler.HandleInteraction(commandInteraction("vibe", "alice", promptOption("Aurora")))
	gen.results <- domain.RawPayload{Text: "Oku says: glow"}
	responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return e.Components != nil && len(*e.Components) == 1
	})

	handler.HandleInteraction(buttonInteraction("vibe-reset:alice:1", "bob"))
	if resp := responder.lastResponse(); resp.Data.Flags != discordgo.MessageFlagsEphemeral {
		t.Error("他のユーザーのリセットはエフェメラルで拒否されるべきです")
	}

	handler.HandleInteraction(buttonInteraction("vibe-reset:alice:1", "alice"))
	resp := responder.lastResponse()
	if resp.Type != discordgo.InteractionResponseUpdateMessage {
		t.Errorf("メッセージの更新が期待されます: %v", resp.Type)
	}

	service, _ := registry.Lookup(discordInfra.SessionKey{GuildID: "guild", ChannelID: "channel", UserID: "alice"})
	if state := service.State(); state.Status != domain.StatusIdle || state.Response != nil {
		t.Errorf("Idleに戻るべきです: %+v", state)
	}
}

func TestSlashCommandHandler_StaleCardResetKeepsNewerGeneration(t *testing.T) {
	handler, responder, gen, registry := newTestHandler(t)

	handler.HandleInteraction(commandInteraction("vibe", "alice", promptOption("Aurora")))
	gen.results <- domain.RawPayload{Text: "Oku says: glow"}
	responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return e.Components != nil && len(*e.Components) == 1
	})

	handler.HandleInteraction(commandInteraction("vibe", "alice", promptOption("Sauna")))
	responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return strings.Contains(embedTitle(e), "Cooking up responses...")
	})

	handler.HandleInteraction(buttonInteraction("vibe-reset:alice:1", "alice"))
	if resp := responder.lastResponse(); resp.Type != discordgo.InteractionResponseUpdateMessage {
		t.Errorf("古いカードはIdleの表示に更新されるべきです: %v", resp.Type)
	}

	service, _ := registry.Lookup(discordInfra.SessionKey{GuildID: "guild", ChannelID: "channel", UserID: "alice"})
	if state := service.State(); state.Status != domain.StatusThinking || state.GenerationID != 2 {
		t.Fatalf("新しい生成は継続するべきです: status=%s gen=%d", state.Status, state.GenerationID)
	}

	gen.results <- domain.RawPayload{Text: "Oku says: steam"}
	final := responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return e.Components != nil && len(*e.Components) == 1
	})
	if desc := (*final.Embeds)[0].Description; !strings.Contains(desc, "Oku says: steam") {
		t.Errorf("新しい生成の結果が表示されるべきです: %s", desc)
	}
}

func TestParseResetValue(t *testing.T) {
	tests := []struct {
		value      string
		wantOwner  string
		wantID     uint64
		wantParsed bool
	}{
		{value: "alice:3", wantOwner: "alice", wantID: 3, wantParsed: true},
		{value: "alice", wantParsed: false},
		{value: ":3", wantParsed: false},
		{value: "alice:x", wantParsed: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			owner, id, ok := parseResetValue(tt.value)
			if ok != tt.wantParsed || owner != tt.wantOwner || id != tt.wantID {
				t.Errorf("parseResetValue(%q) = %q, %d, %v", tt.value, owner, id, ok)
			}
		})
	}
}

func TestSlashCommandHandler_ResetCommandAbandonsGeneration(t *testing.T) {
	handler, responder, _, registry := newTestHandler(t)

	handler.HandleInteraction(commandInteraction("vibe", "alice", promptOption("Aurora")))
	responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return strings.Contains(embedTitle(e), "Cooking up responses...")
	})

	handler.HandleInteraction(commandInteraction("vibe-reset", "alice"))

	idle := responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return e.Content != nil && *e.Content != ""
	})
	if !strings.Contains(*idle.Content, "/vibe") {
		t.Errorf("Idleの案内が期待されます: %s", *idle.Content)
	}

	service, _ := registry.Lookup(discordInfra.SessionKey{GuildID: "guild", ChannelID: "channel", UserID: "alice"})
	if state := service.State(); state.Status != domain.StatusIdle {
		t.Errorf("Idleに戻るべきです: %s", state.Status)
	}
}

func TestSlashCommandHandler_Ideas(t *testing.T) {
	handler, responder, gen, _ := newTestHandler(t)

	handler.HandleInteraction(commandInteraction("vibe-ideas", "alice"))
	resp := responder.lastResponse()
	if resp.Data.Flags != discordgo.MessageFlagsEphemeral || len(resp.Data.Components) != 1 {
		t.Fatalf("アイデアのボタンがエフェメラルで表示されるべきです: %+v", resp.Data)
	}

	handler.HandleInteraction(buttonInteraction("vibe-idea:0", "alice"))
	loading := responder.waitEdit(t, func(e *discordgo.WebhookEdit) bool {
		return strings.Contains(embedTitle(e), "Cooking up responses...")
	})
	if desc := (*loading.Embeds)[0].Description; !strings.Contains(desc, domain.SuggestedPrompts()[0]) {
		t.Errorf("おすすめのプロンプトが送信されるべきです: %s", desc)
	}

	gen.results <- domain.RawPayload{Text: "Oku says: fit check passed"}
}

func TestSessionKey(t *testing.T) {
	dm := &discordgo.Interaction{ChannelID: "dm", User: &discordgo.User{ID: "alice"}}
	if key := sessionKey(dm); key.UserID != "alice" || key.GuildID != "" {
		t.Errorf("DMのキーが不正です: %+v", key)
	}

	guild := commandInteraction("vibe", "bob")
	if key := sessionKey(guild); key.UserID != "bob" || key.GuildID != "guild" || key.ChannelID != "channel" {
		t.Errorf("ギルドのキーが不正です: %+v", key)
	}
}

func TestCommands(t *testing.T) {
	commands := Commands(500)

	names := map[string]bool{}
	for _, command := range commands {
		names[command.Name] = true
	}
	for _, want := range []string{"vibe", "vibe-reset", "vibe-ideas"} {
		if !names[want] {
			t.Errorf("コマンド %s が定義されていません", want)
		}
	}
	if commands[0].Options[0].MaxLength != 500 {
		t.Errorf("プロンプトの最大長が設定されていません: %d", commands[0].Options[0].MaxLength)
	}
}

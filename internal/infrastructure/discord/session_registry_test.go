package discord

import (
	"context"
	"testing"
	"time"

	"vibecheck/internal/application"
	"vibecheck/internal/domain"
	"vibecheck/internal/infrastructure/logging"
)

// blockingGenerator は、コンテキストがキャンセルされるまで戻らない生成クライアントです
type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ domain.Prompt, _ func()) (domain.RawPayload, error) {
	<-ctx.Done()
	return domain.RawPayload{}, ctx.Err()
}

func newTestRegistry() (*SessionRegistry, *int) {
	created := 0
	registry := NewSessionRegistry(func() *application.VibeSessionService {
		created++
		return application.NewVibeSessionService(blockingGenerator{}, 0, logging.Discard())
	})
	return registry, &created
}

func TestSessionRegistry_Get(t *testing.T) {
	registry, created := newTestRegistry()
	defer registry.Close()

	alice := SessionKey{GuildID: "g1", ChannelID: "c1", UserID: "alice"}
	bob := SessionKey{GuildID: "g1", ChannelID: "c1", UserID: "bob"}

	first := registry.Get(alice)
	second := registry.Get(alice)
	other := registry.Get(bob)

	if first != second {
		t.Error("同じキーでは同じセッションが返されるべきです")
	}
	if first == other {
		t.Error("ユーザーごとに別のセッションが作成されるべきです")
	}
	if *created != 2 {
		t.Errorf("期待される作成数: 2, 実際: %d", *created)
	}
	if registry.Len() != 2 {
		t.Errorf("期待されるセッション数: 2, 実際: %d", registry.Len())
	}
}

func TestSessionRegistry_Lookup(t *testing.T) {
	registry, created := newTestRegistry()
	defer registry.Close()

	key := SessionKey{ChannelID: "dm", UserID: "alice"}
	if _, ok := registry.Lookup(key); ok {
		t.Error("存在しないセッションが見つかりました")
	}
	if *created != 0 {
		t.Error("Lookupでセッションが作成されました")
	}

	registry.Get(key)
	if _, ok := registry.Lookup(key); !ok {
		t.Error("作成したセッションが見つかりません")
	}
}

func TestSessionRegistry_Sweep(t *testing.T) {
	registry, _ := newTestRegistry()
	defer registry.Close()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }

	idle := SessionKey{UserID: "idle"}
	busy := SessionKey{UserID: "busy"}
	registry.Get(idle)
	if err := registry.Get(busy).Submit("Aurora"); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	now = now.Add(2 * time.Hour)
	fresh := SessionKey{UserID: "fresh"}
	registry.Get(fresh)

	if removed := registry.Sweep(time.Hour); removed != 1 {
		t.Errorf("期待される削除数: 1, 実際: %d", removed)
	}
	if _, ok := registry.Lookup(idle); ok {
		t.Error("アイドルのセッションが削除されていません")
	}
	if _, ok := registry.Lookup(busy); !ok {
		t.Error("生成中のセッションが削除されました")
	}
	if _, ok := registry.Lookup(fresh); !ok {
		t.Error("最近使われたセッションが削除されました")
	}
}

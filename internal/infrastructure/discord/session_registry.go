package discord

import (
	"sync"
	"time"

	"vibecheck/internal/application"
)

// SessionKey は、Discord上でセッションを識別するキーです
// 同じチャンネルでもユーザーごとに別のセッションを持ちます
type SessionKey struct {
	GuildID   string
	ChannelID string
	UserID    string
}

// ServiceFactory は、新しいVibeSessionServiceを作成する関数です
type ServiceFactory func() *application.VibeSessionService

type registryEntry struct {
	service  *application.VibeSessionService
	lastUsed time.Time
}

// SessionRegistry は、Discordユーザーごとのセッションを管理するインメモリのレジストリです
type SessionRegistry struct {
	factory  ServiceFactory
	sessions map[SessionKey]*registryEntry
	mutex    sync.Mutex
	now      func() time.Time
}

// NewSessionRegistry は新しいSessionRegistryインスタンスを作成します
func NewSessionRegistry(factory ServiceFactory) *SessionRegistry {
	return &SessionRegistry{
		factory:  factory,
		sessions: make(map[SessionKey]*registryEntry),
		now:      time.Now,
	}
}

// Get は、指定されたキーのセッションを返します。存在しない場合は作成します
func (r *SessionRegistry) Get(key SessionKey) *application.VibeSessionService {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, exists := r.sessions[key]
	if !exists {
		entry = &registryEntry{service: r.factory()}
		r.sessions[key] = entry
	}
	entry.lastUsed = r.now()
	return entry.service
}

// Lookup は、既存のセッションを返します。作成はしません
func (r *SessionRegistry) Lookup(key SessionKey) (*application.VibeSessionService, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, exists := r.sessions[key]
	if !exists {
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.service, true
}

// Len は、管理しているセッション数を返します
func (r *SessionRegistry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.sessions)
}

// Sweep は、maxIdle以上使われておらず生成中でもないセッションを閉じて削除します
// 削除したセッション数を返します
func (r *SessionRegistry) Sweep(maxIdle time.Duration) int {
	r.mutex.Lock()
	var expired []*application.VibeSessionService
	cutoff := r.now().Add(-maxIdle)
	for key, entry := range r.sessions {
		if entry.lastUsed.After(cutoff) || entry.service.State().Status.IsBusy() {
			continue
		}
		expired = append(expired, entry.service)
		delete(r.sessions, key)
	}
	r.mutex.Unlock()

	for _, service := range expired {
		service.Close()
	}
	return len(expired)
}

// Close は、すべてのセッションを閉じます
func (r *SessionRegistry) Close() {
	r.mutex.Lock()
	sessions := r.sessions
	r.sessions = make(map[SessionKey]*registryEntry)
	r.mutex.Unlock()

	for _, entry := range sessions {
		entry.service.Close()
	}
}

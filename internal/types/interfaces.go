// internal/types/interfaces.go
package types

import "context"

type ConversationStore interface {
	Load(ctx context.Context, key ConversationKey) (*ConversationState, error)
	Save(ctx context.Context, key ConversationKey, state *ConversationState) error
	UpsertEntry(ctx context.Context, key ConversationKey, entry *DiaryEntry) (*DiaryEntry, error)
	DeleteEntry(ctx context.Context, key ConversationKey, id EntryID) error
	EntryByDate(ctx context.Context, key ConversationKey, date StoryDate) (*DiaryEntry, error)
	LastDate(ctx context.Context, key ConversationKey) (*StoryDate, error)
	SetLastDate(ctx context.Context, key ConversationKey, date StoryDate) error
	AddPendingDate(ctx context.Context, key ConversationKey, date StoryDate) error
	RemovePendingDate(ctx context.Context, key ConversationKey, date StoryDate) error
	List(ctx context.Context) ([]ConversationKey, error)
}

type SettingsStore interface {
	Load(ctx context.Context) (*GlobalSettings, error)
	Save(ctx context.Context, settings *GlobalSettings) error
	SetAppearance(ctx context.Context, name, tags string) error
	Appearance(ctx context.Context, name string) (string, bool, error)
	RemoveAppearance(ctx context.Context, name string) error
	Appearances(ctx context.Context) ([]CharacterAppearance, error)
}

// HistoryProvider supplies recent dialogue for a conversation, newest last.
// The gateway feeds it; the writer reads it through the context engine.
type HistoryProvider interface {
	Recent(ctx context.Context, key ConversationKey, limit int) ([]HostMessage, error)
}

// ProfileProvider supplies narrator/user profile context when the host
// exposes it. Implementations may return an empty profile.
type ProfileProvider interface {
	Profile(ctx context.Context, key ConversationKey) (*NarratorProfile, error)
}

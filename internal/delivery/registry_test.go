// internal/delivery/registry_test.go
package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/user/inkwell/internal/types"
)

func testEntry() *types.DiaryEntry {
	return &types.DiaryEntry{
		ID:      types.NewEntryID(),
		Date:    types.StoryDate{Year: 2024, Month: 3, Day: 15},
		Content: "내용",
	}
}

func TestRegistryRoutesBySchemePrefix(t *testing.T) {
	reg := NewRegistry()

	var gotKey types.ConversationKey
	reg.Register("telegram:", func(_ context.Context, key types.ConversationKey, _ *types.DiaryEntry) error {
		gotKey = key
		return nil
	})

	key := types.NewConversationKey("Aria", "telegram:42")
	reg.EntryCreated(context.Background(), key, testEntry())
	if gotKey != key {
		t.Errorf("handler got key %q, want %q", gotKey, key)
	}
}

func TestRegistryNoHandlerIsSilent(t *testing.T) {
	reg := NewRegistry()
	// Must not panic or error; notification is best-effort.
	reg.EntryCreated(context.Background(), types.NewConversationKey("Aria", "irc:#room"), testEntry())
}

func TestRegistryHandlerErrorSwallowed(t *testing.T) {
	reg := NewRegistry()
	reg.Register("telegram:", func(_ context.Context, _ types.ConversationKey, _ *types.DiaryEntry) error {
		return errors.New("send failed")
	})
	reg.EntryCreated(context.Background(), types.NewConversationKey("Aria", "telegram:42"), testEntry())
}

func TestRegistryMultipleSchemes(t *testing.T) {
	reg := NewRegistry()

	var telegramCalls, webhookCalls int
	reg.Register("telegram:", func(_ context.Context, _ types.ConversationKey, _ *types.DiaryEntry) error {
		telegramCalls++
		return nil
	})
	reg.Register("webhook:", func(_ context.Context, _ types.ConversationKey, _ *types.DiaryEntry) error {
		webhookCalls++
		return nil
	})

	reg.EntryCreated(context.Background(), types.NewConversationKey("Aria", "telegram:42"), testEntry())
	reg.EntryCreated(context.Background(), types.NewConversationKey("Aria", "webhook:room-1"), testEntry())

	if telegramCalls != 1 {
		t.Errorf("telegram calls = %d, want 1", telegramCalls)
	}
	if webhookCalls != 1 {
		t.Errorf("webhook calls = %d, want 1", webhookCalls)
	}
}

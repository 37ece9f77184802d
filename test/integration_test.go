//go:build integration

package test

import (
	"context"
	"fmt"
	"testing"

	ctxengine "github.com/user/inkwell/internal/context"
	"github.com/user/inkwell/internal/delivery"
	"github.com/user/inkwell/internal/gateway"
	"github.com/user/inkwell/internal/host"
	"github.com/user/inkwell/internal/scheduler"
	"github.com/user/inkwell/internal/state"
	"github.com/user/inkwell/internal/tracker"
	"github.com/user/inkwell/internal/types"
	"github.com/user/inkwell/internal/writer"
	"github.com/user/inkwell/pkg/llm"
)

// mockProvider is a test double that returns a canned LLM response.
type mockProvider struct {
	response *llm.Response
	calls    int
}

func (m *mockProvider) Complete(_ context.Context, _ []llm.Message) (*llm.Response, error) {
	m.calls++
	return m.response, nil
}

const diaryResponse = `<diary>
<style>vintage</style>
<weather>🌤️</weather>
<mood>평온함</mood>
<content>오래된 서점에서 보낸 하루. 책 냄새가 좋았다.</content>
<image>1girl, silver hair, blue eyes, bookstore, reading</image>
</diary>`

// TestEndToEnd drives the full path: inbound messages with date markers
// flow through the gateway into the tracker, and closing a story date
// produces a persisted diary entry with a delivered notification.
func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	conversations := state.NewConversationStore(dir)
	settings := state.NewGlobalStore(dir)
	if err := settings.SetAppearance(ctx, "Aria", "silver hair, blue eyes"); err != nil {
		t.Fatal(err)
	}

	provider := &mockProvider{response: &llm.Response{Content: diaryResponse}}
	chain := host.NewChain(host.NewProviderGenerator(provider))

	notifier := delivery.NewRegistry()
	var delivered []*types.DiaryEntry
	notifier.Register("test:", func(_ context.Context, _ types.ConversationKey, entry *types.DiaryEntry) error {
		delivered = append(delivered, entry)
		return nil
	})

	history := gateway.NewHistory(0)
	diaryWriter := writer.New(writer.Options{
		Conversations: conversations,
		Settings:      settings,
		History:       history,
		Engine:        ctxengine.NewWithEstimator(),
		Generator:     chain,
		Notifier:      notifier,
	})
	detector := tracker.NewDetector(conversations, settings, diaryWriter)
	gw := gateway.New(tracker.Extractor{}, detector, history)

	send := func(payload string) {
		t.Helper()
		if err := gw.HandleMessage(ctx, gateway.InboundMessage{
			Narrator:     "Aria",
			Conversation: "test:room-1",
			Name:         "Aria",
			Payload:      payload,
		}); err != nil {
			t.Fatal(err)
		}
	}

	// Day one opens; no entry yet.
	send("{{RP_DATE: 2024년 3월 15일}} 아침이 밝았다")
	for i := 0; i < 3; i++ {
		send(fmt.Sprintf("서점에서의 대화 %d", i))
	}

	key := types.NewConversationKey("Aria", "test:room-1")
	if st, _ := conversations.Load(ctx, key); len(st.Entries) != 0 {
		t.Fatalf("no entry expected before the date changes, got %d", len(st.Entries))
	}

	// Day two opens; day one is written.
	send("{{RP_DATE: 2024년 3월 16일}} 다음 날 아침")

	st, err := conversations.Load(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(st.Entries))
	}
	entry := st.Entries[0]
	if !entry.Date.Equal(types.StoryDate{Year: 2024, Month: 3, Day: 15}) {
		t.Errorf("entry date = %v, want the outgoing day", entry.Date)
	}
	if entry.FontStyle != "vintage" {
		t.Errorf("style = %q", entry.FontStyle)
	}
	if st.LastDate == nil || !st.LastDate.Equal(types.StoryDate{Year: 2024, Month: 3, Day: 16}) {
		t.Errorf("last date = %v, want the new day", st.LastDate)
	}
	if len(delivered) != 1 {
		t.Errorf("delivered = %d notifications, want 1", len(delivered))
	}

	// Repeating the same date is a no-op.
	send("{{RP_DATE: 2024년 3월 16일}} 같은 날 계속")
	if st, _ := conversations.Load(ctx, key); len(st.Entries) != 1 {
		t.Errorf("same-date message must not write again")
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

// TestSweepRecovery verifies a queued pending date is eventually written by
// the catch-up sweep.
func TestSweepRecovery(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	conversations := state.NewConversationStore(dir)
	settings := state.NewGlobalStore(dir)
	key := types.NewConversationKey("Aria", "test:room-1")

	if err := conversations.AddPendingDate(ctx, key, types.StoryDate{Year: 2024, Month: 3, Day: 15}); err != nil {
		t.Fatal(err)
	}

	history := gateway.NewHistory(0)
	history.Append(key, types.HostMessage{Name: "Aria", Text: "밀린 하루의 기록"})

	provider := &mockProvider{response: &llm.Response{Content: diaryResponse}}
	diaryWriter := writer.New(writer.Options{
		Conversations: conversations,
		Settings:      settings,
		History:       history,
		Engine:        ctxengine.NewWithEstimator(),
		Generator:     host.NewChain(host.NewProviderGenerator(provider)),
	})

	sweep := scheduler.New(conversations, diaryWriter, "")
	if err := sweep.Sweep(ctx); err != nil {
		t.Fatal(err)
	}

	st, err := conversations.Load(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Entries) != 1 {
		t.Fatalf("expected 1 entry after sweep, got %d", len(st.Entries))
	}
	if len(st.PendingDates) != 0 {
		t.Errorf("pending dates not cleared: %v", st.PendingDates)
	}
}

// internal/gateway/gateway.go
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/inkwell/internal/host"
	"github.com/user/inkwell/internal/tracker"
	"github.com/user/inkwell/internal/types"
)

// DateObserver is told whenever a message carries a story date. Satisfied
// by tracker.Detector.
type DateObserver interface {
	OnDateObserved(ctx context.Context, key types.ConversationKey, date types.StoryDate) error
}

// InboundMessage is one chat message as it arrives from a host adapter,
// before any cleanup.
type InboundMessage struct {
	Narrator     string
	Conversation string
	Name         string
	Payload      string
	IsUser       bool
}

// Gateway is the single entry point for host traffic. It extracts story
// dates from the raw payload, records a cleaned copy into the dialogue
// history, and feeds the date tracker.
type Gateway struct {
	extractor tracker.Extractor
	observer  DateObserver
	history   *History
}

func New(extractor tracker.Extractor, observer DateObserver, history *History) *Gateway {
	return &Gateway{
		extractor: extractor,
		observer:  observer,
		history:   history,
	}
}

// HandleMessage processes one inbound message. Date extraction runs on the
// raw payload since markers may hide inside markup; the history records the
// flattened, marker-scrubbed text.
func (g *Gateway) HandleMessage(ctx context.Context, msg InboundMessage) error {
	if msg.Narrator == "" || msg.Conversation == "" {
		return fmt.Errorf("message missing narrator or conversation identity")
	}
	key := types.NewConversationKey(msg.Narrator, msg.Conversation)

	date, found := g.extractor.Extract(msg.Payload)

	clean := tracker.ScrubMarkers(host.FlattenHTML(msg.Payload))
	g.history.Append(key, types.HostMessage{
		Name:   msg.Name,
		Text:   clean,
		IsUser: msg.IsUser,
	})

	if !found {
		return nil
	}
	slog.Debug("story date observed", "conversation", key, "date", date)
	if err := g.observer.OnDateObserved(ctx, key, date); err != nil {
		return fmt.Errorf("observe date %s: %w", date, err)
	}
	return nil
}

// SwitchConversation clears buffered history for a conversation whose chat
// log was swapped out underneath us, so stale dialogue never leaks into the
// next diary entry. Persisted diary state is untouched.
func (g *Gateway) SwitchConversation(key types.ConversationKey) {
	g.history.Clear(key)
	slog.Info("conversation switched, history buffer cleared", "conversation", key)
}

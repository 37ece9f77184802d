// internal/tracker/tracker.go
package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/user/inkwell/internal/types"
)

// Writer is the diary writer the detector triggers on a transition.
type Writer interface {
	Write(ctx context.Context, key types.ConversationKey, date types.StoryDate) error
}

// Detector decides whether an observed story date constitutes a transition
// and drives the side effects: triggering the writer for the outgoing date
// and advancing the conversation's recorded last date.
//
// Observations are serialized per conversation: the load/compare/advance
// sequence is not atomic at the store, and concurrent HTTP deliveries of
// the same message would otherwise both see the stale last date and
// double-trigger the writer.
type Detector struct {
	conversations types.ConversationStore
	settings      types.SettingsStore
	writer        Writer

	mu    sync.Mutex
	locks map[types.ConversationKey]*sync.Mutex
}

// NewDetector wires a change detector to its stores and writer.
func NewDetector(conversations types.ConversationStore, settings types.SettingsStore, writer Writer) *Detector {
	return &Detector{
		conversations: conversations,
		settings:      settings,
		writer:        writer,
		locks:         make(map[types.ConversationKey]*sync.Mutex),
	}
}

func (d *Detector) lock(key types.ConversationKey) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[key]
	if !ok {
		l = &sync.Mutex{}
		d.locks[key] = l
	}
	return l
}

// OnDateObserved processes a newly extracted date for the conversation.
//
// A date without a year is ignored. A date equal to the recorded last date
// is the common case and a no-op. Otherwise a transition occurred: if a
// previous date existed and the effective auto-write setting is on, the
// writer is invoked for the outgoing date — the day that just ended, never
// the new one — and the new date is recorded as last date regardless of the
// write's outcome.
func (d *Detector) OnDateObserved(ctx context.Context, key types.ConversationKey, newDate types.StoryDate) error {
	if newDate.IsZero() {
		slog.Warn("ignoring date without year", "conversation", string(key))
		return nil
	}

	l := d.lock(key)
	l.Lock()
	defer l.Unlock()

	state, err := d.conversations.Load(ctx, key)
	if err != nil {
		return err
	}
	lastDate := state.LastDate

	if lastDate != nil && lastDate.Equal(newDate) {
		slog.Debug("date unchanged", "conversation", string(key), "date", newDate.String())
		return nil
	}

	if lastDate != nil && !lastDate.IsZero() {
		if d.autoWriteEnabled(ctx, state) {
			slog.Info("story date changed, writing diary for outgoing day",
				"conversation", string(key),
				"from", lastDate.String(),
				"to", newDate.String(),
			)
			if err := d.writer.Write(ctx, key, *lastDate); err != nil {
				// The write failing (or being dropped) must not stop the
				// date from advancing.
				slog.Error("diary write failed", "conversation", string(key), "date", lastDate.String(), "error", err)
			}
		} else {
			slog.Debug("auto-write disabled, skipping", "conversation", string(key))
		}
	} else {
		slog.Info("first story date observed", "conversation", string(key), "date", newDate.String())
	}

	return d.conversations.SetLastDate(ctx, key, newDate)
}

// autoWriteEnabled resolves the effective setting: the conversation override
// when present, otherwise the global default.
func (d *Detector) autoWriteEnabled(ctx context.Context, state *types.ConversationState) bool {
	if state.Settings.AutoWrite != nil {
		return *state.Settings.AutoWrite
	}
	global, err := d.settings.Load(ctx)
	if err != nil {
		slog.Warn("load global settings failed, assuming auto-write on", "error", err)
		return true
	}
	return global.AutoWrite
}

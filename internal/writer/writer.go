// internal/writer/writer.go
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	contextengine "github.com/user/inkwell/internal/context"
	"github.com/user/inkwell/internal/image"
	"github.com/user/inkwell/internal/types"
)

const historyFetchLimit = 200

// maxResponseTokens caps the diary generation request.
const maxResponseTokens = 1024

// Generator produces text from a prompt. Satisfied by host.Chain.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ImageGenerator renders an illustration for an image prompt. Satisfied by
// the image capability chain.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier is told about every newly created entry. Satisfied by the
// delivery registry.
type Notifier interface {
	EntryCreated(ctx context.Context, key types.ConversationKey, entry *types.DiaryEntry)
}

// Writer turns a closed story date into a persisted diary entry. At most
// one write per conversation runs at a time; concurrent triggers for the
// same conversation are dropped and recorded for the catch-up sweep.
type Writer struct {
	conversations types.ConversationStore
	settings      types.SettingsStore
	history       types.HistoryProvider
	profiles      types.ProfileProvider
	engine        *contextengine.Engine
	generator     Generator
	images        ImageGenerator
	notifier      Notifier

	mu      sync.Mutex
	inUse   map[types.ConversationKey]*semaphore.Weighted
	nowFunc func() time.Time
}

// Options carries the writer's collaborators. Images, Profiles and Notifier
// are optional.
type Options struct {
	Conversations types.ConversationStore
	Settings      types.SettingsStore
	History       types.HistoryProvider
	Profiles      types.ProfileProvider
	Engine        *contextengine.Engine
	Generator     Generator
	Images        ImageGenerator
	Notifier      Notifier
}

func New(opts Options) *Writer {
	return &Writer{
		conversations: opts.Conversations,
		settings:      opts.Settings,
		history:       opts.History,
		profiles:      opts.Profiles,
		engine:        opts.Engine,
		generator:     opts.Generator,
		images:        opts.Images,
		notifier:      opts.Notifier,
		inUse:         make(map[types.ConversationKey]*semaphore.Weighted),
		nowFunc:       time.Now,
	}
}

func (w *Writer) guard(key types.ConversationKey) *semaphore.Weighted {
	w.mu.Lock()
	defer w.mu.Unlock()
	sem, ok := w.inUse[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		w.inUse[key] = sem
	}
	return sem
}

// Write produces and saves the diary entry for date. A trigger that arrives
// while another write for the same conversation is in flight is dropped: the
// date is queued as pending and nil is returned. If an entry for the date
// already exists the write is a no-op.
func (w *Writer) Write(ctx context.Context, key types.ConversationKey, date types.StoryDate) error {
	sem := w.guard(key)
	if !sem.TryAcquire(1) {
		slog.Info("diary write already in flight, queueing date",
			"conversation", key, "date", date)
		if err := w.conversations.AddPendingDate(ctx, key, date); err != nil {
			return fmt.Errorf("queue pending date: %w", err)
		}
		return nil
	}
	defer sem.Release(1)

	existing, err := w.conversations.EntryByDate(ctx, key, date)
	if err != nil {
		return fmt.Errorf("check existing entry: %w", err)
	}
	if existing != nil {
		slog.Debug("diary entry already exists", "conversation", key, "date", date)
		return w.conversations.RemovePendingDate(ctx, key, date)
	}

	global, err := w.settings.Load(ctx)
	if err != nil {
		slog.Warn("failed to load settings, using defaults", "error", err)
		global = types.DefaultGlobalSettings()
	}

	messages, err := w.history.Recent(ctx, key, historyFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	messages = w.engine.Clip(messages, global.ContextTokenBudget)
	if len(messages) == 0 {
		slog.Info("no dialogue history for date, skipping diary",
			"conversation", key, "date", date)
		return nil
	}

	var profile *types.NarratorProfile
	if w.profiles != nil {
		profile, err = w.profiles.Profile(ctx, key)
		if err != nil {
			slog.Warn("failed to load narrator profile", "conversation", key, "error", err)
			profile = nil
		}
	}
	if profile == nil {
		profile = &types.NarratorProfile{CharacterName: key.Narrator()}
	}
	if profile.CharacterName == "" {
		profile.CharacterName = key.Narrator()
	}

	appearances, err := w.settings.Appearances(ctx)
	if err != nil {
		slog.Warn("failed to load character appearances", "error", err)
		appearances = nil
	}

	prompt := BuildPrompt(date, messages, profile, appearances)
	response, err := w.generator.Generate(ctx, prompt, maxResponseTokens)
	if err != nil {
		return fmt.Errorf("generate diary for %s: %w", date, err)
	}

	parsed := ParseResponse(response)

	entry := &types.DiaryEntry{
		ID:            types.NewEntryID(),
		Date:          date,
		Content:       parsed.Content,
		FontStyle:     parsed.FontStyle,
		Weather:       parsed.Weather,
		Mood:          parsed.Mood,
		CharacterName: profile.CharacterName,
		CreatedAt:     w.nowFunc(),
	}

	if w.includePhoto(ctx, key, global) && parsed.ImagePrompt != "" && w.images != nil {
		imagePrompt := image.ComposePrompt(parsed.ImagePrompt, parsed.Content, profile.CharacterName, appearances)
		url, imgErr := w.images.Generate(ctx, imagePrompt)
		if imgErr != nil {
			slog.Warn("diary image generation failed, saving entry without photo",
				"conversation", key, "date", date, "error", imgErr)
		} else if url != "" {
			entry.ImageURL = url
			entry.ImageCaption = imagePrompt
		}
	}

	saved, err := w.conversations.UpsertEntry(ctx, key, entry)
	if err != nil {
		return fmt.Errorf("save diary entry: %w", err)
	}
	if err := w.conversations.RemovePendingDate(ctx, key, date); err != nil {
		slog.Warn("failed to clear pending date", "conversation", key, "date", date, "error", err)
	}

	slog.Info("diary entry written",
		"conversation", key, "date", date, "style", saved.FontStyle, "id", saved.ID)

	if w.notifier != nil {
		w.notifier.EntryCreated(ctx, key, saved)
	}
	return nil
}

// includePhoto resolves the per-conversation override against the global
// default.
func (w *Writer) includePhoto(ctx context.Context, key types.ConversationKey, global *types.GlobalSettings) bool {
	state, err := w.conversations.Load(ctx, key)
	if err == nil && state.Settings.IncludePhoto != nil {
		return *state.Settings.IncludePhoto
	}
	return global.IncludePhoto
}

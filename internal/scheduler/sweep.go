// internal/scheduler/sweep.go
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/inkwell/internal/types"
)

// RetryWriter retries a diary write for a queued date. Satisfied by
// writer.Writer.
type RetryWriter interface {
	Write(ctx context.Context, key types.ConversationKey, date types.StoryDate) error
}

// DefaultSchedule runs the catch-up sweep every five minutes.
const DefaultSchedule = "*/5 * * * *"

// Sweeper periodically retries pending diary dates, the ones whose
// auto-write trigger was dropped while another write was in flight.
type Sweeper struct {
	conversations types.ConversationStore
	writer        RetryWriter
	schedule      string
	cron          *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a sweeper over the conversation store. An empty schedule
// falls back to DefaultSchedule.
func New(conversations types.ConversationStore, writer RetryWriter, schedule string) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		conversations: conversations,
		writer:        writer,
		schedule:      schedule,
		cron:          cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the sweep as a cron entry and starts the ticker.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Sweep(context.Background()); err != nil {
			slog.Error("pending date sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("pending date sweep scheduled", "schedule", s.schedule)
	return nil
}

// Stop stops the cron ticker.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep retries every pending date across all conversations once. Write
// failures are logged and the date stays queued for the next pass; a write
// that is dropped again simply re-queues itself.
func (s *Sweeper) Sweep(ctx context.Context) error {
	keys, err := s.conversations.List(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		state, err := s.conversations.Load(ctx, key)
		if err != nil {
			slog.Warn("sweep: failed to load conversation", "conversation", key, "error", err)
			continue
		}
		if len(state.PendingDates) == 0 {
			continue
		}
		// Copy: the writer mutates PendingDates as it succeeds.
		dates := make([]types.StoryDate, len(state.PendingDates))
		copy(dates, state.PendingDates)
		for _, date := range dates {
			slog.Info("retrying pending diary date", "conversation", key, "date", date)
			if err := s.writer.Write(ctx, key, date); err != nil {
				slog.Warn("pending date retry failed",
					"conversation", key, "date", date, "error", err)
			}
		}
	}
	return nil
}

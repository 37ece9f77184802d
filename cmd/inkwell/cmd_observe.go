package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ctxengine "github.com/user/inkwell/internal/context"
	"github.com/user/inkwell/internal/gateway"
	"github.com/user/inkwell/internal/host"
	"github.com/user/inkwell/internal/state"
	"github.com/user/inkwell/internal/tracker"
	"github.com/user/inkwell/internal/types"
	"github.com/user/inkwell/internal/writer"
	"github.com/user/inkwell/pkg/llm"
	"github.com/user/inkwell/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(observeCmd)
}

// observeCmd feeds one story date into the change detector, as if the date
// marker had just arrived from the host. Useful for driving a transition by
// hand: a date change writes the outgoing day's entry from stdin dialogue.
var observeCmd = &cobra.Command{
	Use:   "observe <conversation> <date>",
	Short: "Record an observed story date, writing the outgoing day on a change",
	Long: `Record an observed story date for a conversation. If it differs from the
last recorded date, the diary entry for the outgoing day is written from
dialogue read on stdin ("Name: text" lines, end with EOF).`,
	Args: cobra.ExactArgs(2),
	RunE: runObserve,
}

func runObserve(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	key := types.ConversationKey(args[0])
	date, err := parseDate(args[1])
	if err != nil {
		return err
	}

	conversations := state.NewConversationStore(cfg.DataDir)
	settings := state.NewGlobalStore(cfg.DataDir)

	engine, err := ctxengine.New(cfg.LLM.Model)
	if err != nil {
		engine = ctxengine.NewWithEstimator()
	}

	history := gateway.NewHistory(cfg.Diary.HistoryCapacity)
	if err := readDialogue(os.Stdin, history, key); err != nil {
		return err
	}

	var generators []host.TextGenerator
	if cfg.LLM.APIKey != "" {
		provider := openai.New(&llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
		generators = append(generators, host.NewProviderGenerator(provider))
	}

	diaryWriter := writer.New(writer.Options{
		Conversations: conversations,
		Settings:      settings,
		History:       history,
		Engine:        engine,
		Generator:     host.NewChain(generators...),
	})
	detector := tracker.NewDetector(conversations, settings, diaryWriter)

	ctx := context.Background()
	prev, err := conversations.LastDate(ctx, key)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if err := detector.OnDateObserved(ctx, key, date); err != nil {
		return err
	}

	switch {
	case prev == nil:
		fmt.Fprintf(os.Stdout, "First date recorded: %s\n", date)
	case prev.Equal(date):
		fmt.Fprintf(os.Stdout, "Date unchanged: %s\n", date)
	default:
		fmt.Fprintf(os.Stdout, "Date advanced: %s -> %s\n", prev, date)
		entry, err := conversations.EntryByDate(ctx, key, *prev)
		if err != nil {
			return err
		}
		if entry == nil {
			fmt.Fprintf(os.Stdout, "No entry written for %s (no dialogue, or generation failed; queued for retry).\n", prev)
			return nil
		}
		fmt.Fprintf(os.Stdout, "\n%s %s\n\n%s\n", writer.FormatDate(entry.Date), entry.Weather, entry.Content)
	}
	return nil
}

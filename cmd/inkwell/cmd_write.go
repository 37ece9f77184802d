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
	"github.com/user/inkwell/internal/types"
	"github.com/user/inkwell/internal/writer"
	"github.com/user/inkwell/pkg/llm"
	"github.com/user/inkwell/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(writeCmd)
}

// writeCmd triggers a diary write manually. History normally lives in the
// running daemon, so this reads dialogue lines from stdin: one "Name: text"
// line per message.
var writeCmd = &cobra.Command{
	Use:   "write <conversation> <date>",
	Short: "Write the diary entry for a story date from stdin dialogue",
	Args:  cobra.ExactArgs(2),
	RunE:  runWrite,
}

func runWrite(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	key := types.ConversationKey(args[0])
	date, err := parseDate(args[1])
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for manual writes")
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

	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	diaryWriter := writer.New(writer.Options{
		Conversations: conversations,
		Settings:      settings,
		History:       history,
		Engine:        engine,
		Generator:     host.NewChain(host.NewProviderGenerator(provider)),
	})

	if err := diaryWriter.Write(context.Background(), key, date); err != nil {
		return err
	}

	entry, err := conversations.EntryByDate(context.Background(), key, date)
	if err != nil {
		return err
	}
	if entry == nil {
		fmt.Fprintln(os.Stdout, "No entry written (no dialogue, or one already existed).")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%s %s\n\n%s\n", writer.FormatDate(entry.Date), entry.Weather, entry.Content)
	return nil
}

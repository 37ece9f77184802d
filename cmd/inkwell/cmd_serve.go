package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	ctxengine "github.com/user/inkwell/internal/context"
	"github.com/user/inkwell/internal/delivery"
	"github.com/user/inkwell/internal/gateway"
	"github.com/user/inkwell/internal/host"
	"github.com/user/inkwell/internal/image"
	"github.com/user/inkwell/internal/scheduler"
	"github.com/user/inkwell/internal/state"
	"github.com/user/inkwell/internal/telegram"
	"github.com/user/inkwell/internal/tracker"
	"github.com/user/inkwell/internal/webhook"
	"github.com/user/inkwell/internal/writer"
	"github.com/user/inkwell/pkg/llm"
	"github.com/user/inkwell/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inkwell daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "inkwell.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	// Stores
	conversations := state.NewConversationStore(cfg.DataDir)
	settings := state.NewGlobalStore(cfg.DataDir)

	// Seed global settings from config on first run
	if !settings.Initialized() {
		global, err := settings.Load(context.Background())
		if err == nil {
			global.AutoWrite = cfg.Diary.AutoWrite
			global.IncludePhoto = cfg.Diary.IncludePhoto
			global.ContextTokenBudget = cfg.Diary.TokenBudget
			if err := settings.Save(context.Background(), global); err != nil {
				slog.Warn("failed to seed global settings", "error", err)
			}
		}
	}

	// Context engine
	engine, err := ctxengine.New(cfg.LLM.Model)
	if err != nil {
		slog.Warn("tokenizer unavailable, using character estimator", "error", err)
		engine = ctxengine.NewWithEstimator()
	}

	// Host bridge: commands and the slash runner arrive at runtime through
	// POST /host/capabilities.
	bridge := host.NewBridge()

	// Generation capabilities, most direct first
	generateCommands := splitCommands(cfg.Diary.GenerateCommands)
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
	generators = append(generators,
		host.NewCommandGenerator(bridge.Registry(), generateCommands...),
		host.NewSlashGenerator(bridge.Execute, first(generateCommands)),
	)
	chain := host.NewChain(generators...)

	imageCommands := splitCommands(cfg.Diary.ImageCommands)
	images := image.NewChain(
		image.NewCommandRenderer(bridge.Registry(), imageCommands...),
		image.NewSlashRenderer(bridge.Execute, first(imageCommands)),
	)

	// Delivery
	notifier := delivery.NewRegistry()

	// History and writer
	history := gateway.NewHistory(cfg.Diary.HistoryCapacity)
	diaryWriter := writer.New(writer.Options{
		Conversations: conversations,
		Settings:      settings,
		History:       history,
		Engine:        engine,
		Generator:     chain,
		Images:        images,
		Notifier:      notifier,
	})

	// Date tracking
	detector := tracker.NewDetector(conversations, settings, diaryWriter)
	extractor := tracker.Extractor{ValidateRange: cfg.Diary.ValidateDates}
	gw := gateway.New(extractor, detector, history)

	// Catch-up sweep
	sweep := scheduler.New(conversations, diaryWriter, cfg.Diary.SweepSchedule)
	if err := sweep.Start(); err != nil {
		return fmt.Errorf("start sweep: %w", err)
	}
	defer sweep.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, gw, conversations, cfg.Narrator)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		notifier.Register("telegram:", adapter.EntryCreated)
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// Webhook server
	server := webhook.NewServer(gw, conversations, settings, bridge)
	httpServer := &http.Server{Addr: cfg.Webhook.Listen, Handler: server}
	go func() {
		slog.Info("webhook server listening", "addr", cfg.Webhook.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("webhook server failed", "error", err)
		}
	}()

	slog.Info("inkwell started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"narrator", cfg.Narrator,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"sweep_schedule", cfg.Diary.SweepSchedule,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")
	httpServer.Shutdown(context.Background())
	return nil
}

func splitCommands(csv string) []string {
	var out []string
	for _, name := range strings.Split(csv, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func first(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

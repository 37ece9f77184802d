package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/inkwell/internal/state"
	"github.com/user/inkwell/internal/types"
	"github.com/user/inkwell/internal/writer"
)

func init() {
	rootCmd.AddCommand(entriesCmd)
	entriesCmd.AddCommand(entriesListCmd, entriesShowCmd, entriesDeleteCmd, entriesConversationsCmd)
}

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Browse and manage diary entries",
}

var entriesConversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List conversations with diary state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		conversations := state.NewConversationStore(cfg.DataDir)
		keys, err := conversations.List(context.Background())
		if err != nil {
			return fmt.Errorf("list conversations: %w", err)
		}
		for _, key := range keys {
			fmt.Fprintln(os.Stdout, key)
		}
		return nil
	},
}

var entriesListCmd = &cobra.Command{
	Use:   "list <conversation>",
	Short: "List diary entries for a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		conversations := state.NewConversationStore(cfg.DataDir)
		st, err := conversations.Load(context.Background(), types.ConversationKey(args[0]))
		if err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
		if len(st.Entries) == 0 {
			fmt.Fprintln(os.Stdout, "No entries.")
			return nil
		}
		for _, entry := range st.Entries {
			photo := ""
			if entry.ImageURL != "" {
				photo = " 📷"
			}
			fmt.Fprintf(os.Stdout, "%s  %s %s  [%s]%s  %s\n",
				entry.ID, entry.Date, entry.Weather, entry.FontStyle, photo, entry.Mood)
		}
		return nil
	},
}

var entriesShowCmd = &cobra.Command{
	Use:   "show <conversation> <date>",
	Short: "Show the diary entry for a story date (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		date, err := parseDate(args[1])
		if err != nil {
			return err
		}
		conversations := state.NewConversationStore(cfg.DataDir)
		entry, err := conversations.EntryByDate(context.Background(), types.ConversationKey(args[0]), date)
		if err != nil {
			return fmt.Errorf("load entry: %w", err)
		}
		if entry == nil {
			return fmt.Errorf("no entry for %s", date)
		}
		fmt.Fprintf(os.Stdout, "%s %s\n", writer.FormatDate(entry.Date), entry.Weather)
		if entry.Mood != "" {
			fmt.Fprintf(os.Stdout, "Mood: %s\n", entry.Mood)
		}
		fmt.Fprintf(os.Stdout, "Style: %s\n\n%s\n", entry.FontStyle, entry.Content)
		if entry.ImageURL != "" {
			fmt.Fprintf(os.Stdout, "\nPhoto: %s\n", entry.ImageURL)
		}
		return nil
	},
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete <conversation> <entry-id>",
	Short: "Delete a diary entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		conversations := state.NewConversationStore(cfg.DataDir)
		if err := conversations.DeleteEntry(context.Background(), types.ConversationKey(args[0]), types.EntryID(args[1])); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Deleted.")
		return nil
	},
}

func parseDate(raw string) (types.StoryDate, error) {
	var date types.StoryDate
	if _, err := fmt.Sscanf(raw, "%d-%d-%d", &date.Year, &date.Month, &date.Day); err != nil {
		return types.StoryDate{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return date, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/inkwell/internal/state"
)

func init() {
	rootCmd.AddCommand(appearanceCmd)
	appearanceCmd.AddCommand(appearanceListCmd, appearanceSetCmd, appearanceGetCmd, appearanceRemoveCmd)
}

var appearanceCmd = &cobra.Command{
	Use:   "appearance",
	Short: "Manage character appearance tags for diary photos",
}

var appearanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered character appearances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		settings := state.NewGlobalStore(cfg.DataDir)
		appearances, err := settings.Appearances(context.Background())
		if err != nil {
			return fmt.Errorf("list appearances: %w", err)
		}
		if len(appearances) == 0 {
			fmt.Fprintln(os.Stdout, "No appearances registered.")
			return nil
		}
		for _, a := range appearances {
			fmt.Fprintf(os.Stdout, "%s: %s\n", a.Name, a.Tags)
		}
		return nil
	},
}

var appearanceSetCmd = &cobra.Command{
	Use:   "set <name> <tags...>",
	Short: "Register or update a character's appearance tags",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		settings := state.NewGlobalStore(cfg.DataDir)
		tags := strings.Join(args[1:], " ")
		if err := settings.SetAppearance(context.Background(), args[0], tags); err != nil {
			return fmt.Errorf("set appearance: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Set %s: %s\n", args[0], tags)
		return nil
	},
}

var appearanceGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a character's appearance tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		settings := state.NewGlobalStore(cfg.DataDir)
		tags, found, err := settings.Appearance(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get appearance: %w", err)
		}
		if !found {
			return fmt.Errorf("no appearance registered for %s", args[0])
		}
		fmt.Fprintln(os.Stdout, tags)
		return nil
	},
}

var appearanceRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a character's appearance registration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		settings := state.NewGlobalStore(cfg.DataDir)
		if err := settings.RemoveAppearance(context.Background(), args[0]); err != nil {
			return fmt.Errorf("remove appearance: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Removed.")
		return nil
	},
}

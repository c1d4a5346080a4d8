package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/runwalk/internal/config"
	"github.com/user/runwalk/internal/interval"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("runwalk setup")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.DataDir = prompt(scanner, "Data directory", cfg.DataDir)

		presets, err := interval.LoadPresets(cfg.PresetsPath())
		if err != nil {
			return fmt.Errorf("load presets: %w", err)
		}
		name := prompt(scanner, "Default preset", cfg.DefaultPreset)
		if _, err := presets.Lookup(name); err != nil {
			return err
		}
		cfg.DefaultPreset = name

		cfg.Cues.Voice = promptBool(scanner, "Spoken cues", cfg.Cues.Voice)
		cfg.Cues.Bell = promptBool(scanner, "Terminal bell", cfg.Cues.Bell)
		cfg.HTTP.Listen = prompt(scanner, "HTTP control address", cfg.HTTP.Listen)

		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)
		if cfg.Telegram.Token != "" {
			chat := prompt(scanner, "Telegram chat id", strconv.FormatInt(cfg.Telegram.ChatID, 10))
			if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
				cfg.Telegram.ChatID = id
			}
		}

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}

func promptBool(scanner *bufio.Scanner, label string, defaultVal bool) bool {
	def := "n"
	if defaultVal {
		def = "y"
	}
	switch strings.ToLower(prompt(scanner, label+" (y/n)", def)) {
	case "y", "yes", "true":
		return true
	case "n", "no", "false":
		return false
	}
	return defaultVal
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/runwalk/internal/interval"
)

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd, presetAddCmd)
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage interval presets",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and user presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		presets, err := interval.LoadPresets(cfg.PresetsPath())
		if err != nil {
			return fmt.Errorf("load presets: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tRUN\tWALK\t")
		for _, p := range presets.List() {
			marker := ""
			if p.Name == cfg.DefaultPreset {
				marker = "(default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.Name,
				formatClock(p.Config.RunSeconds()),
				formatClock(p.Config.WalkSeconds()),
				marker,
			)
		}
		return w.Flush()
	},
}

var presetAddCmd = &cobra.Command{
	Use:   "add <name> <run-seconds> <walk-seconds>",
	Short: "Add or replace a user preset",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		run, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("run seconds: %w", err)
		}
		walk, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("walk seconds: %w", err)
		}
		preset, err := interval.NewConfig(run, walk)
		if err != nil {
			return err
		}

		presets, err := interval.LoadPresets(cfg.PresetsPath())
		if err != nil {
			return fmt.Errorf("load presets: %w", err)
		}
		if err := presets.Add(args[0], preset); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		if err := interval.SavePresets(cfg.PresetsPath(), presets.UserPresets()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved preset %s (%s) to %s\n", args[0], preset, cfg.PresetsPath())
		return nil
	},
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/runwalk/internal/cue"
	"github.com/user/runwalk/internal/types"
)

func init() {
	rootCmd.AddCommand(cueCmd)
	cueCmd.AddCommand(cueTestCmd)
}

var cueCmd = &cobra.Command{
	Use:   "cue",
	Short: "Inspect announcement outputs",
}

var cueTestCmd = &cobra.Command{
	Use:   "test [RUN|WALK] [seconds]",
	Short: "Send a sample cue through every enabled output",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sample := cue.Cue{Phase: types.PhaseRun, Seconds: 90}
		if len(args) > 0 {
			phase, err := types.ParsePhase(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			sample.Phase = phase
		}
		if len(args) > 1 {
			seconds, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("seconds: %w", err)
			}
			sample.Seconds = seconds
		}

		local, remote, err := buildCues(cfg)
		if err != nil {
			return err
		}
		names := append(local.Names(), remote.Names()...)
		if len(names) == 0 {
			fmt.Fprintln(os.Stdout, "No cue outputs enabled.")
			return nil
		}
		if err := errors.Join(local.Deliver(sample), remote.Deliver(sample)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Delivered %q to %v\n", sample.Text(), names)
		return nil
	},
}

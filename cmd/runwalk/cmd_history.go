package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/runwalk/internal/cue"
	"github.com/user/runwalk/internal/state"
	"github.com/user/runwalk/internal/types"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyStatsCmd, historyPhasesCmd)
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of workouts to show (0 for all)")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show finished workouts",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent workouts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store, err := state.OpenHistoryStore(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.ListSummaries(context.Background(), historyLimit)
		if err != nil {
			return fmt.Errorf("list workouts: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No workouts found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tINTERVALS\tRUN\tWALK\tCHANGES")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\t%d\n",
				s.SessionID,
				s.StartTime.Local().Format("2006-01-02 15:04:05"),
				s.RunIntervalSetting,
				s.WalkIntervalSetting,
				formatClock(s.TotalRunSeconds),
				formatClock(s.TotalWalkSeconds),
				s.PhaseTransitionCount,
			)
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals across all workouts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store, err := state.OpenHistoryStore(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("workout stats: %w", err)
		}
		fmt.Printf("Workouts:      %d\n", stats.Sessions)
		fmt.Printf("Running:       %s\n", cue.Duration(stats.TotalRunSeconds))
		fmt.Printf("Walking:       %s\n", cue.Duration(stats.TotalWalkSeconds))
		fmt.Printf("Phase changes: %d\n", stats.Transitions)
		return nil
	},
}

var historyPhasesCmd = &cobra.Command{
	Use:   "phases <session-id>",
	Short: "Show the recorded phase changes of a workout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sessionID, err := types.ParseSessionID(args[0])
		if err != nil {
			return err
		}
		phases := state.NewPhaseLog(cfg.DataDir)
		events, err := phases.Tail(context.Background(), sessionID, 0)
		if err != nil {
			return fmt.Errorf("read phase log: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No phase changes recorded.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tPHASE\tAT")
		for _, e := range events {
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.Seq, e.Phase, e.At.Local().Format("15:04:05"))
		}
		return w.Flush()
	},
}

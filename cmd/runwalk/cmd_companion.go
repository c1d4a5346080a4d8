package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/runwalk/internal/clock"
	"github.com/user/runwalk/internal/companion"
	"github.com/user/runwalk/internal/config"
	"github.com/user/runwalk/internal/state"
)

var (
	companionWatch   bool
	companionEntries int
)

func init() {
	rootCmd.AddCommand(companionCmd)
	companionCmd.Flags().BoolVar(&companionWatch, "watch", false, "keep displaying the countdown until interrupted")
	companionCmd.Flags().IntVar(&companionEntries, "entries", 5, "number of timeline entries to print")
}

var companionCmd = &cobra.Command{
	Use:   "companion",
	Short: "Show the countdown from the shared snapshot, as a glanceable widget would",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		reader := newCompanionReader(cfg)

		if !companionWatch {
			printTimeline(os.Stdout, reader.Read(cmd.Context()), companionEntries)
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		timelines := make(chan *companion.Timeline)
		go displayTimelines(ctx, os.Stdout, timelines)

		watcher := companion.NewWatcher(reader, cfg.SnapshotPath())
		return watcher.Run(ctx, func(tl *companion.Timeline) {
			select {
			case timelines <- tl:
			case <-ctx.Done():
			}
		})
	},
}

func newCompanionReader(cfg *config.Config) *companion.Reader {
	store := state.NewSnapshotStore(cfg.SnapshotPath())
	return companion.NewReader(store, clock.System{}, companion.Options{
		StaleAfter: cfg.StaleAfter(),
	})
}

func printEntry(w io.Writer, entry companion.Entry) {
	fmt.Fprintf(w, "%s  %-4s %s\n",
		entry.Date.Format("15:04:05"),
		entry.State.CurrentPhase,
		formatClock(entry.State.TimeRemainingSeconds),
	)
}

func printTimeline(w io.Writer, tl *companion.Timeline, limit int) {
	switch tl.Status {
	case companion.StatusIdle:
		fmt.Fprintln(w, "No active workout.")
	case companion.StatusPaused:
		fmt.Fprintln(w, "Paused.")
	default:
		fmt.Fprintf(w, "%d entries, refresh at %s\n", tl.Len(), tl.NextRefresh.Format("15:04:05"))
	}
	n := 0
	for entry := range tl.Entries() {
		if n == limit {
			break
		}
		printEntry(w, entry)
		n++
	}
}

// displayTimelines prints each entry of the latest timeline at its own
// time. A newer timeline replaces the one being shown.
func displayTimelines(ctx context.Context, w io.Writer, timelines <-chan *companion.Timeline) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	var current *companion.Timeline
	var pending companion.Entry
	havePending := false

	advance := func() {
		entry, ok := current.Next()
		havePending = ok
		if !ok {
			timer.Stop()
			return
		}
		pending = entry
		timer.Reset(max(time.Until(entry.Date), 0))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case tl := <-timelines:
			current = tl
			switch tl.Status {
			case companion.StatusIdle:
				fmt.Fprintln(w, "No active workout.")
			case companion.StatusPaused:
				fmt.Fprint(w, "Paused. ")
			}
			advance()
		case <-timer.C:
			if havePending {
				printEntry(w, pending)
				advance()
			}
		}
	}
}

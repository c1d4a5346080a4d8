package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/runwalk/internal/config"
	"github.com/user/runwalk/internal/cue"
	"github.com/user/runwalk/internal/types"
)

var (
	ctlPreset string
	ctlRun    int
	ctlWalk   int
)

func init() {
	rootCmd.AddCommand(ctlCmd, openCmd)
	ctlCmd.AddCommand(ctlStartCmd, ctlStatusCmd,
		ctlActionCmd("pause", "Pause the workout"),
		ctlActionCmd("resume", "Resume a paused workout"),
		ctlActionCmd("skip", "Skip to the next phase"),
		ctlStopCmd,
	)
	ctlStartCmd.Flags().StringVar(&ctlPreset, "preset", "", "preset name")
	ctlStartCmd.Flags().IntVar(&ctlRun, "run", 0, "custom run seconds")
	ctlStartCmd.Flags().IntVar(&ctlWalk, "walk", 0, "custom walk seconds")
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// callDaemon sends a JSON request to the running daemon's control server
// and decodes the JSON reply into out.
func callDaemon(cfg *config.Config, method, path string, body, out any) error {
	if !cfg.HTTP.Enabled {
		return fmt.Errorf("http control is disabled (set http.enabled)")
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, "http://"+cfg.HTTP.Listen+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon (is `runwalk serve` running?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// formatClock renders seconds as m:ss.
func formatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func printSnapshot(w io.Writer, snap types.Snapshot) {
	if !snap.IsActive {
		fmt.Fprintln(w, "No active workout.")
		return
	}
	status := "running"
	if snap.IsPaused {
		status = "paused"
	}
	fmt.Fprintf(w, "%s %s left of %s (%s, %.0f%%) session %s\n",
		snap.CurrentPhase,
		formatClock(snap.TimeRemainingSeconds),
		formatClock(snap.IntervalDurationSeconds),
		status,
		snap.Progress()*100,
		snap.SessionID,
	)
}

type startReply struct {
	SessionID types.SessionID `json:"session_id"`
	Snapshot  types.Snapshot  `json:"snapshot"`
}

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control the workout in the running daemon",
}

var ctlStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a workout (default preset, --preset, or --run/--walk)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		body := map[string]any{}
		if ctlPreset != "" {
			body["preset"] = ctlPreset
		}
		if ctlRun != 0 || ctlWalk != 0 {
			body["run_seconds"] = ctlRun
			body["walk_seconds"] = ctlWalk
		}
		var reply startReply
		if err := callDaemon(cfg, http.MethodPost, "/session/start", body, &reply); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Started. %s\n", cue.Cue{Phase: types.PhaseRun, Seconds: reply.Snapshot.RunIntervalSetting}.Text())
		printSnapshot(os.Stdout, reply.Snapshot)
		return nil
	},
}

func ctlActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			var snap types.Snapshot
			if err := callDaemon(cfg, http.MethodPost, "/session/"+action, nil, &snap); err != nil {
				return err
			}
			printSnapshot(os.Stdout, snap)
			return nil
		},
	}
}

var ctlStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Finish the workout and save it to history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		var summary types.WorkoutSummary
		if err := callDaemon(cfg, http.MethodPost, "/session/stop", nil, &summary); err != nil {
			return err
		}
		printSummary(os.Stdout, &summary)
		return nil
	},
}

var ctlStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's current snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		var snap types.Snapshot
		if err := callDaemon(cfg, http.MethodGet, "/snapshot", nil, &snap); err != nil {
			return err
		}
		printSnapshot(os.Stdout, snap)
		return nil
	},
}

func printSummary(w io.Writer, s *types.WorkoutSummary) {
	fmt.Fprintf(w, "Workout %s: ran %s, walked %s, %d phase changes\n",
		s.SessionID,
		cue.Duration(s.TotalRunSeconds),
		cue.Duration(s.TotalWalkSeconds),
		s.PhaseTransitionCount,
	)
}

var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Hand a runwalk:// deep link to the running daemon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		var reply startReply
		if err := callDaemon(cfg, http.MethodPost, "/intent", map[string]string{"url": args[0]}, &reply); err != nil {
			return err
		}
		printSnapshot(os.Stdout, reply.Snapshot)
		return nil
	},
}

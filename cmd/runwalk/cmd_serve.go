package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/runwalk/internal/clock"
	"github.com/user/runwalk/internal/config"
	"github.com/user/runwalk/internal/cue"
	"github.com/user/runwalk/internal/deeplink"
	"github.com/user/runwalk/internal/interval"
	"github.com/user/runwalk/internal/publisher"
	"github.com/user/runwalk/internal/scheduler"
	"github.com/user/runwalk/internal/session"
	"github.com/user/runwalk/internal/state"
	"github.com/user/runwalk/internal/webhook"
)

var serveStart string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveStart, "start", "", "start a workout immediately (preset name or runwalk:// URL)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interval timer daemon",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// buildCues registers the cue outputs enabled in cfg. Local outputs are
// delivered synchronously with each event; remote ones go through a
// Dispatcher.
func buildCues(cfg *config.Config) (local, remote *cue.Registry, err error) {
	local = cue.NewRegistry()
	if cfg.Cues.Voice {
		local.Register("voice", cue.Voice(os.Stdout))
	}
	if cfg.Cues.Haptics {
		local.Register("haptics", cue.Haptics(cue.LogVibrator{}))
	}
	if cfg.Cues.Bell {
		local.Register("bell", cue.Bell(os.Stdout))
	}

	remote = cue.NewRegistry()
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := cue.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, nil, fmt.Errorf("create telegram notifier: %w", err)
		}
		remote.Register("telegram", tg.Handler())
	} else {
		slog.Debug("telegram cues disabled (no token or chat id)")
	}
	return local, remote, nil
}

// resolveStart interprets the --start flag as a deep link or a preset name.
func resolveStart(value string, presets *interval.Presets, defaultPreset string) (interval.Config, error) {
	intent := deeplink.Intent{Preset: value}
	if parsed, err := deeplink.Parse(value); err == nil {
		intent = parsed
	}
	return deeplink.Resolve(intent, presets, defaultPreset)
}

// daemon is the wired set of components behind `runwalk serve`.
type daemon struct {
	ctrl      *session.Controller
	pub       *publisher.Publisher
	history   *state.HistoryStore
	phases    *state.PhaseLog
	snapshots *state.SnapshotStore
	presets   *interval.Presets
	cues      *cue.Registry
	remote    *cue.Registry
	cueQueue  *cue.Dispatcher
	handler   http.Handler
}

func newDaemon(cfg *config.Config, clk clock.Clock) (*daemon, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	presets, err := interval.LoadPresets(cfg.PresetsPath())
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	if _, err := presets.Lookup(cfg.DefaultPreset); err != nil {
		return nil, fmt.Errorf("default preset: %w", err)
	}

	cues, remote, err := buildCues(cfg)
	if err != nil {
		return nil, err
	}

	// Stores
	history, err := state.OpenHistoryStore(cfg.HistoryPath())
	if err != nil {
		return nil, err
	}
	phases := state.NewPhaseLog(cfg.DataDir)
	snapshots := state.NewSnapshotStore(cfg.SnapshotPath())

	ctrl := session.New(clk, session.Options{
		TickInterval: cfg.TickInterval(),
		Summaries:    history,
	})
	pub := publisher.New(snapshots, ctrl, clk, cfg.PublishInterval())
	ctrl.Subscribe("publisher", pub.HandleEvent)
	ctrl.Subscribe("phases", session.RecordPhases(phases))
	ctrl.Subscribe("cues", cues.HandleEvent)
	cueQueue := cue.NewDispatcher(remote, 2)
	cueQueue.Start(context.Background())
	ctrl.Subscribe("remote-cues", cueQueue.HandleEvent)

	handler := webhook.NewServer(ctrl, webhook.Options{
		Presets:       presets,
		DefaultPreset: cfg.DefaultPreset,
		History:       history,
		Phases:        phases,
	})

	return &daemon{
		ctrl:      ctrl,
		pub:       pub,
		history:   history,
		phases:    phases,
		snapshots: snapshots,
		presets:   presets,
		cues:      cues,
		remote:    remote,
		cueQueue:  cueQueue,
		handler:   handler,
	}, nil
}

// shutdown finishes an in-flight workout so it lands in history and
// companions see an inactive snapshot, then closes the stores.
func (d *daemon) shutdown(ctx context.Context) error {
	if summary, err := d.ctrl.Stop(ctx); err != nil {
		slog.Error("stop workout failed", "error", err)
	} else if summary != nil {
		slog.Info("workout saved on shutdown", "session_id", string(summary.SessionID))
	}
	d.cueQueue.Stop()
	if n := d.cueQueue.Dropped(); n > 0 {
		slog.Warn("cues dropped", "count", n)
	}
	if n := d.pub.Failures(); n > 0 {
		slog.Warn("snapshot publisher ended with failures", "failures", n)
	}
	return d.history.Close()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	d, err := newDaemon(cfg, clock.System{})
	if err != nil {
		return err
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		d.history.Close()
		return err
	}
	defer os.Remove(pidPath)

	// Replace whatever a previous, possibly crashed, process left behind.
	d.pub.Publish(d.ctrl.Snapshot())

	sched := scheduler.New()
	if err := sched.Every("snapshot-heartbeat", d.pub.Interval(), d.pub.Heartbeat); err != nil {
		d.history.Close()
		return fmt.Errorf("schedule heartbeat: %w", err)
	}
	sched.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.ctrl.Run(gctx)
	})

	if cfg.HTTP.Enabled {
		httpServer := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           d.handler,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("http control server started", "listen", cfg.HTTP.Listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	g.Go(func() error {
		select {
		case sig := <-sigChan:
			slog.Info("shutting down", "signal", sig)
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	slog.Info("runwalk started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"tick", cfg.TickInterval(),
		"publish_interval", d.pub.Interval(),
		"default_preset", cfg.DefaultPreset,
		"cues", d.cues.Names(),
		"remote_cues", d.remote.Names(),
		"pid_file", pidPath,
	)

	var runErr error
	if serveStart != "" {
		startCfg, err := resolveStart(serveStart, d.presets, cfg.DefaultPreset)
		if err == nil {
			_, err = d.ctrl.Start(startCfg)
		}
		if err != nil {
			runErr = fmt.Errorf("start workout: %w", err)
			cancel()
		}
	}

	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	sched.Stop()

	stopCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := d.shutdown(stopCtx); err != nil {
		slog.Error("close stores failed", "error", err)
	}
	return runErr
}

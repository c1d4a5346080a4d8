package cue

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/runwalk/internal/session"
	"github.com/user/runwalk/internal/types"
)

func TestDuration(t *testing.T) {
	cases := map[int]string{
		0:   "0 seconds",
		1:   "1 second",
		45:  "45 seconds",
		60:  "1 minute",
		90:  "1 minute 30 seconds",
		120: "2 minutes",
		301: "5 minutes 1 second",
	}
	for seconds, want := range cases {
		if got := Duration(seconds); got != want {
			t.Errorf("Duration(%d) = %q, want %q", seconds, got, want)
		}
	}
}

func TestCueText(t *testing.T) {
	c := Cue{Phase: types.PhaseRun, Seconds: 90}
	if c.Text() != "Run for 1 minute 30 seconds" {
		t.Errorf("unexpected text %q", c.Text())
	}
	c = Cue{Phase: types.PhaseWalk, Seconds: 120}
	if c.Text() != "Walk for 2 minutes" {
		t.Errorf("unexpected text %q", c.Text())
	}
}

func TestFromEvent(t *testing.T) {
	snap := types.Snapshot{SessionID: "s1", RunIntervalSetting: 60, WalkIntervalSetting: 90}

	c, ok := FromEvent(session.Event{Kind: session.EventStarted, Snapshot: snap})
	if !ok || c.Phase != types.PhaseRun || c.Seconds != 60 || c.Seq != 0 {
		t.Errorf("unexpected start cue: %+v", c)
	}

	c, ok = FromEvent(session.Event{
		Kind:     session.EventPhaseChange,
		Phase:    types.PhaseEvent{SessionID: "s1", Seq: 3, Phase: types.PhaseWalk},
		Snapshot: snap,
	})
	if !ok || c.Phase != types.PhaseWalk || c.Seconds != 90 || c.Seq != 3 {
		t.Errorf("unexpected phase cue: %+v", c)
	}

	for _, kind := range []session.EventKind{session.EventTick, session.EventPaused, session.EventResumed, session.EventStopped} {
		if _, ok := FromEvent(session.Event{Kind: kind, Snapshot: snap}); ok {
			t.Errorf("expected no cue for %s", kind)
		}
	}
}

func TestRegistryDeliversToAllOutputs(t *testing.T) {
	reg := NewRegistry()

	var order []string
	reg.Register("first", func(Cue) error {
		order = append(order, "first")
		return errors.New("speaker unplugged")
	})
	reg.Register("second", func(Cue) error {
		order = append(order, "second")
		return nil
	})

	err := reg.Deliver(Cue{Phase: types.PhaseRun, Seconds: 60})
	if err == nil || !strings.Contains(err.Error(), "speaker unplugged") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("expected both outputs in order, got %v", order)
	}
}

func TestRegistryReplace(t *testing.T) {
	reg := NewRegistry()
	var calls int
	reg.Register("bell", func(Cue) error { return errors.New("old") })
	reg.Register("bell", func(Cue) error { calls++; return nil })

	if err := reg.Deliver(Cue{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || len(reg.Names()) != 1 {
		t.Errorf("expected one replaced output, got calls=%d names=%v", calls, reg.Names())
	}
}

func TestHandleEventSwallowsFailures(t *testing.T) {
	reg := NewRegistry()
	var got []Cue
	reg.Register("broken", func(Cue) error { return errors.New("boom") })
	reg.Register("record", func(c Cue) error { got = append(got, c); return nil })

	snap := types.Snapshot{SessionID: "s1", RunIntervalSetting: 30, WalkIntervalSetting: 60}
	reg.HandleEvent(session.Event{Kind: session.EventStarted, Snapshot: snap})
	reg.HandleEvent(session.Event{Kind: session.EventTick, Snapshot: snap})
	reg.HandleEvent(session.Event{
		Kind:     session.EventPhaseChange,
		Phase:    types.PhaseEvent{SessionID: "s1", Seq: 1, Phase: types.PhaseWalk},
		Snapshot: snap,
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(got))
	}
	if got[1].Text() != "Walk for 1 minute" {
		t.Errorf("unexpected text %q", got[1].Text())
	}
}

func TestVoiceAndBell(t *testing.T) {
	var voice, bell bytes.Buffer
	c := Cue{Phase: types.PhaseWalk, Seconds: 30}

	if err := Voice(&voice)(c); err != nil {
		t.Fatal(err)
	}
	if voice.String() != "Walk for 30 seconds\n" {
		t.Errorf("unexpected voice output %q", voice.String())
	}
	if err := Voice(nil)(c); err != nil {
		t.Errorf("expected nil writer to be accepted, got %v", err)
	}

	if err := Bell(&bell)(c); err != nil {
		t.Fatal(err)
	}
	if bell.String() != "\a" {
		t.Errorf("expected BEL, got %q", bell.String())
	}
}

type recordingVibrator struct {
	patterns []Pattern
}

func (r *recordingVibrator) Vibrate(p Pattern) error {
	r.patterns = append(r.patterns, p)
	return nil
}

func TestHapticPatterns(t *testing.T) {
	v := &recordingVibrator{}
	h := Haptics(v)
	h(Cue{Phase: types.PhaseRun})
	h(Cue{Phase: types.PhaseWalk})

	if len(v.patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(v.patterns))
	}
	if v.patterns[0].Pulses() != 2 {
		t.Errorf("expected double pulse for run, got %d", v.patterns[0].Pulses())
	}
	if v.patterns[1].Pulses() != 1 {
		t.Errorf("expected single pulse for walk, got %d", v.patterns[1].Pulses())
	}
	if err := (LogVibrator{}).Vibrate(RunPattern); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramHandler(t *testing.T) {
	bot := &fakeSender{}
	tg := &Telegram{bot: bot, chatID: 42}
	h := tg.Handler()

	if err := h(Cue{Phase: types.PhaseRun, Seconds: 60}); err != nil {
		t.Fatal(err)
	}
	if err := h(Cue{Seq: 2, Phase: types.PhaseWalk, Seconds: 90}); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(bot.sent))
	}
	if bot.sent[0].ChatID != 42 || bot.sent[0].Text != "Workout started. Run for 1 minute" {
		t.Errorf("unexpected first message: %d %q", bot.sent[0].ChatID, bot.sent[0].Text)
	}
	if bot.sent[1].Text != "#2 Walk for 1 minute 30 seconds" {
		t.Errorf("unexpected second message %q", bot.sent[1].Text)
	}

	bot.err = errors.New("network down")
	if err := h(Cue{Seq: 3}); err == nil {
		t.Error("expected send error")
	}
}

package clock

import (
	"testing"
	"time"
)

func TestVirtualAdvance(t *testing.T) {
	start := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	v := NewVirtual(start)

	if !v.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, v.Now())
	}

	v.Advance(90 * time.Second)
	if got := v.Now().Sub(start); got != 90*time.Second {
		t.Errorf("expected 90s after start, got %v", got)
	}

	v.Advance(-30 * time.Second)
	if got := v.Now().Sub(start); got != 60*time.Second {
		t.Errorf("expected 60s after start, got %v", got)
	}
}

func TestVirtualSet(t *testing.T) {
	v := NewVirtual(time.Time{})
	target := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	v.Set(target)
	if !v.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, v.Now())
	}
}

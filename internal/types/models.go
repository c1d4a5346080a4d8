package types

import (
	"time"
)

// PhaseEvent is delivered to in-process listeners for every phase
// transition, including transitions that elapsed while nobody was looking.
type PhaseEvent struct {
	ID        EventID   `json:"id"`
	SessionID SessionID `json:"session_id"`
	Seq       int64     `json:"seq"`
	Phase     Phase     `json:"phase"`
	At        time.Time `json:"at"`
}

// Snapshot is the compact record published for out-of-process readers.
// It is overwritten in place; no history is kept.
type Snapshot struct {
	SessionID               SessionID `json:"session_id,omitempty"`
	IsActive                bool      `json:"is_active"`
	IsPaused                bool      `json:"is_paused"`
	CurrentPhase            Phase     `json:"current_phase"`
	TimeRemainingSeconds    int       `json:"time_remaining_seconds"`
	IntervalDurationSeconds int       `json:"interval_duration_seconds"`
	LastUpdate              time.Time `json:"last_update"`
	RunIntervalSetting      int       `json:"run_interval_setting"`
	WalkIntervalSetting     int       `json:"walk_interval_setting"`
	Sequence                int64     `json:"sequence"`
}

// Progress returns the fraction of the current phase already elapsed.
func (s Snapshot) Progress() float64 {
	if s.IntervalDurationSeconds <= 0 {
		return 0
	}
	p := float64(s.IntervalDurationSeconds-s.TimeRemainingSeconds) / float64(s.IntervalDurationSeconds)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// RoutePoint is a single GPS fix supplied by the location collaborator.
type RoutePoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	At        time.Time `json:"at"`
}

// WorkoutSummary is handed to the persistence collaborator when a session
// stops.
type WorkoutSummary struct {
	SessionID            SessionID    `json:"session_id"`
	StartTime            time.Time    `json:"start_time"`
	EndTime              time.Time    `json:"end_time"`
	RunIntervalSetting   int          `json:"run_interval_setting"`
	WalkIntervalSetting  int          `json:"walk_interval_setting"`
	TotalRunSeconds      int          `json:"total_run_seconds"`
	TotalWalkSeconds     int          `json:"total_walk_seconds"`
	PhaseTransitionCount int          `json:"phase_transition_count"`
	RoutePoints          []RoutePoint `json:"route_points,omitempty"`
	AverageHeartRate     *float64     `json:"average_heart_rate,omitempty"`
}

// HistoryStats aggregates persisted workouts.
type HistoryStats struct {
	Sessions         int `json:"sessions"`
	TotalRunSeconds  int `json:"total_run_seconds"`
	TotalWalkSeconds int `json:"total_walk_seconds"`
	Transitions      int `json:"transitions"`
}

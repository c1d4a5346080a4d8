package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user/runwalk/internal/types"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryStore keeps finished workouts in SQLite.
type HistoryStore struct {
	db *sql.DB
}

// OpenHistoryStore opens (creating if needed) the history database at dbPath.
func OpenHistoryStore(dbPath string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &HistoryStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS workouts (
  session_id TEXT PRIMARY KEY,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL,
  run_setting INTEGER NOT NULL,
  walk_setting INTEGER NOT NULL,
  total_run_seconds INTEGER NOT NULL,
  total_walk_seconds INTEGER NOT NULL,
  transitions INTEGER NOT NULL,
  route_json TEXT,
  avg_heart_rate REAL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create workouts table: %w", err)
	}
	return nil
}

// SaveSummary inserts or replaces the workout with the summary's session id.
func (s *HistoryStore) SaveSummary(ctx context.Context, summary *types.WorkoutSummary) error {
	if summary == nil || summary.SessionID == "" {
		return fmt.Errorf("save summary: invalid summary")
	}
	var route sql.NullString
	if len(summary.RoutePoints) > 0 {
		data, err := json.Marshal(summary.RoutePoints)
		if err != nil {
			return fmt.Errorf("marshal route: %w", err)
		}
		route = sql.NullString{String: string(data), Valid: true}
	}
	var heartRate sql.NullFloat64
	if summary.AverageHeartRate != nil {
		heartRate = sql.NullFloat64{Float64: *summary.AverageHeartRate, Valid: true}
	}

	const stmt = `
INSERT INTO workouts (session_id, start_time, end_time, run_setting, walk_setting, total_run_seconds, total_walk_seconds, transitions, route_json, avg_heart_rate)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
  start_time=excluded.start_time,
  end_time=excluded.end_time,
  run_setting=excluded.run_setting,
  walk_setting=excluded.walk_setting,
  total_run_seconds=excluded.total_run_seconds,
  total_walk_seconds=excluded.total_walk_seconds,
  transitions=excluded.transitions,
  route_json=excluded.route_json,
  avg_heart_rate=excluded.avg_heart_rate;
`
	_, err := s.db.ExecContext(ctx, stmt,
		string(summary.SessionID),
		summary.StartTime.UTC().Format(timeLayout),
		summary.EndTime.UTC().Format(timeLayout),
		summary.RunIntervalSetting,
		summary.WalkIntervalSetting,
		summary.TotalRunSeconds,
		summary.TotalWalkSeconds,
		summary.PhaseTransitionCount,
		route,
		heartRate,
	)
	if err != nil {
		return fmt.Errorf("upsert workout: %w", err)
	}
	return nil
}

// ListSummaries returns the most recent workouts first. A non-positive
// limit returns all of them.
func (s *HistoryStore) ListSummaries(ctx context.Context, limit int) ([]*types.WorkoutSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `
SELECT session_id, start_time, end_time, run_setting, walk_setting, total_run_seconds, total_walk_seconds, transitions, route_json, avg_heart_rate
FROM workouts
ORDER BY start_time DESC
LIMIT ?;
`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	var out []*types.WorkoutSummary
	for rows.Next() {
		var (
			summary   types.WorkoutSummary
			sessionID string
			start     string
			end       string
			route     sql.NullString
			heartRate sql.NullFloat64
		)
		if err := rows.Scan(&sessionID, &start, &end,
			&summary.RunIntervalSetting, &summary.WalkIntervalSetting,
			&summary.TotalRunSeconds, &summary.TotalWalkSeconds,
			&summary.PhaseTransitionCount, &route, &heartRate); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		summary.SessionID = types.SessionID(sessionID)
		if summary.StartTime, err = time.Parse(timeLayout, start); err != nil {
			return nil, fmt.Errorf("parse start time: %w", err)
		}
		if summary.EndTime, err = time.Parse(timeLayout, end); err != nil {
			return nil, fmt.Errorf("parse end time: %w", err)
		}
		if route.Valid {
			if err := json.Unmarshal([]byte(route.String), &summary.RoutePoints); err != nil {
				return nil, fmt.Errorf("unmarshal route: %w", err)
			}
		}
		if heartRate.Valid {
			hr := heartRate.Float64
			summary.AverageHeartRate = &hr
		}
		out = append(out, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workouts: %w", err)
	}
	return out, nil
}

// Stats aggregates every stored workout.
func (s *HistoryStore) Stats(ctx context.Context) (types.HistoryStats, error) {
	const query = `
SELECT COUNT(*), COALESCE(SUM(total_run_seconds), 0), COALESCE(SUM(total_walk_seconds), 0), COALESCE(SUM(transitions), 0)
FROM workouts;
`
	var stats types.HistoryStats
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.Sessions, &stats.TotalRunSeconds, &stats.TotalWalkSeconds, &stats.Transitions); err != nil {
		return types.HistoryStats{}, fmt.Errorf("query workout stats: %w", err)
	}
	return stats, nil
}

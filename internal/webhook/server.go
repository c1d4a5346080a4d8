// Package webhook exposes the session controller over local HTTP so other
// processes (the CLI, shortcuts, deep-link handlers) can drive a workout.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/user/runwalk/internal/deeplink"
	"github.com/user/runwalk/internal/interval"
	"github.com/user/runwalk/internal/session"
	"github.com/user/runwalk/internal/types"
)

// Sessions is the part of the session controller the server drives.
type Sessions interface {
	Start(config interval.Config) (types.SessionID, error)
	Pause() error
	Resume() error
	SkipPhase() error
	Stop(ctx context.Context) (*types.WorkoutSummary, error)
	Snapshot() types.Snapshot
}

// Options wires the optional collaborators. History and Phases may be nil,
// in which case their endpoints answer 503.
type Options struct {
	Presets       *interval.Presets
	DefaultPreset string
	History       types.HistoryStore
	Phases        types.PhaseLog
}

// Server is the HTTP control surface.
type Server struct {
	sessions Sessions
	options  Options
	mux      *http.ServeMux
}

// NewServer creates a Server over sessions.
func NewServer(sessions Sessions, options Options) *Server {
	if options.Presets == nil {
		options.Presets = interval.BuiltinPresets()
	}
	if options.DefaultPreset == "" {
		options.DefaultPreset = interval.DefaultPreset
	}
	s := &Server{
		sessions: sessions,
		options:  options,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	s.mux.HandleFunc("POST /session/start", s.handleStart)
	s.mux.HandleFunc("POST /session/pause", s.handleControl(sessions.Pause))
	s.mux.HandleFunc("POST /session/resume", s.handleControl(sessions.Resume))
	s.mux.HandleFunc("POST /session/skip", s.handleControl(sessions.SkipPhase))
	s.mux.HandleFunc("POST /session/stop", s.handleStop)
	s.mux.HandleFunc("POST /intent", s.handleIntent)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /history/stats", s.handleHistoryStats)
	s.mux.HandleFunc("GET /sessions/{id}/phases", s.handlePhases)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, interval.ErrInvalidConfig),
		errors.Is(err, interval.ErrUnknownPreset),
		errors.Is(err, deeplink.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrAlreadyActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Snapshot())
}

// startRequest is the JSON body for POST /session/start. An empty body
// starts the default preset.
type startRequest struct {
	Preset      string `json:"preset"`
	RunSeconds  int    `json:"run_seconds"`
	WalkSeconds int    `json:"walk_seconds"`
}

type startResponse struct {
	SessionID types.SessionID `json:"session_id"`
	Snapshot  types.Snapshot  `json:"snapshot"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Preset != "" && (req.RunSeconds != 0 || req.WalkSeconds != 0) {
		writeError(w, http.StatusBadRequest, "preset and custom durations are exclusive")
		return
	}
	s.start(w, deeplink.Intent{Preset: req.Preset, RunSeconds: req.RunSeconds, WalkSeconds: req.WalkSeconds})
}

// intentRequest is the JSON body for POST /intent.
type intentRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	intent, err := deeplink.Parse(req.URL)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.start(w, intent)
}

func (s *Server) start(w http.ResponseWriter, intent deeplink.Intent) {
	cfg, err := deeplink.Resolve(intent, s.options.Presets, s.options.DefaultPreset)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	id, err := s.sessions.Start(cfg)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, startResponse{SessionID: id, Snapshot: s.sessions.Snapshot()})
}

func (s *Server) handleControl(action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.sessions.Snapshot())
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	// The summary is persisted even if the client goes away.
	summary, err := s.sessions.Stop(context.WithoutCancel(r.Context()))
	if err != nil {
		slog.Error("stop session failed", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	if summary == nil {
		writeError(w, http.StatusConflict, session.ErrNoSession.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func queryLimit(r *http.Request, fallback int) int {
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.options.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history not configured")
		return
	}
	summaries, err := s.options.History.ListSummaries(r.Context(), queryLimit(r, 20))
	if err != nil {
		slog.Error("list workout history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if summaries == nil {
		summaries = []*types.WorkoutSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if s.options.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history not configured")
		return
	}
	stats, err := s.options.History.Stats(r.Context())
	if err != nil {
		slog.Error("workout stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	if s.options.Phases == nil {
		writeError(w, http.StatusServiceUnavailable, "phase log not configured")
		return
	}
	sessionID, err := types.ParseSessionID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := s.options.Phases.Tail(r.Context(), sessionID, queryLimit(r, 200))
	if err != nil {
		slog.Error("tail phase log failed", "session_id", string(sessionID), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if events == nil {
		events = []*types.PhaseEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Package api exposes the operator control surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Kavirubc/gitscout/internal/engine"
	"github.com/Kavirubc/gitscout/pkg/models"
)

const maxBodyBytes = 1 << 20

// Engine is the subset of the reconciliation engine the API drives
type Engine interface {
	Active() bool
	Snapshot() *models.State
	LastFetch() []models.Item
	UpdateFilter(ctx context.Context, f models.Filter, target models.NotificationTarget) error
	SetActive(ctx context.Context, active bool) error
	RunCycle(ctx context.Context) (*models.CycleResult, error)
}

// Options configures the server
type Options struct {
	// TriggerPerMinute throttles on-demand cycles; 0 disables throttling
	TriggerPerMinute int
	TriggerBurst     int
}

// Server serves the control endpoints
type Server struct {
	engine  Engine
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewServer creates a control API server
func NewServer(eng Engine, opts Options, logger *slog.Logger) *Server {
	s := &Server{engine: eng, logger: logger}
	if opts.TriggerPerMinute > 0 {
		burst := opts.TriggerBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.TriggerPerMinute)), burst)
	}
	return s
}

// configBody is the request and response shape of /config
type configBody struct {
	Search models.Filter             `json:"search"`
	Notif  models.NotificationTarget `json:"notif"`
}

type message struct {
	Message string `json:"message"`
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/config", s.handleGetConfig)
	r.Post("/config", s.handleUpdateConfig)
	r.Post("/watch/start", s.handleWatch(true))
	r.Post("/watch/stop", s.handleWatch(false))
	r.Get("/issues", s.handleIssues)
	r.Get("/state", s.handleState)
	r.Post("/check", s.handleCheck)
	r.Get("/cron/check", s.handleCheck)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"active": s.engine.Active(),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Snapshot()
	s.writeJSON(w, http.StatusOK, configBody{Search: snap.Filter, Notif: snap.Target})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var body configBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid config: "+err.Error())
		return
	}

	if err := s.engine.UpdateFilter(r.Context(), body.Search, body.Notif); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, message{"config updated"})
}

func (s *Server) handleWatch(active bool) http.HandlerFunc {
	msg := "watch stopped"
	if active {
		msg = "watch started"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.SetActive(r.Context(), active); err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, message{msg})
	}
}

func (s *Server) handleIssues(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"items": s.engine.LastFetch()})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"active":                snap.Active,
		"seen_count":            len(snap.SeenIDs),
		"last_fetch_count":      len(snap.LastFetch),
		"filter":                snap.Filter,
		"notifications_enabled": snap.Target.Enabled(),
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, "too many on-demand checks, try again later")
		return
	}

	// a disconnecting client must not abort a cycle half way
	res, err := s.engine.RunCycle(context.WithoutCancel(r.Context()))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUpstream):
		s.logger.Warn("on-demand check failed", "err", err)
		s.writeError(w, http.StatusBadGateway, "github error: "+err.Error())
	case errors.Is(err, engine.ErrPersistence):
		s.logger.Error("state not persisted", "err", err)
		s.writeError(w, http.StatusInternalServerError, "state not saved: "+err.Error())
	default:
		s.logger.Error("request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "status", status, "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

// Package api exposes the engine over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"worklane/pkg/engine"
	"worklane/pkg/participation"
)

// Identity headers set by the authenticating proxy in front of the API.
const (
	HeaderWorkspace = "X-Workspace-Id"
	HeaderMember    = "X-Member-Id"
)

// BreakerState reports a circuit breaker's state for /api/status.
type BreakerState interface {
	State() string
}

// Options carry what /api/status reports about the deployment.
type Options struct {
	Store   string
	Members BreakerState // optional
}

// Server is the HTTP API server.
type Server struct {
	engine  *engine.Engine
	gate    *participation.Gate
	log     logrus.FieldLogger
	opts    Options
	started time.Time
	router  *mux.Router
}

// New creates a new Server.
func New(eng *engine.Engine, gate *participation.Gate, log logrus.FieldLogger, opts Options) *Server {
	s := &Server{
		engine:  eng,
		gate:    gate,
		log:     log,
		opts:    opts,
		started: time.Now(),
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// System
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)

	// Spaces
	spaces := r.PathPrefix("/api/spaces/{spaceId}").Subrouter()
	spaces.Use(s.requireParticipation)
	spaces.HandleFunc("/lists", s.handleListIndex).Methods(http.MethodGet)
	spaces.HandleFunc("/lists", s.handleListCreate).Methods(http.MethodPost)

	// Tasks
	lists := r.PathPrefix("/api/lists/{listId}").Subrouter()
	lists.Use(s.requireParticipation)
	lists.HandleFunc("/tasks", s.handleTaskList).Methods(http.MethodGet)
	lists.HandleFunc("/tasks", s.handleTaskCreate).Methods(http.MethodPost)
	lists.HandleFunc("/tasks/grouped/priority", s.handleTaskGroupedByPriority).Methods(http.MethodGet)
	lists.HandleFunc("/tasks/grouped/due-date", s.handleTaskGroupedByDueDate).Methods(http.MethodGet)
	lists.HandleFunc("/tasks/{taskId}", s.handleTaskGet).Methods(http.MethodGet)
	lists.HandleFunc("/tasks/{taskId}", s.handleTaskUpdate).Methods(http.MethodPatch)
	lists.HandleFunc("/tasks/{taskId}", s.handleTaskDelete).Methods(http.MethodDelete)
	lists.HandleFunc("/tasks/{taskId}/activity", s.handleTaskActivity).Methods(http.MethodGet)

	// Checklist
	lists.HandleFunc("/tasks/{taskId}/checklist", s.handleChecklistList).Methods(http.MethodGet)
	lists.HandleFunc("/tasks/{taskId}/checklist", s.handleChecklistAdd).Methods(http.MethodPost)
	lists.HandleFunc("/tasks/{taskId}/checklist/{itemId}", s.handleChecklistUpdate).Methods(http.MethodPatch)
	lists.HandleFunc("/tasks/{taskId}/checklist/{itemId}", s.handleChecklistDelete).Methods(http.MethodDelete)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"store":  s.opts.Store,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if s.opts.Members != nil {
		status["members_breaker"] = s.opts.Members.State()
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("write json")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lifeboard/lifeboard/internal/auth"
	"github.com/lifeboard/lifeboard/internal/database"
	"github.com/lifeboard/lifeboard/internal/habit"
	"github.com/lifeboard/lifeboard/internal/handler"
	"github.com/lifeboard/lifeboard/internal/middleware"
	"github.com/lifeboard/lifeboard/internal/store"
	ws "github.com/lifeboard/lifeboard/internal/websocket"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Options carries the settings the router needs beyond the database.
type Options struct {
	Tokens         *auth.Tokens
	Policy         habit.Policy
	AllowedOrigins []string
	// TrustProxy honors forwarding headers when resolving client IPs.
	TrustProxy bool
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	tokens      *auth.Tokens
	origins     []string
	trustProxy  bool
	authH       *handler.AuthHandler
	habitH      *handler.HabitHandler
	taskH       *handler.TaskHandler
	noteH       *handler.NoteHandler
	summaryH    *handler.DaySummaryHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	handlerLogger := logger.With("component", "handler")

	tracker := habit.NewTracker(db, opts.Policy)

	return &Server{
		db:          db,
		hub:         hub,
		tokens:      opts.Tokens,
		origins:     opts.AllowedOrigins,
		trustProxy:  opts.TrustProxy,
		authH:       handler.NewAuthHandler(store.NewUserStore(db), opts.Tokens, handlerLogger),
		habitH:      handler.NewHabitHandler(tracker, hub, handlerLogger),
		taskH:       handler.NewTaskHandler(store.NewTaskStore(db), hub, handlerLogger),
		noteH:       handler.NewNoteHandler(store.NewNoteStore(db), hub, handlerLogger),
		summaryH:    handler.NewDaySummaryHandler(store.NewDaySummaryStore(db), hub, handlerLogger),
		rateLimiter: middleware.NewRateLimiter(authRateLimit, authRateWindow),
		logger:      logger,
	}
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("POST /api/auth/register", s.rateLimited(s.authH.Register))
	outerMux.Handle("POST /api/auth/login", s.rateLimited(s.authH.Login))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireAuth(s.tokens)(protectedMux))

	var h http.Handler = middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
	h = middleware.RequestID(h)
	if s.trustProxy {
		h = middleware.ProxyHeaders(h)
	}
	return h
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.origins, s.logger.With("component", "websocket")))

	mux.HandleFunc("GET /api/habits", s.habitH.List)
	mux.HandleFunc("POST /api/habits", s.habitH.Create)
	mux.HandleFunc("GET /api/habits/{id}", s.habitH.Get)
	mux.HandleFunc("DELETE /api/habits/{id}", s.habitH.Delete)
	mux.HandleFunc("POST /api/habits/{id}/toggle-today", s.habitH.ToggleToday)
	mux.HandleFunc("POST /api/habits/{id}/toggle-date", s.habitH.ToggleDate)

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	mux.HandleFunc("GET /api/notes", s.noteH.List)
	mux.HandleFunc("POST /api/notes", s.noteH.Create)
	mux.HandleFunc("PUT /api/notes/{id}", s.noteH.Update)
	mux.HandleFunc("DELETE /api/notes/{id}", s.noteH.Delete)
	mux.HandleFunc("POST /api/notes/{id}/pin", s.noteH.TogglePinned)

	mux.HandleFunc("GET /api/day-summaries", s.summaryH.List)
	mux.HandleFunc("POST /api/day-summaries", s.summaryH.Create)
	mux.HandleFunc("PUT /api/day-summaries/{id}", s.summaryH.Update)
	mux.HandleFunc("DELETE /api/day-summaries/{id}", s.summaryH.Delete)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	version, err := database.Version(r.Context(), s.db)
	if err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "schema_version": version})
}

// RunMaintenance prunes expired rate-limit windows until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.rateLimiter.Cleanup()
		}
	}
}

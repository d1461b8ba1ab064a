package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/guard"
	"github.com/sharpline/platform/internal/repository"
)

// StatusServer exposes the daemon's operational state: DB health, per-source
// client counters, and the latest collection session per league.
type StatusServer struct {
	pool     *pgxpool.Pool
	sessions repository.SessionRepository
	clients  []*guard.Client
	leagues  []domain.League
	logger   *slog.Logger
}

// NewStatusServer creates the ops endpoint set.
func NewStatusServer(pool *pgxpool.Pool, sessions repository.SessionRepository, clients []*guard.Client, leagues []domain.League, logger *slog.Logger) *StatusServer {
	return &StatusServer{pool: pool, sessions: sessions, clients: clients, leagues: leagues, logger: logger}
}

// Router builds the chi router for the status endpoints.
func (s *StatusServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/sessions/latest", s.handleLatestSessions)
	return r
}

// Serve runs the status server until the context is canceled.
func (s *StatusServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("status server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy", "database": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *StatusServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snapshots := make([]guard.MetricsSnapshot, 0, len(s.clients))
	for _, c := range s.clients {
		snapshots = append(snapshots, c.Snapshot())
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"clients": snapshots})
}

func (s *StatusServer) handleLatestSessions(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]*domain.CollectionSession, len(s.leagues))
	for _, league := range s.leagues {
		session, err := s.sessions.Latest(r.Context(), s.pool, league)
		if err != nil {
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		out[string(league)] = session
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *StatusServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("status response encode failed", "error", err)
	}
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/ggfincke/swimmate/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Store is the storage surface the handlers need. *storage.DB satisfies it;
// tests substitute a fake.
type Store interface {
	InsertSwim(ctx context.Context, swim models.Swim) (bool, error)
	QuerySwims(ctx context.Context, start, end time.Time) ([]storage.SwimSummary, error)
	GetSwim(ctx context.Context, id uuid.UUID) (*models.Swim, error)
	GetSwimStats(ctx context.Context, start, end time.Time) (*storage.SwimStats, error)
	InsertSetTemplate(ctx context.Context, m models.SetMessage) error
	QuerySetTemplates(ctx context.Context) ([]models.SetMessage, error)
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     Store
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleIngestSwim)
		r.Post("/set", s.handleIngestSet)
	})

	// Query endpoints
	s.router.Get("/api/v1/swims", s.handleQuerySwims)
	s.router.Get("/api/v1/swims/{id}", s.handleGetSwim)
	s.router.Get("/api/v1/swims/{id}/structure", s.handleSwimStructure)
	s.router.Get("/api/v1/sets", s.handleSetTemplates)
	s.router.Get("/api/v1/stats", s.handleStats)
}

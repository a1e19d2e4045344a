package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/ingest"
	liftmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/programgen"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Store is the subset of storage.DB the handlers use.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)

	CreateWorkout(ctx context.Context, userID int, startedAt time.Time, notes string) (*models.Workout, error)
	CompleteWorkout(ctx context.Context, workoutID uuid.UUID, userID int, at time.Time) (*models.Workout, error)
	QueryWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.Workout, error)
	GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*models.WorkoutDetail, error)

	InsertSet(ctx context.Context, userID int, s models.Set) (*models.Set, error)
	QueryRecentSets(ctx context.Context, userID int, exerciseID string, limit int) ([]models.Set, error)
	QueryWorkoutSets(ctx context.Context, start, end time.Time, userID int, exerciseID string) ([]models.Set, error)

	QueryVolumeSnapshots(ctx context.Context, start, end time.Time, userID int) ([]storage.VolumeSnapshot, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingSummaryPeriod, error)
	GetTrainingIntensity(ctx context.Context, start, end time.Time, userID int, exerciseID string) (*storage.TrainingIntensityResult, error)

	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
}

var _ Store = (*storage.DB)(nil)

// Importer turns an uploaded export into stored workouts.
type Importer interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       Store
	catalog  *catalog.Catalog
	alpha    Importer
	programs *programgen.Generator
	whois    WhoIser
	mcp      http.Handler
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, cat *catalog.Catalog, alphaProvider Importer, programs *programgen.Generator, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		catalog:  cat,
		alpha:    alphaProvider,
		programs: programs,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches request identity from the dev user to the tailnet
// user behind each connection.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// SetMCP mounts an MCP server on /mcp using the streamable HTTP transport.
// Tools run as the user resolved by the identity middleware.
func (s *Server) SetMCP(srv *mcpserver.MCPServer) {
	s.mcp = mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return liftmcp.WithUserID(ctx, userIDFromContext(r))
		}),
	)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Ingest endpoints (API key required)
		r.Route("/ingest", func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/alpha", s.handleAlphaIngest)
		})

		r.Get("/me", s.handleMe)
		r.Get("/exercises", s.handleExercises)
		r.Get("/landmarks", s.handleLandmarks)

		r.Post("/workouts", s.handleCreateWorkout)
		r.Get("/workouts", s.handleQueryWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Post("/workouts/{id}/sets", s.handleLogSet)
		r.Post("/workouts/{id}/complete", s.handleCompleteWorkout)

		r.Get("/sets", s.handleQuerySets)
		r.Get("/sets/recent", s.handleRecentSets)

		r.Get("/progression", s.handleProgression)
		r.Get("/volume", s.handleVolume)
		r.Get("/volume/history", s.handleVolumeHistory)
		r.Get("/deload", s.handleDeload)
		r.Get("/deload/plan", s.handleDeloadPlan)
		r.Get("/progress", s.handleProgress)
		r.Post("/program", s.handleProgram)

		r.Get("/training/summary", s.handleTrainingSummary)
		r.Get("/training/intensity", s.handleTrainingIntensity)

		r.Get("/stats", s.handleStats)
		r.Get("/import-logs", s.handleImportLogs)
	})

	s.router.Handle("/mcp", http.HandlerFunc(s.handleMCP))
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if s.mcp == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "MCP not enabled"})
		return
	}
	s.mcp.ServeHTTP(w, r)
}

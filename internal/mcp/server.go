package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, cat *catalog.Catalog, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog strength training server. Get progression suggestions, weekly volume per muscle group against MV/MEV/MAV/MRV landmarks, deload checks and logged sets. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, catalog: cat, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetProgressionSuggestion, Handler: h.getProgressionSuggestion},
		server.ServerTool{Tool: toolAnalyzeWeeklyVolume, Handler: h.analyzeWeeklyVolume},
		server.ServerTool{Tool: toolCheckDeload, Handler: h.checkDeload},
		server.ServerTool{Tool: toolGetDeloadPlan, Handler: h.getDeloadPlan},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetWorkoutSets, Handler: h.getWorkoutSets},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
		server.ServerTool{Tool: toolGetTrainingIntensity, Handler: h.getTrainingIntensity},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resVolumeLandmarks, Handler: h.volumeLandmarks},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds      DataSource
	catalog *catalog.Catalog
	log     *slog.Logger
}

// --- Resource definitions ---

var resVolumeLandmarks = mcp.NewResource(
	"liftlog://volume_landmarks",
	"Volume Landmarks",
	mcp.WithResourceDescription("Weekly set landmarks (MV, MEV, MAV, MRV) per muscle group"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"liftlog://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All known exercises with muscle group, equipment and substitutes"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"liftlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

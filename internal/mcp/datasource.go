package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryRecentSets(ctx context.Context, userID int, exerciseID string, limit int) ([]models.Set, error)
	QueryWorkoutSets(ctx context.Context, start, end time.Time, userID int, exerciseID string) ([]models.Set, error)
	QueryWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.Workout, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingSummaryPeriod, error)
	GetTrainingIntensity(ctx context.Context, start, end time.Time, userID int, exerciseID string) (*storage.TrainingIntensityResult, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workoutColumns = `id, user_id, status, started_at, completed_at, notes`

// CreateWorkout starts a new in-progress workout for the user.
func (db *DB) CreateWorkout(ctx context.Context, userID int, startedAt time.Time, notes string) (*models.Workout, error) {
	w := &models.Workout{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    models.WorkoutInProgress,
		StartedAt: startedAt,
		Notes:     notes,
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workouts (id, user_id, status, started_at, notes) VALUES ($1,$2,$3,$4,$5)`,
		w.ID, w.UserID, w.Status, w.StartedAt, w.Notes)
	if err != nil {
		return nil, fmt.Errorf("inserting workout: %w", err)
	}
	return w, nil
}

// UpsertWorkout inserts a workout with a caller-chosen id, or updates its
// status and timestamps when it already exists. Used by importers that
// derive stable ids from their source data.
func (db *DB) UpsertWorkout(ctx context.Context, w models.Workout) (bool, error) {
	var inserted bool
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workouts (id, user_id, status, started_at, completed_at, notes)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status, started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at, notes = EXCLUDED.notes
		 WHERE workouts.user_id = EXCLUDED.user_id
		 RETURNING (xmax = 0)`,
		w.ID, w.UserID, w.Status, w.StartedAt, w.CompletedAt, w.Notes).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upserting workout %s: %w", w.ID, err)
	}
	return inserted, nil
}

// CompleteWorkout marks a workout completed. Completing twice keeps the
// first completion time.
func (db *DB) CompleteWorkout(ctx context.Context, workoutID uuid.UUID, userID int, at time.Time) (*models.Workout, error) {
	row := db.Pool.QueryRow(ctx,
		`UPDATE workouts
		 SET status = 'completed', completed_at = COALESCE(completed_at, $3)
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+workoutColumns,
		workoutID, userID, at)
	w, err := scanWorkout(row)
	if err != nil {
		return nil, fmt.Errorf("completing workout %s: %w", workoutID, err)
	}
	return w, nil
}

// QueryWorkouts retrieves workouts started in a time range, newest first.
func (db *DB) QueryWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+`
		 FROM workouts
		 WHERE started_at >= $1 AND started_at < $2 AND user_id = $3
		 ORDER BY started_at DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

// GetWorkout retrieves a single workout by ID with its sets.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*models.WorkoutDetail, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`,
		workoutID, userID)
	w, err := scanWorkout(row)
	if err != nil {
		return nil, fmt.Errorf("querying workout %s: %w", workoutID, err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT `+setColumns+`
		 FROM workout_sets
		 WHERE workout_id = $1 AND user_id = $2
		 ORDER BY set_number ASC, logged_at ASC`,
		workoutID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	sets, err := scanSets(rows)
	if err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []models.Set{}
	}
	return &models.WorkoutDetail{Workout: *w, Sets: sets}, nil
}

// scanWorkout maps pgx.ErrNoRows to ErrNotFound.
func scanWorkout(row pgx.Row) (*models.Workout, error) {
	var w models.Workout
	err := row.Scan(&w.ID, &w.UserID, &w.Status, &w.StartedAt, &w.CompletedAt, &w.Notes)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

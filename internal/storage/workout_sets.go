package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

const setColumns = `id, workout_id, exercise_id, set_number, weight, reps, rir, notes, logged_at`

// InsertSet logs a single set into an existing workout owned by the user.
// The set number defaults to the next number for that exercise in the workout.
func (db *DB) InsertSet(ctx context.Context, userID int, s models.Set) (*models.Set, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}

	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workout_sets (id, workout_id, user_id, exercise_id, set_number, weight, reps, rir, notes, logged_at)
		 SELECT $1, w.id, w.user_id, $4,
		        COALESCE(NULLIF($5, 0), (SELECT COUNT(*) + 1 FROM workout_sets
		                                 WHERE workout_id = w.id AND exercise_id = $4)),
		        $6, $7, $8, $9, $10
		 FROM workouts w
		 WHERE w.id = $2 AND w.user_id = $3
		 RETURNING set_number`,
		s.ID, s.WorkoutID, userID, s.ExerciseID, s.SetNumber, s.Weight, s.Reps, s.RIR, s.Notes, s.Timestamp,
	).Scan(&s.SetNumber)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("inserting set: %w", err)
	}
	return &s, nil
}

// ReplaceWorkoutSets deletes every set of a workout and batch-inserts rows in
// one transaction. Returns count inserted.
func (db *DB) ReplaceWorkoutSets(ctx context.Context, workoutID uuid.UUID, userID int, sets []models.Set) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM workout_sets WHERE workout_id = $1 AND user_id = $2`,
		workoutID, userID); err != nil {
		return 0, fmt.Errorf("deleting sets of workout %s: %w", workoutID, err)
	}

	var inserted int64
	if len(sets) > 0 {
		query := `INSERT INTO workout_sets (id, workout_id, user_id, exercise_id, set_number, weight, reps, rir, notes, logged_at) VALUES `
		args := make([]any, 0, len(sets)*10)
		valueStrings := make([]string, 0, len(sets))

		for i, s := range sets {
			base := i * 10
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
			))
			id := s.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			args = append(args, id, workoutID, userID, s.ExerciseID, s.SetNumber,
				s.Weight, s.Reps, s.RIR, s.Notes, s.Timestamp)
		}

		query += strings.Join(valueStrings, ",")
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("inserting workout sets: %w", err)
		}
		inserted = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing sets: %w", err)
	}
	return inserted, nil
}

// QueryRecentSets returns the user's most recent sets of one exercise,
// newest first.
func (db *DB) QueryRecentSets(ctx context.Context, userID int, exerciseID string, limit int) ([]models.Set, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+setColumns+`
		 FROM workout_sets
		 WHERE user_id = $1 AND exercise_id = $2
		 ORDER BY logged_at DESC
		 LIMIT $3`,
		userID, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent sets: %w", err)
	}
	defer rows.Close()
	return scanSets(rows)
}

// QueryWorkoutSets retrieves sets logged in a time range, oldest first.
// A non-empty exerciseID restricts the result to that exercise.
func (db *DB) QueryWorkoutSets(ctx context.Context, start, end time.Time, userID int, exerciseID string) ([]models.Set, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+setColumns+`
		 FROM workout_sets
		 WHERE logged_at >= $1 AND logged_at < $2 AND user_id = $3
		   AND ($4 = '' OR exercise_id = $4)
		 ORDER BY logged_at ASC, set_number ASC`,
		start, end, userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()
	return scanSets(rows)
}

func scanSets(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.Set, error) {
	var result []models.Set
	for rows.Next() {
		var s models.Set
		if err := rows.Scan(&s.ID, &s.WorkoutID, &s.ExerciseID, &s.SetNumber,
			&s.Weight, &s.Reps, &s.RIR, &s.Notes, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

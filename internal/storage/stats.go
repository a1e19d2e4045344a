package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's logged training.
type DataStats struct {
	TotalWorkouts     int64          `json:"total_workouts"`
	CompletedWorkouts int64          `json:"completed_workouts"`
	TotalSets         int64          `json:"total_sets"`
	SetsWithRIR       int64          `json:"sets_with_rir"`
	EarliestSet       *time.Time     `json:"earliest_set"`
	LatestSet         *time.Time     `json:"latest_set"`
	TopExercises      []ExerciseStat `json:"top_exercises"`
}

// ExerciseStat holds the all-time set count of one exercise.
type ExerciseStat struct {
	ExerciseID string     `json:"exercise_id"`
	Sets       int64      `json:"sets"`
	LastLogged *time.Time `json:"last_logged"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'completed')
		 FROM workouts WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &stats.CompletedWorkouts)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(rir), MIN(logged_at), MAX(logged_at)
		 FROM workout_sets WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSets, &stats.SetsWithRIR, &stats.EarliestSet, &stats.LatestSet)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, COUNT(*), MAX(logged_at)
		 FROM workout_sets
		 WHERE user_id = $1
		 GROUP BY exercise_id
		 ORDER BY COUNT(*) DESC, exercise_id
		 LIMIT 10`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseStat
		if err := rows.Scan(&s.ExerciseID, &s.Sets, &s.LastLogged); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.TopExercises = append(stats.TopExercises, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

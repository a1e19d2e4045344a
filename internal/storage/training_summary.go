package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingSummaryPeriod holds aggregated strength volume for one period.
type TrainingSummaryPeriod struct {
	Period            string   `json:"period"`
	Workouts          int      `json:"workouts"`
	WorkingSets       int      `json:"working_sets"`
	TotalReps         int      `json:"total_reps"`
	Tonnage           float64  `json:"tonnage"`
	AvgSetsPerWorkout float64  `json:"avg_sets_per_workout"`
	AvgRIR            *float64 `json:"avg_rir,omitempty"`
}

// GetTrainingSummary returns set, rep and tonnage totals per week or month.
// Bodyweight sets count toward sets and reps but add no tonnage.
func (db *DB) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]TrainingSummaryPeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, logged_at)::date AS period,
		        COUNT(DISTINCT workout_id)::int,
		        COUNT(*)::int,
		        COALESCE(SUM(reps), 0)::int,
		        COALESCE(SUM(COALESCE(weight, 0) * reps), 0),
		        AVG(rir)::float8
		 FROM workout_sets
		 WHERE logged_at >= $2 AND logged_at < $3 AND user_id = $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	var result []TrainingSummaryPeriod
	for rows.Next() {
		var periodTime time.Time
		var p TrainingSummaryPeriod
		if err := rows.Scan(&periodTime, &p.Workouts, &p.WorkingSets, &p.TotalReps, &p.Tonnage, &p.AvgRIR); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		if p.Workouts > 0 {
			p.AvgSetsPerWorkout = float64(p.WorkingSets) / float64(p.Workouts)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// truncInterval converts bucket strings like "1 month" to the interval name
// that date_trunc expects (e.g. "month", "week").
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week":
		return "week"
	case "1 month":
		return "month"
	default:
		return "month"
	}
}

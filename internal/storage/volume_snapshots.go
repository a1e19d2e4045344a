package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/analytics"
)

// VolumeSnapshot is a stored weekly volume analysis.
type VolumeSnapshot struct {
	UserID    int                        `json:"user_id"`
	WeekStart string                     `json:"week_start"`
	Analysis  []analytics.VolumeAnalysis `json:"analysis"`
	CreatedAt time.Time                  `json:"created_at"`
}

// UpsertVolumeSnapshot stores the analysis for the week starting at weekStart,
// replacing an earlier snapshot of the same week.
func (db *DB) UpsertVolumeSnapshot(ctx context.Context, userID int, weekStart time.Time, analysis []analytics.VolumeAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encoding volume snapshot: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO volume_snapshots (user_id, week_start, analysis)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, week_start) DO UPDATE
			SET analysis = EXCLUDED.analysis, created_at = NOW()`,
		userID, weekStart, data)
	if err != nil {
		return fmt.Errorf("upserting volume snapshot: %w", err)
	}
	return nil
}

// QueryVolumeSnapshots returns the user's snapshots for weeks starting in
// [start, end), newest first.
func (db *DB) QueryVolumeSnapshots(ctx context.Context, start, end time.Time, userID int) ([]VolumeSnapshot, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, week_start, analysis, created_at
		 FROM volume_snapshots
		 WHERE week_start >= $1::date AND week_start < $2::date AND user_id = $3
		 ORDER BY week_start DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying volume snapshots: %w", err)
	}
	defer rows.Close()

	var result []VolumeSnapshot
	for rows.Next() {
		var s VolumeSnapshot
		var week time.Time
		var raw []byte
		if err := rows.Scan(&s.UserID, &week, &raw, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning volume snapshot: %w", err)
		}
		if err := json.Unmarshal(raw, &s.Analysis); err != nil {
			return nil, fmt.Errorf("decoding volume snapshot %s: %w", week.Format("2006-01-02"), err)
		}
		s.WeekStart = week.Format("2006-01-02")
		result = append(result, s)
	}
	return result, rows.Err()
}

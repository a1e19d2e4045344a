// Package scheduler runs periodic background jobs, currently the weekly
// volume snapshot.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/analytics"
	"github.com/claude/liftlog/internal/models"
	"github.com/robfig/cron/v3"
)

// DefaultSnapshotSpec runs the snapshot at 06:00 every Monday.
const DefaultSnapshotSpec = "0 6 * * MON"

const snapshotTimeout = 2 * time.Minute

// Store is what the snapshot job reads from and writes to.
type Store interface {
	ListUserIDs(ctx context.Context) ([]int, error)
	QueryWorkoutSets(ctx context.Context, start, end time.Time, userID int, exerciseID string) ([]models.Set, error)
	UpsertVolumeSnapshot(ctx context.Context, userID int, weekStart time.Time, analysis []analytics.VolumeAnalysis) error
}

// Scheduler wraps a cron runner with the LiftLog jobs.
type Scheduler struct {
	cron      *cron.Cron
	store     Store
	exercises []models.Exercise
	log       *slog.Logger
	now       func() time.Time
}

// New creates a Scheduler. exercises resolves set exercise IDs to muscle groups.
func New(store Store, exercises []models.Exercise, log *slog.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelDebug))
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		store:     store,
		exercises: exercises,
		log:       log,
		now:       time.Now,
	}
}

// ScheduleVolumeSnapshot registers the snapshot job under a standard
// five-field cron spec.
func (s *Scheduler) ScheduleVolumeSnapshot(spec string) error {
	if spec == "" {
		spec = DefaultSnapshotSpec
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		if err := s.SnapshotVolume(ctx); err != nil {
			s.log.Error("volume snapshot failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling volume snapshot %q: %w", spec, err)
	}
	s.log.Info("volume snapshot scheduled", "spec", spec)
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}

// SnapshotVolume stores one weekly volume analysis per user covering the
// seven days before today (UTC). A failing user is logged and skipped.
func (s *Scheduler) SnapshotVolume(ctx context.Context) error {
	end := s.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -7)

	users, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	var failed int
	for _, uid := range users {
		if err := s.snapshotUser(ctx, uid, start, end); err != nil {
			s.log.Error("volume snapshot for user failed", "user_id", uid, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d user snapshots failed", failed, len(users))
	}
	return nil
}

func (s *Scheduler) snapshotUser(ctx context.Context, uid int, start, end time.Time) error {
	sets, err := s.store.QueryWorkoutSets(ctx, start, end, uid, "")
	if err != nil {
		return fmt.Errorf("querying sets: %w", err)
	}

	analysis := analytics.AnalyzeWeeklyVolume(sets, s.exercises)
	if err := s.store.UpsertVolumeSnapshot(ctx, uid, start, analysis); err != nil {
		return err
	}

	var under, over []string
	for _, a := range analysis {
		switch a.Status {
		case analytics.StatusUnder:
			under = append(under, a.MuscleGroup)
		case analytics.StatusOver:
			over = append(over, a.MuscleGroup)
		}
	}
	s.log.Info("volume snapshot stored",
		"user_id", uid,
		"week_start", start.Format("2006-01-02"),
		"groups", len(analysis),
		"under_mev", under,
		"over_mrv", over,
	)
	return nil
}

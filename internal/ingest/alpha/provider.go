package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// workoutNamespace seeds the name-based UUIDs of imported workouts.
var workoutNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("liftlog:alpha-progression"))

// ErrInvalidExport wraps every failure to parse the uploaded CSV.
var ErrInvalidExport = errors.New("invalid Alpha Progression export")

// Store is the subset of storage.DB the provider writes through.
type Store interface {
	UpsertWorkout(ctx context.Context, w models.Workout) (bool, error)
	ReplaceWorkoutSets(ctx context.Context, workoutID uuid.UUID, userID int, sets []models.Set) (int64, error)
}

// Resolver maps an exported exercise name onto a catalog exercise.
type Resolver interface {
	FindByName(name string) (models.Exercise, bool)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	db       Store
	exercise Resolver
	log      *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(db Store, exercises Resolver, log *slog.Logger) *Provider {
	return &Provider{db: db, exercise: exercises, log: log}
}

// WorkoutID returns the stable workout ID of a session for a user, so a
// re-import replaces the earlier copy instead of duplicating it.
func WorkoutID(userID int, sessionStart time.Time) uuid.UUID {
	name := fmt.Sprintf("%d|%s", userID, sessionStart.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(workoutNamespace, []byte(name))
}

// Ingest parses a CSV export and stores each session as a completed workout.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}

	result := &ingest.Result{WorkoutsReceived: len(sessions)}
	unmatched := make(map[string]bool)

	for _, s := range sessions {
		w := sessionWorkout(s, userID)
		sets := p.sessionSets(s, w.ID, unmatched, result)
		if len(sets) == 0 {
			continue
		}

		inserted, err := p.db.UpsertWorkout(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("storing workout for session %s: %w", s.Date.Format("2006-01-02"), err)
		}
		if inserted {
			result.WorkoutsInserted++
		} else {
			result.WorkoutsReplaced++
		}

		n, err := p.db.ReplaceWorkoutSets(ctx, w.ID, userID, sets)
		if err != nil {
			return nil, fmt.Errorf("storing sets for session %s: %w", s.Date.Format("2006-01-02"), err)
		}
		result.SetsInserted += n
	}

	for name := range unmatched {
		result.Unmatched = append(result.Unmatched, name)
	}
	sort.Strings(result.Unmatched)

	if len(result.Unmatched) > 0 {
		p.log.Warn("alpha import has exercises outside the catalog",
			"count", len(result.Unmatched), "names", result.Unmatched)
	}
	p.log.Info("alpha import done",
		"user_id", userID,
		"workouts", result.WorkoutsReceived,
		"sets", result.SetsInserted,
		"warmups_skipped", result.WarmupsSkipped,
	)
	return result, nil
}

func sessionWorkout(s Session, userID int) models.Workout {
	completed := s.Date
	if d, ok := parseDuration(s.Duration); ok {
		completed = s.Date.Add(d)
	}
	return models.Workout{
		ID:          WorkoutID(userID, s.Date),
		UserID:      userID,
		Status:      models.WorkoutCompleted,
		StartedAt:   s.Date,
		CompletedAt: &completed,
		Notes:       s.Name,
	}
}

// sessionSets converts a session's working sets. Sets are spaced one second
// apart in export order so newest-first ordering matches the log.
func (p *Provider) sessionSets(s Session, workoutID uuid.UUID, unmatched map[string]bool, result *ingest.Result) []models.Set {
	var sets []models.Set
	seq := 0
	for _, ex := range s.Exercises {
		result.WarmupsSkipped += ex.Warmups

		exerciseID := catalog.Slug(ex.Name)
		if e, ok := p.exercise.FindByName(ex.Name); ok {
			exerciseID = e.ID
		} else {
			unmatched[ex.Name] = true
		}

		for _, set := range ex.Sets {
			result.SetsReceived++
			if set.Reps <= 0 {
				continue
			}
			var notes string
			if set.BodyweightPlus && set.Weight != nil {
				notes = "bodyweight plus load"
			}
			sets = append(sets, models.Set{
				ID:         uuid.New(),
				WorkoutID:  workoutID,
				ExerciseID: exerciseID,
				SetNumber:  set.Number,
				Weight:     set.Weight,
				Reps:       set.Reps,
				RIR:        set.RIR,
				Notes:      notes,
				Timestamp:  s.Date.Add(time.Duration(seq) * time.Second),
			})
			seq++
		}
	}
	return sets
}

package alpha

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

type fakeStore struct {
	workouts map[uuid.UUID]models.Workout
	sets     map[uuid.UUID][]models.Set
	failSets error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workouts: make(map[uuid.UUID]models.Workout),
		sets:     make(map[uuid.UUID][]models.Set),
	}
}

func (f *fakeStore) UpsertWorkout(_ context.Context, w models.Workout) (bool, error) {
	_, exists := f.workouts[w.ID]
	f.workouts[w.ID] = w
	return !exists, nil
}

func (f *fakeStore) ReplaceWorkoutSets(_ context.Context, workoutID uuid.UUID, _ int, sets []models.Set) (int64, error) {
	if f.failSets != nil {
		return 0, f.failSets
	}
	f.sets[workoutID] = sets
	return int64(len(sets)), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestIngest verifies sessions become completed workouts with catalog exercise IDs.
func TestIngest(t *testing.T) {
	store := newFakeStore()
	p := NewProvider(store, catalog.Default(), discardLogger())

	res, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if res.WorkoutsReceived != 2 || res.WorkoutsInserted != 2 || res.WorkoutsReplaced != 0 {
		t.Errorf("workouts received/inserted/replaced = %d/%d/%d",
			res.WorkoutsReceived, res.WorkoutsInserted, res.WorkoutsReplaced)
	}
	// 17 working sets in the legs session + 3 bench sets.
	if res.SetsReceived != 20 || res.SetsInserted != 20 {
		t.Errorf("sets received/inserted = %d/%d, want 20/20", res.SetsReceived, res.SetsInserted)
	}
	if res.WarmupsSkipped != 8 {
		t.Errorf("warmups skipped = %d, want 8", res.WarmupsSkipped)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0] != "Hyperextensions on Roman Chair" {
		t.Errorf("unmatched = %v", res.Unmatched)
	}

	legs := store.sets[WorkoutID(1, mustSessionDate(t, "2026-02-19 4:54"))]
	if len(legs) != 17 {
		t.Fatalf("legs sets = %d, want 17", len(legs))
	}
	if legs[0].ExerciseID != "hack-squat" {
		t.Errorf("first exercise = %q, want hack-squat", legs[0].ExerciseID)
	}
	if legs[5].ExerciseID != "hyperextensions-on-roman-chair" {
		t.Errorf("unmatched exercise id = %q", legs[5].ExerciseID)
	}
	for i := 1; i < len(legs); i++ {
		if !legs[i].Timestamp.After(legs[i-1].Timestamp) {
			t.Fatalf("set %d timestamp not after previous", i)
		}
	}

	for _, w := range store.workouts {
		if w.Status != models.WorkoutCompleted || w.CompletedAt == nil {
			t.Errorf("workout %s not completed", w.ID)
		}
	}
}

// TestIngestIsIdempotent verifies a re-import replaces the same workouts.
func TestIngestIsIdempotent(t *testing.T) {
	store := newFakeStore()
	p := NewProvider(store, catalog.Default(), discardLogger())
	ctx := context.Background()

	if _, err := p.Ingest(ctx, strings.NewReader(sampleCSV), 1); err != nil {
		t.Fatal(err)
	}
	res, err := p.Ingest(ctx, strings.NewReader(sampleCSV), 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.WorkoutsInserted != 0 || res.WorkoutsReplaced != 2 {
		t.Errorf("inserted/replaced = %d/%d, want 0/2", res.WorkoutsInserted, res.WorkoutsReplaced)
	}
	if len(store.workouts) != 2 {
		t.Errorf("stored workouts = %d, want 2", len(store.workouts))
	}
}

// TestWorkoutIDPerUser verifies users never share an imported workout ID.
func TestWorkoutIDPerUser(t *testing.T) {
	d := mustSessionDate(t, "2026-02-17 5:04")
	if WorkoutID(1, d) != WorkoutID(1, d) {
		t.Error("workout ID should be deterministic")
	}
	if WorkoutID(1, d) == WorkoutID(2, d) {
		t.Error("different users should get different workout IDs")
	}
}

// TestIngestStoreError verifies store failures surface as errors.
func TestIngestStoreError(t *testing.T) {
	store := newFakeStore()
	store.failSets = errors.New("connection refused")
	p := NewProvider(store, catalog.Default(), discardLogger())

	_, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected store error, got %v", err)
	}
}

// TestIngestInvalidExport verifies parse failures are reported as ErrInvalidExport.
func TestIngestInvalidExport(t *testing.T) {
	store := newFakeStore()
	p := NewProvider(store, catalog.Default(), discardLogger())

	_, err := p.Ingest(context.Background(), strings.NewReader("1;100;8;2\n"), 1)
	if !errors.Is(err, ErrInvalidExport) {
		t.Fatalf("err = %v, want ErrInvalidExport", err)
	}
	if len(store.workouts) != 0 {
		t.Errorf("stored %d workouts from an invalid export", len(store.workouts))
	}
}

func mustSessionDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := parseSessionDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

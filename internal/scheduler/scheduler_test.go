package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/analytics"
	"github.com/claude/liftlog/internal/models"
)

type snapshot struct {
	weekStart time.Time
	analysis  []analytics.VolumeAnalysis
}

type fakeStore struct {
	users     []int
	sets      map[int][]models.Set
	failUser  int
	gotRange  [2]time.Time
	snapshots map[int]snapshot
}

func (f *fakeStore) ListUserIDs(context.Context) ([]int, error) { return f.users, nil }

func (f *fakeStore) QueryWorkoutSets(_ context.Context, start, end time.Time, uid int, _ string) ([]models.Set, error) {
	f.gotRange = [2]time.Time{start, end}
	if uid == f.failUser {
		return nil, errors.New("boom")
	}
	return f.sets[uid], nil
}

func (f *fakeStore) UpsertVolumeSnapshot(_ context.Context, uid int, weekStart time.Time, a []analytics.VolumeAnalysis) error {
	f.snapshots[uid] = snapshot{weekStart, a}
	return nil
}

var exercises = []models.Exercise{
	{ID: "bench", MuscleGroup: "chest"},
	{ID: "curl", MuscleGroup: "biceps"},
}

func repeat(id string, n int) []models.Set {
	out := make([]models.Set, n)
	for i := range out {
		out[i] = models.Set{ExerciseID: id, Reps: 8}
	}
	return out
}

func newTestScheduler(store Store) *Scheduler {
	s := New(store, exercises, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC) }
	return s
}

// TestSnapshotVolume verifies each user's previous week is analysed and stored.
func TestSnapshotVolume(t *testing.T) {
	store := &fakeStore{
		users: []int{1, 2},
		sets: map[int][]models.Set{
			1: append(repeat("bench", 10), repeat("curl", 2)...),
		},
		snapshots: map[int]snapshot{},
	}
	s := newTestScheduler(store)

	if err := s.SnapshotVolume(context.Background()); err != nil {
		t.Fatalf("SnapshotVolume: %v", err)
	}

	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !store.gotRange[0].Equal(wantStart) || !store.gotRange[1].Equal(wantEnd) {
		t.Errorf("range = %v, want [%v, %v)", store.gotRange, wantStart, wantEnd)
	}

	snap := store.snapshots[1]
	if !snap.weekStart.Equal(wantStart) {
		t.Errorf("week start = %v", snap.weekStart)
	}
	if len(snap.analysis) != 2 {
		t.Fatalf("groups = %d, want 2", len(snap.analysis))
	}
	if snap.analysis[0].MuscleGroup != "chest" || snap.analysis[0].Status != analytics.StatusOptimal {
		t.Errorf("chest = %+v", snap.analysis[0])
	}
	if snap.analysis[1].Status != analytics.StatusUnder {
		t.Errorf("biceps = %+v", snap.analysis[1])
	}

	// A user without sets still gets an (empty) snapshot.
	if a, ok := store.snapshots[2]; !ok || len(a.analysis) != 0 {
		t.Errorf("user 2 snapshot = %+v, %v", a, ok)
	}
}

// TestSnapshotVolumeContinuesAfterFailure verifies one failing user does not stop the rest.
func TestSnapshotVolumeContinuesAfterFailure(t *testing.T) {
	store := &fakeStore{
		users:     []int{1, 2},
		failUser:  1,
		sets:      map[int][]models.Set{2: repeat("bench", 3)},
		snapshots: map[int]snapshot{},
	}
	err := newTestScheduler(store).SnapshotVolume(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := store.snapshots[2]; !ok {
		t.Error("user 2 should still be snapshotted")
	}
}

// TestScheduleVolumeSnapshotSpec verifies spec validation.
func TestScheduleVolumeSnapshotSpec(t *testing.T) {
	s := newTestScheduler(&fakeStore{snapshots: map[int]snapshot{}})
	if err := s.ScheduleVolumeSnapshot(""); err != nil {
		t.Errorf("default spec rejected: %v", err)
	}
	if err := s.ScheduleVolumeSnapshot("not a spec"); err == nil {
		t.Error("expected invalid spec error")
	}
}

package catalog

import (
	"strings"
	"testing"

	"github.com/claude/liftlog/internal/analytics"
)

// TestDefaultCatalogResolves verifies every embedded exercise maps to a muscle
// group that has a volume landmark, so no logged set silently drops out of
// the weekly analysis.
func TestDefaultCatalogResolves(t *testing.T) {
	all := Default().All()
	if len(all) == 0 {
		t.Fatal("embedded catalog is empty")
	}
	for _, e := range all {
		if _, ok := analytics.LookupLandmark(e.MuscleGroup); !ok {
			t.Errorf("%s: muscle group %q has no landmark", e.ID, e.MuscleGroup)
		}
		for _, sub := range e.Substitutes {
			if _, ok := Default().Get(sub); !ok {
				t.Errorf("%s: unknown substitute %q", e.ID, sub)
			}
		}
	}
}

// TestFindByName verifies name and alias matching ignores case and punctuation.
func TestFindByName(t *testing.T) {
	c := Default()
	tests := []struct {
		name   string
		wantID string
	}{
		{"Barbell Bench Press", "barbell-bench-press"},
		{"bench press", "barbell-bench-press"},
		{"Hack Squats", "hack-squat"},
		{"PULL UPS", "pull-up"},
		{"Standing Calf Raises", "standing-calf-raise"},
	}
	for _, tt := range tests {
		e, ok := c.FindByName(tt.name)
		if !ok {
			t.Errorf("FindByName(%q): not found", tt.name)
			continue
		}
		if e.ID != tt.wantID {
			t.Errorf("FindByName(%q) = %q, want %q", tt.name, e.ID, tt.wantID)
		}
	}
	if _, ok := c.FindByName("Zercher Carry"); ok {
		t.Error("unexpected match for unknown exercise")
	}
}

// TestByMuscleGroup verifies case-insensitive group filtering.
func TestByMuscleGroup(t *testing.T) {
	calves := Default().ByMuscleGroup("Calves")
	if len(calves) != 3 {
		t.Errorf("calves = %d, want 3", len(calves))
	}
}

// TestLoadRejectsDuplicates verifies duplicate ids are reported.
func TestLoadRejectsDuplicates(t *testing.T) {
	const doc = `
exercises:
  - {id: a, name: A, muscle_group: chest}
  - {id: a, name: B, muscle_group: back}
`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

// TestLoadRejectsMissingGroup verifies an exercise without a muscle group is rejected.
func TestLoadRejectsMissingGroup(t *testing.T) {
	const doc = `
exercises:
  - {id: a, name: A}
`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("expected missing muscle_group error")
	}
}

// TestSlug verifies display names become stable ids.
func TestSlug(t *testing.T) {
	if got := Slug("Hack Squats · Machine"); got != "hack-squats-machine" {
		t.Errorf("Slug = %q", got)
	}
}

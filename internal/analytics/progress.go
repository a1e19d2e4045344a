package analytics

import "github.com/claude/liftlog/internal/models"

// ProgressPoint summarizes one exercise on one calendar day (UTC).
type ProgressPoint struct {
	Date         string  `json:"date"`
	ExerciseName string  `json:"exercise_name"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
	Volume       float64 `json:"volume"`
}

// ExerciseProgress is the day-by-day series for one exercise.
type ExerciseProgress struct {
	ExerciseID string          `json:"exercise_id"`
	Points     []ProgressPoint `json:"points"`
}

// ProgressHistory builds a per-exercise, per-day series of the heaviest set
// and the day's tonnage (weight x reps, bodyweight counted as 0).
// Exercises and days keep the order in which they first appear in sets.
// The heaviest set on a tie is the first one seen.
func ProgressHistory(sets []models.Set, exercises []models.Exercise) []ExerciseProgress {
	names := make(map[string]string, len(exercises))
	for _, e := range exercises {
		if _, seen := names[e.ID]; !seen {
			names[e.ID] = e.Name
		}
	}

	type day struct {
		date  string
		best  models.Set
		total float64
	}
	type series struct {
		id   string
		days []*day
		idx  map[string]*day
	}

	var order []*series
	byExercise := make(map[string]*series)
	for _, s := range sets {
		ser, ok := byExercise[s.ExerciseID]
		if !ok {
			ser = &series{id: s.ExerciseID, idx: make(map[string]*day)}
			byExercise[s.ExerciseID] = ser
			order = append(order, ser)
		}
		date := s.Timestamp.UTC().Format("2006-01-02")
		d, ok := ser.idx[date]
		if !ok {
			d = &day{date: date, best: s}
			ser.idx[date] = d
			ser.days = append(ser.days, d)
		} else if weightOf(s) > weightOf(d.best) {
			d.best = s
		}
		d.total += weightOf(s) * float64(s.Reps)
	}

	out := make([]ExerciseProgress, 0, len(order))
	for _, ser := range order {
		name, ok := names[ser.id]
		if !ok {
			name = "Unknown"
		}
		ep := ExerciseProgress{ExerciseID: ser.id, Points: make([]ProgressPoint, 0, len(ser.days))}
		for _, d := range ser.days {
			ep.Points = append(ep.Points, ProgressPoint{
				Date:         d.date,
				ExerciseName: name,
				Weight:       weightOf(d.best),
				Reps:         d.best.Reps,
				Volume:       d.total,
			})
		}
		out = append(out, ep)
	}
	return out
}

func weightOf(s models.Set) float64 {
	if s.Weight == nil {
		return 0
	}
	return *s.Weight
}

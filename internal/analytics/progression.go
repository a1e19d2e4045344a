package analytics

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/claude/liftlog/internal/models"
)

// Suggestion labels returned in ProgressionSuggestion.Suggestion.
const (
	SuggestionNoData   = "No previous data"
	SuggestionNoRIR    = "No RIR data"
	SuggestionIncrease = "Increase weight"
	SuggestionDecrease = "Decrease weight"
	SuggestionMaintain = "Maintain or add 1 rep"
)

const (
	// progressionWindow is how many of the most recent sets feed the RIR average.
	progressionWindow = 5
	weightStep        = 5.0

	// deloadWeek is the mesocycle week at which a deload is always advised.
	deloadWeek          = 4
	deloadMinSets       = 5
	deloadRIRThreshold  = 3.5
	tooEasyRIRThreshold = 1.0
	tooHardRIRThreshold = 3.0
)

// ProgressionSuggestion is the advice for the next session of one exercise.
type ProgressionSuggestion struct {
	ExerciseID        string   `json:"exercise_id"`
	ExerciseName      string   `json:"exercise_name"`
	Suggestion        string   `json:"suggestion"`
	Reason            string   `json:"reason"`
	RecommendedWeight *float64 `json:"recommended_weight,omitempty"`
	RecommendedReps   *int     `json:"recommended_reps,omitempty"`
}

// Suggest recommends weight and reps for the next session of exercise based
// on the reps in reserve of its most recent sets.
//
// previous may be unordered and may contain sets of other exercises; they are
// filtered out. Only the five most recent matching sets are considered, and
// of those only sets with a logged RIR feed the average:
//
//	avg RIR <= 1      increase weight by 5, keep reps
//	avg RIR >  3      decrease weight by 5 (not below 0), keep reps
//	otherwise         keep weight, add one rep
//
// Weight and reps always come from the single most recent set.
func Suggest(previous []models.Set, exercise models.Exercise) ProgressionSuggestion {
	out := ProgressionSuggestion{
		ExerciseID:   exercise.ID,
		ExerciseName: exercise.Name,
	}

	if len(previous) == 0 {
		out.Suggestion = SuggestionNoData
		out.Reason = "This is your first time logging this exercise. Start conservative."
		return out
	}

	recent := make([]models.Set, 0, len(previous))
	for _, s := range previous {
		if s.ExerciseID == exercise.ID {
			recent = append(recent, s)
		}
	}
	if len(recent) == 0 {
		out.Suggestion = SuggestionNoData
		out.Reason = "This is your first time logging this exercise."
		return out
	}

	slices.SortStableFunc(recent, func(a, b models.Set) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(recent) > progressionWindow {
		recent = recent[:progressionWindow]
	}

	avgRIR, ok := meanRIR(recent)
	if !ok {
		out.Suggestion = SuggestionNoRIR
		out.Reason = "Previous sets missing RIR data. Log RIR for better suggestions."
		return out
	}

	var lastWeight float64
	if recent[0].Weight != nil {
		lastWeight = *recent[0].Weight
	}
	lastReps := recent[0].Reps

	var weight float64
	var reps int
	switch {
	case avgRIR <= tooEasyRIRThreshold:
		weight, reps = lastWeight+weightStep, lastReps
		out.Suggestion = SuggestionIncrease
		out.Reason = fmt.Sprintf("Last workout averaged %s RIR (too easy). Time to progress!", formatRIR(avgRIR))
	case avgRIR > tooHardRIRThreshold:
		weight, reps = math.Max(lastWeight-weightStep, 0), lastReps
		out.Suggestion = SuggestionDecrease
		out.Reason = fmt.Sprintf("Last workout averaged %s RIR (too hard). Back off slightly.", formatRIR(avgRIR))
	default:
		weight, reps = lastWeight, lastReps+1
		out.Suggestion = SuggestionMaintain
		out.Reason = fmt.Sprintf("You're in the optimal RIR range (%s). Great work!", formatRIR(avgRIR))
	}
	out.RecommendedWeight = &weight
	out.RecommendedReps = &reps
	return out
}

// DeloadAssessment says whether a deload week is advised and why.
type DeloadAssessment struct {
	ShouldDeload bool   `json:"shouldDeload"`
	Reason       string `json:"reason"`
}

// ShouldDeload decides whether the lifter should take a deload week.
// From week 4 of a mesocycle a deload is always advised. Earlier, at least
// five sets with RIR are needed, and a mean RIR above 3.5 signals fatigue.
func ShouldDeload(recent []models.Set, weekNumber int) DeloadAssessment {
	if weekNumber >= deloadWeek {
		return DeloadAssessment{
			ShouldDeload: true,
			Reason:       "End of mesocycle - time for a deload week to recover",
		}
	}

	if countRIR(recent) < deloadMinSets {
		return DeloadAssessment{Reason: "Not enough data to assess fatigue"}
	}

	avg, _ := meanRIR(recent)
	if avg > deloadRIRThreshold {
		return DeloadAssessment{
			ShouldDeload: true,
			Reason:       "Consistently high RIR suggests accumulated fatigue - consider a deload",
		}
	}
	return DeloadAssessment{Reason: "Recovery appears adequate - continue training"}
}

var deloadPlan = [...]string{
	"Reduce volume by 50% (half the sets)",
	"Reduce intensity by 10-20% (lighter weights)",
	"Maintain same exercises and rep ranges",
	"Keep RIR at 3-4 (don't push hard)",
	"Duration: 1 week",
	"After deload, resume normal training and add volume",
}

// DeloadRecommendations returns the standard deload week guidelines.
func DeloadRecommendations() []string {
	out := make([]string, len(deloadPlan))
	copy(out, deloadPlan[:])
	return out
}

func countRIR(sets []models.Set) int {
	n := 0
	for _, s := range sets {
		if s.RIR != nil {
			n++
		}
	}
	return n
}

// meanRIR averages RIR over the sets that have one. ok is false when none do.
func meanRIR(sets []models.Set) (avg float64, ok bool) {
	var sum, n int
	for _, s := range sets {
		if s.RIR == nil {
			continue
		}
		sum += *s.RIR
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// formatRIR renders v with one decimal, rounding halves away from zero.
func formatRIR(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}

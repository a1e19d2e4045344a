package analytics

import (
	"fmt"
	"strings"

	"github.com/claude/liftlog/internal/models"
)

// VolumeStatus classifies a weekly set count against a landmark.
type VolumeStatus string

const (
	StatusUnder          VolumeStatus = "under"
	StatusOptimal        VolumeStatus = "optimal"
	StatusApproachingMax VolumeStatus = "approaching_max"
	StatusOver           VolumeStatus = "over"
)

// VolumeAnalysis is the weekly volume of one muscle group.
type VolumeAnalysis struct {
	MuscleGroup string       `json:"muscleGroup"`
	CurrentSets int          `json:"currentSets"`
	Landmark    Landmark     `json:"landmark"`
	Status      VolumeStatus `json:"status"`
}

// AnalyzeWeeklyVolume counts sets per muscle group and classifies each count
// against its landmark. Every set counts once regardless of reps or load.
// Sets whose exercise is not in exercises are skipped.
//
// Results follow the order in which muscle groups first appear in sets.
// Groups without a landmark get a zeroed landmark and StatusOptimal.
func AnalyzeWeeklyVolume(sets []models.Set, exercises []models.Exercise) []VolumeAnalysis {
	byID := make(map[string]models.Exercise, len(exercises))
	for _, e := range exercises {
		if _, seen := byID[e.ID]; !seen {
			byID[e.ID] = e
		}
	}

	var order []string
	counts := make(map[string]int)
	for _, s := range sets {
		ex, ok := byID[s.ExerciseID]
		if !ok {
			continue
		}
		muscle := strings.ToLower(ex.MuscleGroup)
		if _, seen := counts[muscle]; !seen {
			order = append(order, muscle)
		}
		counts[muscle]++
	}

	out := make([]VolumeAnalysis, 0, len(order))
	for _, muscle := range order {
		n := counts[muscle]
		lm, ok := LookupLandmark(muscle)
		if !ok {
			out = append(out, VolumeAnalysis{
				MuscleGroup: muscle,
				CurrentSets: n,
				Landmark:    Landmark{MuscleGroup: muscle},
				Status:      StatusOptimal,
			})
			continue
		}
		out = append(out, VolumeAnalysis{
			MuscleGroup: muscle,
			CurrentSets: n,
			Landmark:    lm,
			Status:      classify(n, lm),
		})
	}
	return out
}

// classify applies the bands in order, first match wins. Counts between
// mev_min and mav_min match no band and fall back to optimal.
func classify(n int, lm Landmark) VolumeStatus {
	switch {
	case n < lm.MEVMin:
		return StatusUnder
	case n >= lm.MAVMin && n <= lm.MAVMax:
		return StatusOptimal
	case n > lm.MAVMax && n < lm.MRVMax:
		return StatusApproachingMax
	case n >= lm.MRVMax:
		return StatusOver
	}
	return StatusOptimal
}

// VolumeRecommendation turns an analysis into a one-line training hint.
func VolumeRecommendation(a VolumeAnalysis) string {
	switch a.Status {
	case StatusUnder:
		return fmt.Sprintf("Add %d more sets to reach minimum effective volume", a.Landmark.MEVMin-a.CurrentSets)
	case StatusOptimal:
		return "Volume is in the optimal range for growth"
	case StatusApproachingMax:
		return "Approaching maximum recoverable volume - consider maintaining current volume"
	case StatusOver:
		return "Volume exceeds recovery capacity - reduce sets or consider a deload"
	default:
		return "Unknown status"
	}
}

// VolumeReport is an analysis together with its recommendation.
type VolumeReport struct {
	VolumeAnalysis
	Recommendation string `json:"recommendation"`
}

// Reports attaches a recommendation to every analysis, keeping order.
func Reports(analyses []VolumeAnalysis) []VolumeReport {
	out := make([]VolumeReport, len(analyses))
	for i, a := range analyses {
		out[i] = VolumeReport{VolumeAnalysis: a, Recommendation: VolumeRecommendation(a)}
	}
	return out
}

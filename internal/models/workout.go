package models

import (
	"time"

	"github.com/google/uuid"
)

// Workout status values.
const (
	WorkoutInProgress = "in_progress"
	WorkoutCompleted  = "completed"
)

// Workout is one training session owned by a user.
type Workout struct {
	ID          uuid.UUID  `json:"id"`
	UserID      int        `json:"user_id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// Set is a single logged set. Weight is nil for bodyweight work and RIR is
// nil when the lifter did not record reps in reserve.
type Set struct {
	ID         uuid.UUID `json:"id"`
	WorkoutID  uuid.UUID `json:"workout_id"`
	ExerciseID string    `json:"exercise_id"`
	SetNumber  int       `json:"set_number"`
	Weight     *float64  `json:"weight,omitempty"`
	Reps       int       `json:"reps"`
	RIR        *int      `json:"rir,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// WorkoutDetail is a workout with its logged sets in set order.
type WorkoutDetail struct {
	Workout
	Sets []Set `json:"sets"`
}

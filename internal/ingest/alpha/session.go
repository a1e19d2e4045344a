package alpha

import "time"

// Session is one parsed Alpha Progression workout.
type Session struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []Exercise
}

// Exercise is a single exercise block within a session.
type Exercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	// Warmups counts the warmup sets listed in the header; they are not kept.
	Warmups int
	Sets    []Set
}

// Set is one working set. Weight is nil for pure bodyweight sets and RIR
// is nil when the export carries no usable value.
type Set struct {
	Number         int
	Weight         *float64
	BodyweightPlus bool
	Reps           int
	RIR            *int
}

package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	WorkoutsReceived int `json:"workouts_received"`
	WorkoutsInserted int `json:"workouts_inserted"`
	WorkoutsReplaced int `json:"workouts_replaced"`

	SetsReceived   int   `json:"sets_received"`
	SetsInserted   int64 `json:"sets_inserted"`
	WarmupsSkipped int   `json:"warmups_skipped"`

	// Unmatched lists exercise names that resolved to no catalog entry.
	Unmatched []string `json:"unmatched_exercises,omitempty"`

	Message string `json:"message,omitempty"`
}

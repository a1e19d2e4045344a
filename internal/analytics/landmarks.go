// Package analytics derives training feedback from logged sets: progression
// suggestions, deload checks and weekly volume classification against
// per-muscle-group volume landmarks.
//
// Every function here is pure. Callers fetch the sets; nothing in this
// package touches storage.
package analytics

import "strings"

// Landmark holds the weekly set ranges for one muscle group.
//
//	MV  = maintenance volume
//	MEV = minimum effective volume
//	MAV = maximum adaptive volume
//	MRV = maximum recoverable volume
type Landmark struct {
	MuscleGroup string `json:"muscle_group"`
	MVMin       int    `json:"mv_min"`
	MVMax       int    `json:"mv_max"`
	MEVMin      int    `json:"mev_min"`
	MEVMax      int    `json:"mev_max"`
	MAVMin      int    `json:"mav_min"`
	MAVMax      int    `json:"mav_max"`
	MRVMin      int    `json:"mrv_min"`
	MRVMax      int    `json:"mrv_max"`
}

// landmarkTable is read-only after init. Rows ascend band by band except
// abs, whose MEV range starts at 0 and overlaps its MV range.
var landmarkTable = [...]Landmark{
	{"chest", 2, 4, 4, 6, 6, 16, 16, 24},
	{"back", 2, 6, 6, 8, 8, 20, 20, 26},
	{"quads", 2, 4, 4, 6, 6, 14, 14, 18},
	{"hamstrings", 2, 4, 4, 6, 6, 12, 12, 16},
	{"shoulders", 2, 6, 6, 8, 8, 24, 24, 30},
	{"biceps", 0, 4, 4, 8, 8, 20, 20, 26},
	{"triceps", 0, 4, 4, 6, 6, 16, 16, 20},
	{"glutes", 2, 4, 4, 6, 6, 14, 14, 18},
	{"calves", 2, 6, 6, 8, 8, 16, 16, 20},
	{"abs", 0, 4, 0, 4, 4, 12, 12, 20},
}

var landmarkIndex = func() map[string]int {
	idx := make(map[string]int, len(landmarkTable))
	for i, l := range landmarkTable {
		idx[l.MuscleGroup] = i
	}
	return idx
}()

// LookupLandmark returns the landmark for a muscle group, ignoring case.
func LookupLandmark(muscleGroup string) (Landmark, bool) {
	i, ok := landmarkIndex[strings.ToLower(muscleGroup)]
	if !ok {
		return Landmark{}, false
	}
	return landmarkTable[i], true
}

// Landmarks returns a copy of the full table in its canonical order.
func Landmarks() []Landmark {
	out := make([]Landmark, len(landmarkTable))
	copy(out, landmarkTable[:])
	return out
}

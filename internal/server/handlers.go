package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/analytics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxRIR = 4

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	if group := r.URL.Query().Get("muscle_group"); group != "" {
		exercises := s.catalog.ByMuscleGroup(group)
		if exercises == nil {
			exercises = []models.Exercise{}
		}
		writeJSON(w, http.StatusOK, exercises)
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.All())
}

func (s *Server) handleLandmarks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, analytics.Landmarks())
}

type createWorkoutRequest struct {
	StartedAt *time.Time `json:"started_at"`
	Notes     string     `json:"notes"`
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}

	var req createWorkoutRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	started := time.Now()
	if req.StartedAt != nil {
		started = *req.StartedAt
	}

	workout, err := s.db.CreateWorkout(r.Context(), uid, started, req.Notes)
	if err != nil {
		s.log.Error("create workout", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleQueryWorkouts(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	workouts, err := s.db.QueryWorkouts(r.Context(), start, end, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := parseWorkoutID(w, r)
	if !ok {
		return
	}

	detail, err := s.db.GetWorkout(r.Context(), workoutID, uid)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type logSetRequest struct {
	ExerciseID string     `json:"exercise_id"`
	SetNumber  int        `json:"set_number"`
	Weight     *float64   `json:"weight"`
	Reps       int        `json:"reps"`
	RIR        *int       `json:"rir"`
	Notes      string     `json:"notes"`
	Timestamp  *time.Time `json:"timestamp"`
}

func (req logSetRequest) validate(known func(id string) bool) string {
	switch {
	case req.ExerciseID == "":
		return "exercise_id is required"
	case !known(req.ExerciseID):
		return "unknown exercise: " + req.ExerciseID
	case req.Reps <= 0:
		return "reps must be positive"
	case req.RIR != nil && (*req.RIR < 0 || *req.RIR > maxRIR):
		return "rir must be between 0 and 4"
	case req.Weight != nil && *req.Weight < 0:
		return "weight must not be negative"
	case req.SetNumber < 0:
		return "set_number must not be negative"
	}
	return ""
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := parseWorkoutID(w, r)
	if !ok {
		return
	}

	var req logSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if msg := req.validate(func(id string) bool { _, ok := s.catalog.Get(id); return ok }); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	set := models.Set{
		WorkoutID:  workoutID,
		ExerciseID: req.ExerciseID,
		SetNumber:  req.SetNumber,
		Weight:     req.Weight,
		Reps:       req.Reps,
		RIR:        req.RIR,
		Notes:      req.Notes,
	}
	if req.Timestamp != nil {
		set.Timestamp = *req.Timestamp
	}

	logged, err := s.db.InsertSet(r.Context(), uid, set)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	if err != nil {
		s.log.Error("log set", "workout_id", workoutID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, logged)
}

func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := parseWorkoutID(w, r)
	if !ok {
		return
	}

	workout, err := s.db.CompleteWorkout(r.Context(), workoutID, uid, time.Now())
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleQuerySets(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sets, err := s.db.QueryWorkoutSets(r.Context(), start, end, uid, r.URL.Query().Get("exercise"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sets == nil {
		sets = []models.Set{}
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleRecentSets(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	exerciseID := r.URL.Query().Get("exercise")
	if exerciseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	limit := recentSetLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sets, err := s.db.QueryRecentSets(r.Context(), uid, exerciseID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sets == nil {
		sets = []models.Set{}
	}
	writeJSON(w, http.StatusOK, sets)
}

func parseWorkoutID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseTimeRange reads start/end query params, defaulting to the last 7 days.
func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	return parseTimeRangeDays(r, 7)
}

// parseTimeRangeDays is parseTimeRange with a default window of days.
// A date-only end includes that whole day.
func parseTimeRangeDays(r *http.Request, days int) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}

	if startStr == "" {
		start = end.AddDate(0, 0, -days)
		return
	}
	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/liftlog/internal/analytics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/programgen"
	"github.com/claude/liftlog/internal/storage"
)

// recentSetLimit is how many of the latest sets feed a progression suggestion.
const recentSetLimit = 20

// resolveExercise accepts a catalog ID or a name/alias.
func (s *Server) resolveExercise(ref string) (models.Exercise, bool) {
	if e, ok := s.catalog.Get(ref); ok {
		return e, true
	}
	return s.catalog.FindByName(ref)
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	ref := r.URL.Query().Get("exerciseId")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exerciseId parameter required"})
		return
	}
	exercise, ok := s.resolveExercise(ref)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}

	sets, err := s.db.QueryRecentSets(r.Context(), uid, exercise.ID, recentSetLimit)
	if err != nil {
		s.log.Error("progression query", "exercise_id", exercise.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analytics.Suggest(sets, exercise))
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sets, err := s.db.QueryWorkoutSets(r.Context(), start, end, uid, "")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analytics.Reports(analytics.AnalyzeWeeklyVolume(sets, s.catalog.All())))
}

func (s *Server) handleVolumeHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRangeDays(r, 84)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snapshots, err := s.db.QueryVolumeSnapshots(r.Context(), start, end, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if snapshots == nil {
		snapshots = []storage.VolumeSnapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

type deloadResponse struct {
	Week int `json:"week"`
	analytics.DeloadAssessment
	Plan []string `json:"plan,omitempty"`
}

func (s *Server) handleDeload(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	week := 1
	if v := r.URL.Query().Get("week"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week must be a positive integer"})
			return
		}
		week = parsed
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sets, err := s.db.QueryWorkoutSets(r.Context(), start, end, uid, "")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	resp := deloadResponse{Week: week, DeloadAssessment: analytics.ShouldDeload(sets, week)}
	if resp.ShouldDeload {
		resp.Plan = analytics.DeloadRecommendations()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeloadPlan(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, analytics.DeloadRecommendations())
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRangeDays(r, 28)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sets, err := s.db.QueryWorkoutSets(r.Context(), start, end, uid, "")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analytics.ProgressHistory(sets, s.catalog.All()))
}

func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	var req programgen.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	program, err := s.programs.Generate(r.Context(), req)
	switch {
	case errors.Is(err, programgen.ErrMissingFields):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, programgen.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	case err != nil:
		s.log.Error("program generation failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRangeDays(r, 182)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bucket := "1 month"
	switch r.URL.Query().Get("agg") {
	case "weekly":
		bucket = "1 week"
	case "monthly", "":
		bucket = "1 month"
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agg must be weekly or monthly"})
		return
	}

	periods, err := s.db.GetTrainingSummary(r.Context(), start, end, bucket, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if periods == nil {
		periods = []storage.TrainingSummaryPeriod{}
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleTrainingIntensity(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRangeDays(r, 90)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.db.GetTrainingIntensity(r.Context(), start, end, uid, r.URL.Query().Get("exercise"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

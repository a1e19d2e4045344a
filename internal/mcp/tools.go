package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/analytics"
	"github.com/claude/liftlog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// recentSetLimit bounds the history handed to the progression advisor.
const recentSetLimit = 20

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	return timeRange(startStr, endStr, 7)
}

// timeRange parses optional bounds; a missing end is now and a missing start
// is days before end. A date-only end includes that whole day.
func timeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetProgressionSuggestion = mcp.NewTool("get_progression_suggestion",
	mcp.WithDescription("Suggest weight and reps for the next session of an exercise from the last 5 logged sets and their reps in reserve (RIR)."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID (e.g. barbell-bench-press) or name (e.g. Bench Press)")),
)

var toolAnalyzeWeeklyVolume = mcp.NewTool("analyze_weekly_volume",
	mcp.WithDescription("Count working sets per muscle group and classify each against its volume landmarks: under (below MEV), optimal, approaching_max or over (at or above MRV)."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolCheckDeload = mcp.NewTool("check_deload",
	mcp.WithDescription("Decide whether a deload week is advised from the week of the mesocycle and the average RIR of recent sets."),
	mcp.WithNumber("week", mcp.Description("Current week of the mesocycle (1-based). Defaults to 1.")),
	mcp.WithString("start", mcp.Description("Start date of the sets to assess. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetDeloadPlan = mcp.NewTool("get_deload_plan",
	mcp.WithDescription("Return the standard guidelines for a deload week."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List catalog exercises with muscle group, equipment, difficulty and substitutes."),
	mcp.WithString("muscle_group", mcp.Description("Only exercises for this muscle group (e.g. chest, back, quads)")),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List workouts (start, completion, status, notes) in a time range."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetWorkoutSets = mcp.NewTool("get_workout_sets",
	mcp.WithDescription("Retrieve logged sets (exercise, weight, reps, RIR) in a time range, oldest first."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Only sets of this exercise ID or name")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Per-exercise daily series of the heaviest set and the session tonnage."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 28 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly or monthly training totals: workouts, working sets, reps, tonnage and average RIR."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 6 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Period size. Defaults to '1 month'."), mcp.Enum("1 week", "1 month")),
)

var toolGetTrainingIntensity = mcp.NewTool("get_training_intensity",
	mcp.WithDescription("RIR distribution, failure rate and per-exercise summary. With an exercise, also its per-day progression."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Exercise ID or name for progression detail")),
)

// --- Tool handlers ---

// resolveExercise accepts a catalog ID or a name/alias.
func (h *handlers) resolveExercise(ref string) (models.Exercise, bool) {
	if e, ok := h.catalog.Get(ref); ok {
		return e, true
	}
	return h.catalog.FindByName(ref)
}

func (h *handlers) getProgressionSuggestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ex, ok := h.resolveExercise(ref)
	if !ok {
		return mcp.NewToolResultError("unknown exercise: " + ref), nil
	}

	sets, err := h.ds.QueryRecentSets(ctx, UserIDFromContext(ctx), ex.ID, recentSetLimit)
	if err != nil {
		h.log.Error("mcp get_progression_suggestion", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return jsonResult(analytics.Suggest(sets, ex))
}

func (h *handlers) analyzeWeeklyVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sets, err := h.ds.QueryWorkoutSets(ctx, start, end, UserIDFromContext(ctx), "")
	if err != nil {
		h.log.Error("mcp analyze_weekly_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return jsonResult(analytics.Reports(analytics.AnalyzeWeeklyVolume(sets, h.catalog.All())))
}

func (h *handlers) checkDeload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	week := req.GetInt("week", 1)

	sets, err := h.ds.QueryWorkoutSets(ctx, start, end, UserIDFromContext(ctx), "")
	if err != nil {
		h.log.Error("mcp check_deload", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	assessment := analytics.ShouldDeload(sets, week)
	out := map[string]any{
		"week":         week,
		"shouldDeload": assessment.ShouldDeload,
		"reason":       assessment.Reason,
	}
	if assessment.ShouldDeload {
		out["plan"] = analytics.DeloadRecommendations()
	}
	return jsonResult(out)
}

func (h *handlers) getDeloadPlan(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(analytics.DeloadRecommendations())
}

func (h *handlers) listExercises(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if group := req.GetString("muscle_group", ""); group != "" {
		return jsonResult(h.catalog.ByMuscleGroup(group))
	}
	return jsonResult(h.catalog.All())
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	workouts, err := h.ds.QueryWorkouts(ctx, start, end, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts)
}

func (h *handlers) getWorkoutSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	exerciseID := h.exerciseFilter(req.GetString("exercise", ""))

	sets, err := h.ds.QueryWorkoutSets(ctx, start, end, UserIDFromContext(ctx), exerciseID)
	if err != nil {
		h.log.Error("mcp get_workout_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sets)
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 28)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sets, err := h.ds.QueryWorkoutSets(ctx, start, end, UserIDFromContext(ctx), "")
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(analytics.ProgressHistory(sets, h.catalog.All()))
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 182)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	bucket := req.GetString("bucket", "1 month")
	summary, err := h.ds.GetTrainingSummary(ctx, start, end, bucket, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(summary)
}

func (h *handlers) getTrainingIntensity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	exerciseID := h.exerciseFilter(req.GetString("exercise", ""))

	intensity, err := h.ds.GetTrainingIntensity(ctx, start, end, UserIDFromContext(ctx), exerciseID)
	if err != nil {
		h.log.Error("mcp get_training_intensity", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(intensity)
}

// exerciseFilter resolves an optional exercise argument to an ID.
// Unknown names pass through as IDs so imported exercises stay reachable.
func (h *handlers) exerciseFilter(ref string) string {
	if ref == "" {
		return ""
	}
	if ex, ok := h.resolveExercise(ref); ok {
		return ex.ID
	}
	return ref
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

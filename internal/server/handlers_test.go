package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/analytics"
	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
	liftmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/programgen"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

const testAPIKey = "secret"

// fakeStore implements the handful of Store methods the handlers under test
// reach. Calling any other method panics via the nil embedded interface.
type fakeStore struct {
	Store

	sets     []models.Set
	setsErr  error
	workout  *models.WorkoutDetail
	inserted *models.Set
	logs     []storage.ImportLog

	gotUserID   int
	gotExercise string
	gotLimit    int
	gotBucket   string
}

func (f *fakeStore) QueryRecentSets(_ context.Context, userID int, exerciseID string, limit int) ([]models.Set, error) {
	f.gotUserID, f.gotExercise, f.gotLimit = userID, exerciseID, limit
	return f.sets, f.setsErr
}

func (f *fakeStore) QueryWorkoutSets(_ context.Context, _, _ time.Time, userID int, exerciseID string) ([]models.Set, error) {
	f.gotUserID, f.gotExercise = userID, exerciseID
	return f.sets, f.setsErr
}

func (f *fakeStore) GetWorkout(_ context.Context, id uuid.UUID, _ int) (*models.WorkoutDetail, error) {
	if f.workout == nil || f.workout.ID != id {
		return nil, fmt.Errorf("querying workout %s: %w", id, storage.ErrNotFound)
	}
	return f.workout, nil
}

func (f *fakeStore) InsertSet(_ context.Context, _ int, s models.Set) (*models.Set, error) {
	if f.workout == nil || f.workout.ID != s.WorkoutID {
		return nil, storage.ErrNotFound
	}
	s.ID = uuid.New()
	if s.SetNumber == 0 {
		s.SetNumber = 1
	}
	f.inserted = &s
	return &s, nil
}

func (f *fakeStore) GetTrainingSummary(_ context.Context, _, _ time.Time, bucket string, _ int) ([]storage.TrainingSummaryPeriod, error) {
	f.gotBucket = bucket
	return nil, nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	f.logs = append(f.logs, l)
	return int64(len(f.logs)), nil
}

type fakeImporter struct {
	result *ingest.Result
	err    error
	body   string
}

func (f *fakeImporter) Ingest(_ context.Context, r io.Reader, _ int) (*ingest.Result, error) {
	data, _ := io.ReadAll(r)
	f.body = string(data)
	return f.result, f.err
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(context.Context, string) (string, error) {
	return f.reply, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(db Store, imp Importer, c programgen.Completer) *Server {
	log := discardLogger()
	return New(db, catalog.Default(), imp, programgen.NewGenerator(c, log), testAPIKey, log)
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func ptr[T any](v T) *T { return &v }

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeImporter{}, nil)
	rec := do(s, http.MethodGet, "/api/v1/me", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestHandleMeTailscaleUser verifies the /api/v1/me endpoint returns the
// Tailscale user identity when set in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
	if info.DisplayName != "Alice" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Alice")
	}
}

// TestProgressionStatus verifies the status mapping of the progression endpoint.
func TestProgressionStatus(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{"missing id", "", nil, http.StatusBadRequest},
		{"unknown exercise", "?exerciseId=underwater-curl", nil, http.StatusNotFound},
		{"store error", "?exerciseId=barbell-bench-press", errors.New("db down"), http.StatusInternalServerError},
		{"ok", "?exerciseId=barbell-bench-press", nil, http.StatusOK},
		{"by name", "?exerciseId=Bench%20Press", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&fakeStore{setsErr: tc.err}, &fakeImporter{}, nil)
			rec := do(s, http.MethodGet, "/api/v1/progression"+tc.query, "")
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

// TestProgressionSuggestion verifies the last 20 sets of the exercise feed Suggest.
func TestProgressionSuggestion(t *testing.T) {
	now := time.Now()
	store := &fakeStore{sets: []models.Set{
		{ExerciseID: "barbell-bench-press", Weight: ptr(80.0), Reps: 8, RIR: ptr(4), Timestamp: now},
		{ExerciseID: "barbell-bench-press", Weight: ptr(80.0), Reps: 8, RIR: ptr(4), Timestamp: now.Add(-time.Minute)},
	}}
	s := newTestServer(store, &fakeImporter{}, nil)

	rec := do(s, http.MethodGet, "/api/v1/progression?exerciseId=barbell-bench-press", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.gotExercise != "barbell-bench-press" || store.gotLimit != recentSetLimit || store.gotUserID != 1 {
		t.Errorf("query args = (%d, %q, %d)", store.gotUserID, store.gotExercise, store.gotLimit)
	}

	var got analytics.ProgressionSuggestion
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Suggestion != analytics.SuggestionDecrease {
		t.Errorf("suggestion = %q, want %q", got.Suggestion, analytics.SuggestionDecrease)
	}
	if got.RecommendedWeight == nil || *got.RecommendedWeight != 75 {
		t.Errorf("recommended weight = %v, want 75", got.RecommendedWeight)
	}
}

// TestVolumeReport verifies sets are classified per muscle group with a recommendation.
func TestVolumeReport(t *testing.T) {
	var sets []models.Set
	for range 18 {
		sets = append(sets, models.Set{ExerciseID: "back-squat", Reps: 5})
	}
	s := newTestServer(&fakeStore{sets: sets}, &fakeImporter{}, nil)

	rec := do(s, http.MethodGet, "/api/v1/volume?start=2026-01-05&end=2026-01-11", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []analytics.VolumeReport
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MuscleGroup != "quads" {
		t.Fatalf("reports = %+v", got)
	}
	if got[0].Status != analytics.StatusOver {
		t.Errorf("status = %q, want over", got[0].Status)
	}
	if got[0].Recommendation != analytics.VolumeRecommendation(got[0].VolumeAnalysis) {
		t.Errorf("recommendation = %q", got[0].Recommendation)
	}
}

// TestVolumeInvalidRange verifies a malformed date is a client error.
func TestVolumeInvalidRange(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeImporter{}, nil)
	rec := do(s, http.MethodGet, "/api/v1/volume?start=yesterday", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestDeload verifies the week parameter and the attached plan.
func TestDeload(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeImporter{}, nil)

	rec := do(s, http.MethodGet, "/api/v1/deload?week=4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got deloadResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Week != 4 || !got.ShouldDeload || len(got.Plan) == 0 {
		t.Errorf("deload = %+v", got)
	}

	rec = do(s, http.MethodGet, "/api/v1/deload", "")
	got = deloadResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Week != 1 || got.ShouldDeload || got.Plan != nil {
		t.Errorf("week 1 without data = %+v", got)
	}

	for _, week := range []string{"0", "abc"} {
		if rec := do(s, http.MethodGet, "/api/v1/deload?week="+week, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("week=%s: status = %d, want 400", week, rec.Code)
		}
	}
}

// TestProgramStatus verifies the generator's errors map to HTTP statuses.
func TestProgramStatus(t *testing.T) {
	valid := `{"frequency":3,"sex":"female","goals":"hypertrophy"}`
	program := `{"program_name":"Full Body","split_type":"full body","days":[],"rationale":"x"}`

	cases := []struct {
		name      string
		body      string
		completer programgen.Completer
		status    int
	}{
		{"invalid json", `{`, fakeCompleter{reply: program}, http.StatusBadRequest},
		{"missing fields", `{"frequency":3}`, fakeCompleter{reply: program}, http.StatusBadRequest},
		{"not configured", valid, nil, http.StatusServiceUnavailable},
		{"upstream error", valid, fakeCompleter{err: errors.New("overloaded")}, http.StatusBadGateway},
		{"unparseable reply", valid, fakeCompleter{reply: "no json here"}, http.StatusBadGateway},
		{"ok", valid, fakeCompleter{reply: "Here you go:\n" + program}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&fakeStore{}, &fakeImporter{}, tc.completer)
			rec := do(s, http.MethodPost, "/api/v1/program", tc.body)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

// TestLogSet verifies set validation and the workout lookup.
func TestLogSet(t *testing.T) {
	workoutID := uuid.New()

	cases := []struct {
		name    string
		workout string
		body    string
		status  int
	}{
		{"ok", workoutID.String(), `{"exercise_id":"back-squat","weight":100,"reps":5,"rir":2}`, http.StatusCreated},
		{"bodyweight", workoutID.String(), `{"exercise_id":"pull-up","reps":8}`, http.StatusCreated},
		{"zero reps", workoutID.String(), `{"exercise_id":"back-squat","reps":0}`, http.StatusBadRequest},
		{"rir out of range", workoutID.String(), `{"exercise_id":"back-squat","reps":5,"rir":5}`, http.StatusBadRequest},
		{"negative rir", workoutID.String(), `{"exercise_id":"back-squat","reps":5,"rir":-1}`, http.StatusBadRequest},
		{"unknown exercise", workoutID.String(), `{"exercise_id":"underwater-curl","reps":5}`, http.StatusBadRequest},
		{"missing exercise", workoutID.String(), `{"reps":5}`, http.StatusBadRequest},
		{"invalid workout id", "not-a-uuid", `{"exercise_id":"back-squat","reps":5}`, http.StatusBadRequest},
		{"unknown workout", uuid.NewString(), `{"exercise_id":"back-squat","reps":5}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{workout: &models.WorkoutDetail{Workout: models.Workout{ID: workoutID}}}
			s := newTestServer(store, &fakeImporter{}, nil)
			rec := do(s, http.MethodPost, "/api/v1/workouts/"+tc.workout+"/sets", tc.body)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			if tc.status == http.StatusCreated && store.inserted == nil {
				t.Error("set was not stored")
			}
		})
	}
}

// TestGetWorkoutNotFound verifies ErrNotFound maps to 404 through error wrapping.
func TestGetWorkoutNotFound(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeImporter{}, nil)
	rec := do(s, http.MethodGet, "/api/v1/workouts/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestAlphaIngest verifies auth, status mapping and the import log.
func TestAlphaIngest(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		s := newTestServer(&fakeStore{}, &fakeImporter{}, nil)
		rec := do(s, http.MethodPost, "/api/v1/ingest/alpha", "csv")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	cases := []struct {
		name       string
		imp        *fakeImporter
		status     int
		wantStatus string
	}{
		{
			name:       "ok",
			imp:        &fakeImporter{result: &ingest.Result{WorkoutsReceived: 2, WorkoutsInserted: 1, WorkoutsReplaced: 1, SetsReceived: 20, SetsInserted: 20}},
			status:     http.StatusOK,
			wantStatus: "success",
		},
		{
			name:       "invalid export",
			imp:        &fakeImporter{err: fmt.Errorf("%w: set data without exercise", alpha.ErrInvalidExport)},
			status:     http.StatusBadRequest,
			wantStatus: "error",
		},
		{
			name:       "store failure",
			imp:        &fakeImporter{err: errors.New("storing workout: connection refused")},
			status:     http.StatusInternalServerError,
			wantStatus: "error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			s := newTestServer(store, tc.imp, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader("export"))
			req.Header.Set("X-API-Key", testAPIKey)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.imp.body != "export" {
				t.Errorf("importer read %q", tc.imp.body)
			}
			if len(store.logs) != 1 {
				t.Fatalf("import logs = %d, want 1", len(store.logs))
			}
			l := store.logs[0]
			if l.Status != tc.wantStatus || l.Source != "alpha" || l.UserID != 1 {
				t.Errorf("import log = %+v", l)
			}
			if tc.wantStatus == "success" && (l.WorkoutsInserted != 2 || l.SetsInserted != 20) {
				t.Errorf("import log counts = %+v", l)
			}
			if tc.wantStatus == "error" && l.ErrorMessage == nil {
				t.Error("error message not recorded")
			}
		})
	}
}

// TestTrainingSummaryAgg verifies the agg parameter maps to a bucket.
func TestTrainingSummaryAgg(t *testing.T) {
	cases := []struct {
		agg    string
		bucket string
		status int
	}{
		{"", "1 month", http.StatusOK},
		{"weekly", "1 week", http.StatusOK},
		{"monthly", "1 month", http.StatusOK},
		{"hourly", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		store := &fakeStore{}
		s := newTestServer(store, &fakeImporter{}, nil)
		rec := do(s, http.MethodGet, "/api/v1/training/summary?agg="+tc.agg, "")
		if rec.Code != tc.status {
			t.Errorf("agg=%q: status = %d, want %d", tc.agg, rec.Code, tc.status)
		}
		if store.gotBucket != tc.bucket {
			t.Errorf("agg=%q: bucket = %q, want %q", tc.agg, store.gotBucket, tc.bucket)
		}
		if tc.status == http.StatusOK && strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("agg=%q: body = %s, want []", tc.agg, rec.Body.String())
		}
	}
}

// TestExercisesFilter verifies the muscle_group filter on the catalog listing.
func TestExercisesFilter(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeImporter{}, nil)

	rec := do(s, http.MethodGet, "/api/v1/exercises?muscle_group=calves", "")
	var got []models.Exercise
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("no calves exercises")
	}
	for _, e := range got {
		if e.MuscleGroup != "calves" {
			t.Errorf("%s: muscle group %q", e.ID, e.MuscleGroup)
		}
	}

	rec = do(s, http.MethodGet, "/api/v1/exercises?muscle_group=forearms", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("unknown group body = %s, want []", rec.Body.String())
	}
}

// TestLandmarks verifies the landmark table is served.
func TestLandmarks(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeImporter{}, nil)

	rec := do(s, http.MethodGet, "/api/v1/landmarks", "")
	var got []analytics.Landmark
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(analytics.Landmarks()) {
		t.Errorf("got %d landmarks, want %d", len(got), len(analytics.Landmarks()))
	}
}

// TestMCPEndpoint verifies /mcp is unavailable until an MCP server is mounted.
func TestMCPEndpoint(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeImporter{}, nil)

	rec := do(s, http.MethodPost, "/mcp", `{}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status without MCP = %d, want 503", rec.Code)
	}

	s.SetMCP(liftmcp.New(&fakeStore{}, catalog.Default(), "test", discardLogger()))

	initReq := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(initReq))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("initialize status = %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "LiftLog") {
		t.Errorf("initialize reply lacks server name: %s", rec.Body.String())
	}
}

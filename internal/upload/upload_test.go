package upload

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/liftlog/internal/ingest"
)

const exportCSV = `"Push · Day 1";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;102,5;6;1
`

type fakeSender struct {
	calls int
}

func (f *fakeSender) UploadCSV(_ context.Context, data []byte) (*ingest.Result, error) {
	f.calls++
	return &ingest.Result{WorkoutsReceived: 1, SetsInserted: 2, WarmupsSkipped: 1, Unmatched: []string{"Zottman Curl"}}, nil
}

func setupExports(t *testing.T) (dir string, state *StateDB) {
	t.Helper()
	dir = t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "2026"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"2026/feb.csv": exportCSV,
		"empty.CSV":    "",
		"notes.txt":    "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { state.Close() })
	return dir, state
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRunUploadsOnce verifies new exports are sent and unchanged ones skipped.
func TestRunUploadsOnce(t *testing.T) {
	dir, state := setupExports(t)
	sender := &fakeSender{}

	stats, err := New(sender, state, dir, false, testLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FilesTotal != 2 || stats.FilesUploaded != 1 || stats.FilesSkipped != 1 {
		t.Errorf("first run stats = %+v", stats)
	}
	if stats.SetsSent != 2 || stats.WorkoutsSent != 1 || len(stats.Unmatched) != 1 {
		t.Errorf("first run totals = %+v", stats)
	}

	stats, err = New(sender, state, dir, false, testLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stats.FilesUploaded != 0 || stats.FilesSkipped != 2 {
		t.Errorf("second run stats = %+v", stats)
	}
	if sender.calls != 1 {
		t.Errorf("sender calls = %d, want 1", sender.calls)
	}
}

// TestRunDryRun verifies dry-run counts locally without sending or recording.
func TestRunDryRun(t *testing.T) {
	dir, state := setupExports(t)

	stats, err := New(nil, state, dir, true, testLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.WorkoutsSent != 1 || stats.SetsSent != 2 || stats.WarmupsSkipped != 1 {
		t.Errorf("dry-run stats = %+v", stats)
	}

	uploaded, _ := state.IsUploaded(filepath.Join("2026", "feb.csv"), int64(len(exportCSV)), mustHash(t, filepath.Join(dir, "2026", "feb.csv")))
	if uploaded {
		t.Error("dry-run must not mark files uploaded")
	}
	empty, _ := state.IsUploaded("empty.CSV", 0, mustHash(t, filepath.Join(dir, "empty.CSV")))
	if empty {
		t.Error("dry-run must not record empty exports")
	}
}

// TestRunRecordsEmptyExport verifies an export without sessions is remembered
// so later runs skip it without parsing.
func TestRunRecordsEmptyExport(t *testing.T) {
	dir, state := setupExports(t)

	if _, err := New(&fakeSender{}, state, dir, false, testLogger()).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	empty, err := state.IsUploaded("empty.CSV", 0, mustHash(t, filepath.Join(dir, "empty.CSV")))
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Error("empty export should be recorded after a real run")
	}
}

func mustHash(t *testing.T, path string) string {
	t.Helper()
	h, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

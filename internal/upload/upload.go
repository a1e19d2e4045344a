package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	WorkoutsSent   int
	SetsSent       int64
	WarmupsSkipped int

	// Unmatched lists exercise names the server could not map to its catalog.
	Unmatched []string
}

// Sender delivers one CSV export to the server.
type Sender interface {
	UploadCSV(ctx context.Context, data []byte) (*ingest.Result, error)
}

// Uploader walks a directory of Alpha Progression CSV exports and POSTs
// each new or changed file to the LiftLog server.
type Uploader struct {
	client Sender
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client Sender, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes the upload pipeline. A failed send stops the run; files that
// cannot be read or parsed are counted and skipped.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := alpha.FindExports(u.dir)
	if err != nil {
		return &u.stats, err
	}

	unmatched := map[string]bool{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f, unmatched); err != nil {
			return &u.stats, err
		}
	}

	for name := range unmatched {
		u.stats.Unmatched = append(u.stats.Unmatched, name)
	}
	sort.Strings(u.stats.Unmatched)
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string, unmatched map[string]bool) error {
	relPath, _ := filepath.Rel(u.dir, path)
	info, err := os.Stat(path)
	if err != nil {
		u.log.Warn("stat failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	hash, err := HashFile(path)
	if err != nil {
		u.log.Warn("hash failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
	if err != nil {
		u.log.Warn("state check failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		u.log.Warn("read failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	// Parse locally so malformed exports never reach the server.
	sessions, err := alpha.Parse(bytes.NewReader(data))
	if err != nil {
		u.log.Warn("parse failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	if len(sessions) == 0 {
		u.stats.FilesSkipped++
		if u.dryRun {
			return nil
		}
		if err := u.state.MarkUploaded(UploadRecord{Path: relPath, Size: info.Size(), Hash: hash}); err != nil {
			u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
		}
		return nil
	}

	if u.dryRun {
		sets, warmups := countSets(sessions)
		u.log.Info("dry-run: would send",
			"file", relPath,
			"sessions", len(sessions),
			"sets", sets,
		)
		u.stats.WorkoutsSent += len(sessions)
		u.stats.SetsSent += int64(sets)
		u.stats.WarmupsSkipped += warmups
		return nil
	}

	result, err := u.client.UploadCSV(ctx, data)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", relPath, err)
	}

	u.stats.WorkoutsSent += result.WorkoutsReceived
	u.stats.SetsSent += result.SetsInserted
	u.stats.WarmupsSkipped += result.WarmupsSkipped
	for _, name := range result.Unmatched {
		unmatched[name] = true
	}

	rec := UploadRecord{
		Path:     relPath,
		Size:     info.Size(),
		Hash:     hash,
		Workouts: result.WorkoutsReceived,
		Sets:     result.SetsInserted,
	}
	if err := u.state.MarkUploaded(rec); err != nil {
		u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
	}
	u.stats.FilesUploaded++

	u.log.Info("uploaded export",
		"file", relPath,
		"workouts", result.WorkoutsReceived,
		"sets", result.SetsInserted,
	)
	return nil
}

func countSets(sessions []alpha.Session) (sets, warmups int) {
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			sets += len(ex.Sets)
			warmups += ex.Warmups
		}
	}
	return sets, warmups
}

// Package importer loads Alpha Progression exports straight into the
// database, for backfills run on the server host.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/storage"
)

// logSource tags import_logs rows written by this package.
const logSource = "alpha-cli"

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	WorkoutsInserted int
	WorkoutsReplaced int
	SetsInserted     int64
	WarmupsSkipped   int

	Unmatched []string
}

// Ingester stores one export for a user. *alpha.Provider satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// LogStore records import outcomes.
type LogStore interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
}

// Importer reads CSV exports from a directory and ingests them for one user.
type Importer struct {
	ingester Ingester
	logs     LogStore
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer. In dry-run mode files are only parsed.
func New(ingester Ingester, logs LogStore, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{ingester: ingester, logs: logs, log: log, dryRun: dryRun}
}

// Import processes every export under dir. Files that fail to parse are
// counted and skipped; a store failure stops the run.
func (imp *Importer) Import(ctx context.Context, dir string, userID int) (*Stats, error) {
	files, err := alpha.FindExports(dir)
	if err != nil {
		return &imp.stats, err
	}

	unmatched := map[string]bool{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, f, userID, unmatched); err != nil {
			return &imp.stats, fmt.Errorf("importing %s: %w", f, err)
		}
	}

	for name := range unmatched {
		imp.stats.Unmatched = append(imp.stats.Unmatched, name)
	}
	sort.Strings(imp.stats.Unmatched)
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string, userID int, unmatched map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		imp.log.Warn("read failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	if imp.dryRun {
		sessions, err := alpha.Parse(bytes.NewReader(data))
		if err != nil {
			imp.log.Warn("parse failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		if len(sessions) == 0 {
			imp.stats.FilesSkipped++
			return nil
		}
		imp.stats.FilesProcessed++
		imp.log.Info("would import", "file", path, "sessions", len(sessions))
		return nil
	}

	start := time.Now()
	result, err := imp.ingester.Ingest(ctx, bytes.NewReader(data), userID)
	imp.record(ctx, userID, result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		if errors.Is(err, alpha.ErrInvalidExport) {
			imp.log.Warn("parse failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		return err
	}

	if result.WorkoutsReceived == 0 {
		imp.stats.FilesSkipped++
		return nil
	}
	imp.stats.FilesProcessed++
	imp.stats.WorkoutsInserted += result.WorkoutsInserted
	imp.stats.WorkoutsReplaced += result.WorkoutsReplaced
	imp.stats.SetsInserted += result.SetsInserted
	imp.stats.WarmupsSkipped += result.WarmupsSkipped
	for _, name := range result.Unmatched {
		unmatched[name] = true
	}
	imp.log.Info("imported", "file", path,
		"workouts", result.WorkoutsReceived, "sets", result.SetsInserted)
	return nil
}

// record writes an import_logs row; failures are logged, not returned.
func (imp *Importer) record(ctx context.Context, userID int, result *ingest.Result, importErr error, durationMs int) {
	entry := storage.ImportLog{
		UserID:     userID,
		Source:     logSource,
		Status:     "success",
		DurationMs: &durationMs,
	}
	if result != nil {
		entry.WorkoutsReceived = result.WorkoutsReceived
		entry.WorkoutsInserted = result.WorkoutsInserted + result.WorkoutsReplaced
		entry.SetsReceived = result.SetsReceived
		entry.SetsInserted = result.SetsInserted
		entry.Unmatched = result.Unmatched
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	if _, err := imp.logs.InsertImportLog(ctx, entry); err != nil {
		imp.log.Error("failed to log import", "error", err)
	}
}

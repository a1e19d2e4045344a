package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/liftlog/internal/upload"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net)")
	exportPath := flag.String("path", "", "directory containing Alpha Progression CSV exports")
	apiKey := flag.String("api-key", "", "ingest API key (default $LIFTLOG_API_KEY)")
	dryRun := flag.Bool("dry-run", false, "parse exports but don't send to server")
	history := flag.Bool("history", false, "print recent uploads and exit")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env", "error", err)
	}
	if *apiKey == "" {
		*apiKey = os.Getenv("LIFTLOG_API_KEY")
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".liftlog-upload")

	state, err := upload.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *history {
		printHistory(log, state)
		return
	}

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-upload -server <URL> -path <export dir> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if !*dryRun && (*serverURL == "" || *apiKey == "") {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportPath)
		os.Exit(1)
	}

	// Client stays nil in dry-run mode
	var client upload.Sender
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode: files will be parsed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run upload
	uploader := upload.New(client, state, *exportPath, *dryRun, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Workouts:         %d\n", stats.WorkoutsSent)
	fmt.Printf("  Sets:             %d\n", stats.SetsSent)
	fmt.Printf("  Warmups skipped:  %d\n", stats.WarmupsSkipped)

	if len(stats.Unmatched) > 0 {
		fmt.Printf("\n  Exercises outside the catalog (not counted in volume):\n")
		for _, name := range stats.Unmatched {
			fmt.Printf("    - %s\n", name)
		}
	}
	fmt.Println()
}

func printHistory(log *slog.Logger, state *upload.StateDB) {
	records, err := state.History(20)
	if err != nil {
		log.Error("failed to read upload history", "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No uploads yet.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %-40s  %3d workouts  %5d sets\n",
			r.UploadedAt.Local().Format("2006-01-02 15:04"), r.Path, r.Workouts, r.Sets)
	}
}

// Command liftlog-mcp serves the LiftLog MCP tools over stdio for desktop
// clients, reading training data from a running LiftLog server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/catalog"
	liftmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("LIFTLOG_URL"), "LiftLog server URL (default $LIFTLOG_URL)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-mcp", Version)
		return
	}

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -server <URL>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ds := liftmcp.NewHTTPClient(*serverURL)
	srv := liftmcp.New(ds, catalog.Default(), Version, log)

	log.Info("mcp stdio bridge starting", "server", *serverURL)
	if err := server.ServeStdio(srv); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

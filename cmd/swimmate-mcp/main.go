package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/ggfincke/swimmate/internal/config"
	swimmcp "github.com/ggfincke/swimmate/internal/mcp"
	"github.com/ggfincke/swimmate/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Speaks MCP over stdio. With -url the tools query a remote SwimMate server's
// REST API; otherwise they hit the local database from the config file.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	remoteURL := flag.String("url", "", "base URL of a remote SwimMate server (remote mode)")
	flag.Parse()

	// Logs go to stderr: stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds swimmcp.DataSource

	if *remoteURL != "" {
		ds = swimmcp.NewHTTPClient(*remoteURL)
		log.Info("MCP server starting", "mode", "remote", "url", *remoteURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}

		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		ds = db
		log.Info("MCP server starting", "mode", "local")
	}

	s := swimmcp.New(ds, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

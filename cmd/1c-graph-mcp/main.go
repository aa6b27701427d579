package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KvitunAA/1c-vector-search/internal/config"
	"github.com/KvitunAA/1c-vector-search/internal/graph"
	"github.com/KvitunAA/1c-vector-search/internal/tools"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	profile := flag.String("profile", "", "configuration profile name (default: PROJECT_PROFILE env)")
	flag.Parse()

	if *showVersion {
		fmt.Println("1c-graph-mcp", version)
		os.Exit(0)
	}

	cfg := config.Load(baseDir(), *profile)
	// Stdout carries the protocol; logs must go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
	if cfg.ConfigPath != "" {
		cfg.ApplyOverrides(config.LoadOverrides(cfg.ConfigPath))
	}

	store, err := graph.Open(cfg.GraphDBPath)
	if err != nil {
		log.Fatalf("graph open err=%v", err)
	}

	if stats, statsErr := store.GetStats(); statsErr == nil {
		if stats.NodesCount == 0 {
			slog.Warn("graph.empty", "path", cfg.GraphDBPath)
		} else {
			slog.Info("graph.ready", "nodes", stats.NodesCount, "edges", stats.EdgesCount)
		}
	}

	srv := tools.NewServer(store, cfg, nil)

	runErr := srv.MCPServer().Run(context.Background(), &mcp.StdioTransport{})
	store.Close()
	if runErr != nil {
		log.Fatalf("server err=%v", runErr)
	}
}

func baseDir() string {
	if dir, err := os.Getwd(); err == nil {
		return dir
	}
	return "."
}

package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/KvitunAA/1c-vector-search/internal/config"
	"github.com/KvitunAA/1c-vector-search/internal/graph"
	"github.com/KvitunAA/1c-vector-search/internal/indexer"
	"github.com/KvitunAA/1c-vector-search/internal/scanner"
)

func main() {
	profile := flag.String("profile", "", "configuration profile name (default: PROJECT_PROFILE env)")
	configPath := flag.String("config-path", "", "path to the configuration export (overrides CONFIG_PATH)")
	dbPath := flag.String("db-path", "", "path to the graph database (overrides GRAPHDB_PATH)")
	clear := flag.Bool("clear", true, "wipe the graph before rebuilding")
	flag.Parse()

	cfg := config.Load(baseDir(), *profile)
	if *configPath != "" {
		cfg.ConfigPath = *configPath
	}
	if *dbPath != "" {
		cfg.GraphDBPath = *dbPath
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config err=%v", err)
	}

	store, err := graph.Open(cfg.GraphDBPath)
	if err != nil {
		log.Fatalf("graph open err=%v", err)
	}
	defer store.Close()

	overrides := config.LoadOverrides(cfg.ConfigPath)
	scan := scanner.New(cfg.ConfigPath, overrides.Scanner.IgnoreDirs)

	ix := indexer.New(store, scan)
	ix.ClearFirst = *clear
	res, err := ix.Run()
	if err != nil {
		log.Fatalf("indexing err=%v", err)
	}

	fmt.Printf("indexed %s: %d objects, %d modules, %d methods, %d forms (%d nodes, %d edges)\n",
		cfg.ConfigPath, res.MetadataObjects, res.Modules, res.Methods, res.Forms,
		res.Stats.NodesCount, res.Stats.EdgesCount)
}

func baseDir() string {
	if dir, err := os.Getwd(); err == nil {
		return dir
	}
	return "."
}

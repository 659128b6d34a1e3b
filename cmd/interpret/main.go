package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/mission-script/internal/config"
	"github.com/jwebster45206/mission-script/internal/engine"
	"github.com/jwebster45206/mission-script/internal/export"
	"github.com/jwebster45206/mission-script/internal/logger"
	"github.com/jwebster45206/mission-script/internal/storage"
)

func main() {
	missionFlag := flag.Int64("mission", 0, "interpret a single main mission and print it as JSON")
	allFlag := flag.Bool("all", false, "interpret every mission and store the results in Redis")
	idsFlag := flag.String("ids", "", "comma separated mission ids for -all (default: every mission)")
	forceFlag := flag.Bool("force", false, "with -all, re-interpret missions that are already cached")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)
	log.Info("Starting mission interpreter",
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"lang", cfg.Language)

	eng, err := engine.New(cfg, os.DirFS(cfg.DataDir), log)
	if err != nil {
		log.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}

	switch {
	case *missionFlag != 0:
		m, ok := eng.Assembler.InterpretMission(*missionFlag)
		if !ok {
			log.Error("Mission produced no dialogue", "mission_id", *missionFlag)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(m); err != nil {
			log.Error("Failed to write mission", "error", err)
			os.Exit(1)
		}

	case *allFlag:
		ids, err := parseIDs(*idsFlag)
		if err != nil {
			log.Error("Invalid -ids", "error", err)
			os.Exit(1)
		}
		if cfg.RedisURL == "" {
			log.Error("REDIS_URL is required for -all")
			os.Exit(1)
		}

		store, err := storage.NewRedisStore(cfg.RedisURL, cfg.CacheTTL, log)
		if err != nil {
			log.Error("Failed to create mission store", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing mission store", "error", err)
			}
		}()

		connCtx, connCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer connCancel()
		if err := store.WaitForConnection(connCtx, 5, 2*time.Second); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Redis connection established successfully")

		// Stop between missions on SIGINT/SIGTERM
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := export.NewRunner(eng.Assembler, store, cfg.Language, log)
		runner.Force = *forceFlag
		report, err := runner.Run(ctx, ids)
		if err != nil {
			log.Warn("Export interrupted", "error", err)
		}
		fmt.Printf("run %s: %d assembled, %d cached, %d dropped, %d failed in %s\n",
			report.RunID, len(report.Assembled), len(report.Cached), len(report.Dropped), len(report.Failed),
			report.Duration.Round(time.Millisecond))
		if len(report.Failed) > 0 || err != nil {
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Usage: %s -mission <id> | -all [-ids 1001,1002] [-force]\n", os.Args[0])
		os.Exit(2)
	}
}

func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad mission id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

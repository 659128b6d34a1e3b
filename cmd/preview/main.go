package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jwebster45206/mission-script/internal/config"
	"github.com/jwebster45206/mission-script/internal/engine"
	"github.com/jwebster45206/mission-script/internal/logger"
	"github.com/jwebster45206/mission-script/internal/storage"
	"github.com/jwebster45206/mission-script/pkg/dialogue"
)

func main() {
	width := flag.Int("width", 100, "wrap width in columns")
	cached := flag.Bool("cached", false, "read the mission from the Redis cache instead of interpreting it")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-width 100] [-cached] <main mission id>\n", os.Args[0])
		os.Exit(2)
	}
	missionID, err := strconv.ParseInt(flag.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid mission id %q\n", flag.Arg(0))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	log := logger.Setup(cfg)

	var m *dialogue.MainMission
	if *cached {
		m, err = loadCached(cfg, missionID, log)
		if err != nil {
			log.Error("Failed to read mission from cache", "error", err, "mission_id", missionID)
			os.Exit(1)
		}
		if m == nil {
			log.Error("Mission not cached", "mission_id", missionID, "lang", cfg.Language)
			os.Exit(1)
		}
	} else {
		eng, err := engine.New(cfg, os.DirFS(cfg.DataDir), log)
		if err != nil {
			log.Error("Failed to initialize engine", "error", err)
			os.Exit(1)
		}
		var ok bool
		m, ok = eng.Assembler.InterpretMission(missionID)
		if !ok {
			log.Error("Mission produced no dialogue", "mission_id", missionID)
			os.Exit(1)
		}
	}

	fmt.Print(renderMission(m, *width))
}

func loadCached(cfg *config.Config, missionID int64, log *slog.Logger) (*dialogue.MainMission, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is not set")
	}
	store, err := storage.NewRedisStore(cfg.RedisURL, cfg.CacheTTL, log)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return store.LoadMission(ctx, cfg.Language, missionID)
}

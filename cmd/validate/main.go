package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/jwebster45206/mission-script/internal/config"
	"github.com/jwebster45206/mission-script/internal/engine"
	"github.com/jwebster45206/mission-script/internal/logger"
	"github.com/jwebster45206/mission-script/pkg/mission"
	"github.com/jwebster45206/mission-script/pkg/sentence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	log := logger.Setup(cfg)
	fsys := os.DirFS(cfg.DataDir)

	var ids []int64
	for _, arg := range os.Args[1:] {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Usage: %s [main mission id...]\n", os.Args[0])
			os.Exit(2)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		ids = mission.LoadTables(fsys, cfg.SummaryCategory, log).MissionIDs()
	}

	records, err := sentence.LoadRecords(fsys, log)
	if err != nil {
		log.Warn("Talk sentence table unavailable, skipping sentence checks", "error", err)
		records = nil
	}

	var signal *regexp.Regexp
	if cfg.SentenceSignal != "" {
		if signal, err = regexp.Compile(cfg.SentenceSignal); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid SENTENCE_SIGNAL: %v\n", err)
			os.Exit(2)
		}
	}

	validator := NewScriptValidator(fsys, mission.NewFSLister(fsys, log), records, signal)
	if eng, err := engine.New(cfg, fsys, log); err != nil {
		log.Warn("Text map unavailable, skipping markup checks", "error", err)
	} else {
		validator.WithResolvedText(eng.Sentences)
	}
	files := 0
	for _, id := range ids {
		files += validator.validateMission(id)
	}

	fmt.Printf("Checked %d script files across %d missions\n", files, len(ids))
	if len(validator.warnings) > 0 {
		fmt.Printf("Warnings:\n%s\n", strings.Join(validator.warnings, "\n"))
	}
	if len(validator.errors) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%s\n", strings.Join(validator.errors, "\n"))
		os.Exit(1)
	}

	fmt.Println("All mission scripts are valid!")
}

package engine

import (
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"

	"github.com/jwebster45206/mission-script/internal/config"
	"github.com/jwebster45206/mission-script/pkg/mission"
	"github.com/jwebster45206/mission-script/pkg/script"
	"github.com/jwebster45206/mission-script/pkg/sentence"
	"github.com/jwebster45206/mission-script/pkg/textfilter"
	"github.com/jwebster45206/mission-script/pkg/textmap"
)

// Engine holds the lookup services and interpreters for one language.
// Everything in it is read-only once built.
type Engine struct {
	Language  string
	Texts     *textmap.Service
	Sentences *sentence.Resolver
	Flowchart *script.Flowchart
	Act       *script.Act
	Assembler *mission.Assembler
}

// New loads the text map for cfg.Language from fsys and wires the interpreters.
// Only a missing or unreadable text map is fatal; other tables degrade to empty.
func New(cfg *config.Config, fsys fs.FS, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}

	texts, err := textmap.Load(fsys, cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load text map: %w", err)
	}
	log.Info("Text map loaded", "lang", cfg.Language, "entries", texts.Len())

	svc := textmap.NewService(
		texts,
		textmap.LoadJoinResolver(fsys, log),
		textmap.WithProtagonist(cfg.ProtagonistName),
		textmap.WithCleaner(textfilter.NewCleaner(cfg.ProtagonistName, textfilter.ParseGender(cfg.ProtagonistGender))),
	)
	sentences := sentence.NewResolver(fsys, svc, log)

	opts := []script.FlowchartOption{
		script.WithMaxDepth(cfg.MaxTriggerDepth),
		script.WithMaxElements(cfg.MaxScriptElements),
	}
	if cfg.SentenceSignal != "" {
		re, err := regexp.Compile(cfg.SentenceSignal)
		if err != nil {
			return nil, fmt.Errorf("invalid sentence signal pattern: %w", err)
		}
		opts = append(opts, script.WithSentenceSignal(re))
	}
	if cfg.OptionTree {
		opts = append(opts, script.WithOptionTree())
	}

	flowchart := script.NewFlowchart(fsys, sentences, log, opts...)
	act := script.NewAct(fsys, sentences, log)

	assembler := mission.NewAssembler(
		mission.NewFSLister(fsys, log),
		mission.Interpreters{Flowchart: flowchart, Act: act},
		mission.LoadTables(fsys, cfg.SummaryCategory, log),
		svc,
		log,
	)

	return &Engine{
		Language:  cfg.Language,
		Texts:     svc,
		Sentences: sentences,
		Flowchart: flowchart,
		Act:       act,
		Assembler: assembler,
	}, nil
}

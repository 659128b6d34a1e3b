package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/mission-script/internal/logger"
	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/jwebster45206/mission-script/pkg/storage"
)

// MissionSource assembles missions. *mission.Assembler satisfies it.
type MissionSource interface {
	MissionIDs() []int64
	InterpretMission(missionID int64) (*dialogue.MainMission, bool)
}

// Report summarises one export run.
type Report struct {
	RunID     uuid.UUID
	Assembled []int64
	Cached    []int64
	Dropped   []int64
	Failed    []int64 // assembled but could not be saved
	Duration  time.Duration
}

// Runner interprets missions in order and stores the results.
type Runner struct {
	source MissionSource
	store  storage.Store
	lang   string
	log    *slog.Logger

	// Force re-assembles missions that are already cached.
	Force bool
}

// NewRunner creates a runner writing missions for lang into store.
func NewRunner(source MissionSource, store storage.Store, lang string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		source: source,
		store:  store,
		lang:   lang,
		log:    log,
	}
}

// Run processes ids, or every known mission when ids is empty. It fails
// before doing any work when the store is unreachable, and stops between
// missions when ctx is cancelled, returning the partial report.
func (r *Runner) Run(ctx context.Context, ids []int64) (*Report, error) {
	log, runID := logger.WithRunID(r.log, uuid.Nil)
	start := time.Now()
	report := &Report{RunID: runID}

	if err := r.store.Ping(ctx); err != nil {
		logger.WithError(log, err).Error("Mission store unavailable")
		return report, fmt.Errorf("mission store unavailable: %w", err)
	}

	if len(ids) == 0 {
		ids = r.source.MissionIDs()
	}
	log.Info("Export started", "missions", len(ids), "lang", r.lang, "force", r.Force)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			log.Warn("Export cancelled", "done", len(report.Assembled)+len(report.Cached)+len(report.Dropped))
			return report, fmt.Errorf("export cancelled: %w", err)
		}

		if !r.Force {
			cached, err := r.store.LoadMission(ctx, r.lang, id)
			if err != nil {
				logger.WithError(log, err).Warn("Cache lookup failed", "mission_id", id)
			} else if cached != nil {
				report.Cached = append(report.Cached, id)
				continue
			}
		}

		m, ok := r.source.InterpretMission(id)
		if !ok {
			report.Dropped = append(report.Dropped, id)
			if err := r.store.DeleteMission(ctx, r.lang, id); err != nil {
				logger.WithError(log, err).Warn("Failed to evict dropped mission", "mission_id", id)
			}
			continue
		}

		if err := r.store.SaveMission(ctx, r.lang, m); err != nil {
			logger.WithError(log, err).Error("Failed to save mission", "mission_id", id)
			report.Failed = append(report.Failed, id)
			continue
		}
		report.Assembled = append(report.Assembled, id)
	}

	report.Duration = time.Since(start)
	log.Info("Export finished",
		"assembled", len(report.Assembled),
		"cached", len(report.Cached),
		"dropped", len(report.Dropped),
		"failed", len(report.Failed),
		"duration", report.Duration)
	return report, nil
}

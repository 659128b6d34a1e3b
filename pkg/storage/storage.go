package storage

import (
	"context"
	"strconv"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
)

// Store caches assembled missions per language so batch runs can skip work
// already done. Loads return nil, nil when the mission is not cached.
type Store interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Mission operations
	SaveMission(ctx context.Context, lang string, m *dialogue.MainMission) error
	LoadMission(ctx context.Context, lang string, missionID int64) (*dialogue.MainMission, error)
	DeleteMission(ctx context.Context, lang string, missionID int64) error
	ListMissions(ctx context.Context, lang string) ([]int64, error)
}

// MissionKey returns the cache key of a mission.
func MissionKey(lang string, missionID int64) string {
	return "mission:" + lang + ":" + strconv.FormatInt(missionID, 10)
}

// IndexKey returns the key of the per-language set of cached mission ids.
func IndexKey(lang string) string {
	return "missions:" + lang
}

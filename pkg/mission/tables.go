package mission

import (
	"io/fs"
	"log/slog"
	"sort"

	"github.com/jwebster45206/mission-script/pkg/gamedata"
	"github.com/tidwall/gjson"
)

// DefaultSummaryCategory is the performance summary category attached to sub-missions.
const DefaultSummaryCategory = "Mission"

type missionRow struct {
	nameHash        string
	descriptionHash string
}

type subMissionRow struct {
	targetHash      string
	descriptionHash string
}

// Tables holds the mission metadata, sub-mission UI text and summary hashes.
// It is read-only after loading.
type Tables struct {
	missions    map[int64]missionRow
	subMissions map[int64]subMissionRow
	summaries   map[int64]string
}

// NewTables returns empty tables.
func NewTables() *Tables {
	return &Tables{
		missions:    make(map[int64]missionRow),
		subMissions: make(map[int64]subMissionRow),
		summaries:   make(map[int64]string),
	}
}

// LoadTables reads MainMission, SubMission and PerformanceSummary. A missing
// or unreadable table is logged and left empty. Only summaries of the given
// category are kept.
func LoadTables(fsys fs.FS, summaryCategory string, logger *slog.Logger) *Tables {
	if logger == nil {
		logger = slog.Default()
	}
	if summaryCategory == "" {
		summaryCategory = DefaultSummaryCategory
	}

	t := NewTables()
	t.loadMissions(readTable(fsys, gamedata.MainMissionPath, logger))
	t.loadSubMissions(readTable(fsys, gamedata.SubMissionPath, logger))
	t.loadSummaries(readTable(fsys, gamedata.PerformanceSummaryPath, logger), summaryCategory)

	logger.Debug("Loaded mission tables",
		"missions", len(t.missions),
		"sub_missions", len(t.subMissions),
		"summaries", len(t.summaries))
	return t
}

func readTable(fsys fs.FS, path string, logger *slog.Logger) []gjson.Result {
	rows, err := gamedata.ReadRows(fsys, path)
	if err != nil {
		logger.Warn("Failed to load table", "path", path, "error", err)
		return nil
	}
	return rows
}

func (t *Tables) loadMissions(rows []gjson.Result) {
	for _, row := range rows {
		id, ok := gamedata.ID(row, "MainMissionID")
		if !ok {
			continue
		}
		name, _ := gamedata.Hash(row, "Name")
		desc, _ := gamedata.Hash(row, "Description")
		t.missions[id] = missionRow{nameHash: name, descriptionHash: desc}
	}
}

func (t *Tables) loadSubMissions(rows []gjson.Result) {
	for _, row := range rows {
		id, ok := gamedata.ID(row, "SubMissionID")
		if !ok {
			continue
		}
		target, _ := gamedata.Hash(row, "TargetText")
		desc, ok := gamedata.Hash(row, "DescrptionText")
		if !ok {
			desc, _ = gamedata.Hash(row, "DescriptionText")
		}
		t.subMissions[id] = subMissionRow{targetHash: target, descriptionHash: desc}
	}
}

func (t *Tables) loadSummaries(rows []gjson.Result, category string) {
	for _, row := range rows {
		if row.Get("Category").String() != category {
			continue
		}
		id, ok := gamedata.ID(row, "PerformanceID")
		if !ok {
			continue
		}
		hash, ok := gamedata.Hash(row, "SummaryText")
		if !ok {
			continue
		}
		if _, exists := t.summaries[id]; !exists {
			t.summaries[id] = hash
		}
	}
}

// MissionIDs returns every mission id with metadata, ascending.
func (t *Tables) MissionIDs() []int64 {
	ids := make([]int64, 0, len(t.missions))
	for id := range t.missions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddMission registers mission metadata hashes.
func (t *Tables) AddMission(id int64, nameHash, descriptionHash string) {
	t.missions[id] = missionRow{nameHash: nameHash, descriptionHash: descriptionHash}
}

// AddSubMission registers sub-mission UI text hashes.
func (t *Tables) AddSubMission(id int64, targetHash, descriptionHash string) {
	t.subMissions[id] = subMissionRow{targetHash: targetHash, descriptionHash: descriptionHash}
}

// AddSummary registers a summary text hash for a sub-mission.
func (t *Tables) AddSummary(subID int64, hash string) {
	t.summaries[subID] = hash
}

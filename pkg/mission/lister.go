package mission

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
)

// Candidate is a script file discovered for a mission.
type Candidate struct {
	SubID int64
	Type  dialogue.ScriptType
	Path  string
}

// Lister discovers the sub-mission script files of a mission.
type Lister interface {
	ListCandidates(missionID int64) []Candidate
}

type scanDir struct {
	template string // fmt template taking the mission id
	typ      dialogue.ScriptType
	pattern  *regexp.Regexp
}

// Scanned in this order; the first directory to claim a sub id keeps it.
var scanDirs = []scanDir{
	{"Story/Mission/%d", dialogue.ScriptStory, regexp.MustCompile(`^Story(\d+)\.json$`)},
	{"Story/Discussion/Mission/%d", dialogue.ScriptDiscussion, regexp.MustCompile(`^Discussion(\d+)\.json$`)},
	{"Config/Level/Mission/%d/Act", dialogue.ScriptAct, regexp.MustCompile(`^Act(\d+)\.json$`)},
}

// FSLister scans the fixed mission directories of a game data tree.
type FSLister struct {
	fsys   fs.FS
	logger *slog.Logger
}

var _ Lister = (*FSLister)(nil)

// NewFSLister creates a lister over fsys.
func NewFSLister(fsys fs.FS, logger *slog.Logger) *FSLister {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSLister{fsys: fsys, logger: logger}
}

// ListCandidates returns Story, then Discussion, then Act scripts, each
// directory ordered by sub id, with duplicate sub ids dropped.
func (l *FSLister) ListCandidates(missionID int64) []Candidate {
	var out []Candidate
	seen := make(map[int64]struct{})

	for _, dir := range scanDirs {
		for _, c := range l.scan(dir, missionID) {
			if _, dup := seen[c.SubID]; dup {
				l.logger.Debug("Duplicate sub-mission script ignored", "mission_id", missionID, "sub_id", c.SubID, "path", c.Path)
				continue
			}
			seen[c.SubID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func (l *FSLister) scan(dir scanDir, missionID int64) []Candidate {
	root := fmt.Sprintf(dir.template, missionID)
	entries, err := fs.ReadDir(l.fsys, root)
	if err != nil {
		// Most missions only have some of the directories.
		return nil
	}

	var found []Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := dir.pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		subID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			l.logger.Warn("Script file id out of range", "path", path.Join(root, entry.Name()))
			continue
		}
		found = append(found, Candidate{
			SubID: subID,
			Type:  dir.typ,
			Path:  path.Join(root, entry.Name()),
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].SubID < found[j].SubID
	})
	return found
}

// StaticLister returns a fixed candidate list per mission.
type StaticLister map[int64][]Candidate

// ListCandidates implements Lister.
func (s StaticLister) ListCandidates(missionID int64) []Candidate {
	return s[missionID]
}

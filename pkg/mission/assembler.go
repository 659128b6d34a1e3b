package mission

import (
	"log/slog"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
)

// Interpreter turns one script file into dialogue. *script.Flowchart and
// *script.Act satisfy it.
type Interpreter interface {
	InterpretFile(path string) (*dialogue.ActScript, bool)
}

// Interpreters selects the interpreter for each script type.
type Interpreters struct {
	Flowchart Interpreter // Story and Discussion
	Act       Interpreter
}

func (i Interpreters) forType(t dialogue.ScriptType) Interpreter {
	if t == dialogue.ScriptAct {
		return i.Act
	}
	return i.Flowchart
}

// TextSource resolves text hashes. *textmap.Service satisfies it.
type TextSource interface {
	Text(hash string) (string, bool)
}

// Assembler builds MainMission values from discovered script files and the
// mission tables.
type Assembler struct {
	lister       Lister
	interpreters Interpreters
	tables       *Tables
	texts        TextSource
	logger       *slog.Logger
}

// NewAssembler creates an assembler.
func NewAssembler(lister Lister, interpreters Interpreters, tables *Tables, texts TextSource, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if tables == nil {
		tables = NewTables()
	}
	return &Assembler{
		lister:       lister,
		interpreters: interpreters,
		tables:       tables,
		texts:        texts,
		logger:       logger,
	}
}

// MissionIDs returns every mission id known to the metadata table.
func (a *Assembler) MissionIDs() []int64 {
	return a.tables.MissionIDs()
}

// InterpretMission assembles a mission. ok is false when none of its scripts
// yields any dialogue.
func (a *Assembler) InterpretMission(missionID int64) (*dialogue.MainMission, bool) {
	log := a.logger.With("mission_id", missionID)

	candidates := a.lister.ListCandidates(missionID)
	if len(candidates) == 0 {
		log.Debug("No script files found for mission")
		return nil, false
	}

	m := &dialogue.MainMission{ID: missionID}
	if row, ok := a.tables.missions[missionID]; ok {
		m.Name = a.text(row.nameHash)
		m.Description = a.text(row.descriptionHash)
	} else {
		log.Debug("Mission has no metadata row")
	}

	for _, c := range candidates {
		sub := dialogue.SubMission{
			ID:      c.SubID,
			Type:    c.Type,
			UIInfo:  a.uiInfo(c.SubID),
			Summary: a.summary(c.SubID),
		}

		interpreter := a.interpreters.forType(c.Type)
		if interpreter == nil {
			log.Warn("No interpreter for script type", "type", c.Type, "path", c.Path)
		} else if script, ok := interpreter.InterpretFile(c.Path); ok {
			sub.Script = script
		} else {
			log.Debug("Script produced nothing", "sub_id", c.SubID, "path", c.Path)
		}

		m.Scripts = append(m.Scripts, sub)
	}

	if !m.HasDialogue() {
		log.Info("Dropping mission without dialogue", "scripts", len(m.Scripts))
		return nil, false
	}

	log.Debug("Assembled mission", "scripts", len(m.Scripts), "sentences", m.SentenceCount())
	return m, true
}

func (a *Assembler) uiInfo(subID int64) *dialogue.UIInfo {
	row, ok := a.tables.subMissions[subID]
	if !ok {
		return nil
	}
	info := &dialogue.UIInfo{
		TargetText:      a.text(row.targetHash),
		DescriptionText: a.text(row.descriptionHash),
	}
	if info.TargetText == "" && info.DescriptionText == "" {
		return nil
	}
	return info
}

func (a *Assembler) summary(subID int64) *string {
	hash, ok := a.tables.summaries[subID]
	if !ok {
		return nil
	}
	text := a.text(hash)
	if text == "" {
		return nil
	}
	return &text
}

func (a *Assembler) text(hash string) string {
	if hash == "" {
		return ""
	}
	s, _ := a.texts.Text(hash)
	return s
}

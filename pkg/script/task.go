// Package script interprets mission script files into ordered dialogue.
//
// Two file layouts exist. Flowchart files (Story, Discussion) hold several task
// lists that hand control to each other through named custom-string signals;
// they are flattened with a trigger map. Act files nest talk tasks inside an
// arbitrary tree and are walked depth first.
package script

import (
	"errors"
	"strings"

	"github.com/jwebster45206/mission-script/pkg/gamedata"
	"github.com/tidwall/gjson"
)

const typeField = `\$type`

// ErrInvalidJSON is returned for script files that are not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Task is one step of a task list.
type Task interface {
	isTask()
}

// WaitTrigger blocks until Signal fires.
type WaitTrigger struct {
	Signal string
}

// EmitTrigger fires Signal.
type EmitTrigger struct {
	Signal string
}

// LinearTalk plays sentences back to back.
type LinearTalk struct {
	SentenceIDs []int64
}

// TalkOption is one player choice of an OptionTalk.
type TalkOption struct {
	SentenceID int64
	Signal     string // fired when the option is picked, may be empty
}

// OptionTalk presents player choices.
type OptionTalk struct {
	Options []TalkOption
}

// PlayTimeline plays an external timeline asset that embeds its own sentences.
type PlayTimeline struct {
	AssetPath string
}

// Ignored is any task type that carries no dialogue.
type Ignored struct {
	Type string
}

func (WaitTrigger) isTask()  {}
func (EmitTrigger) isTask()  {}
func (LinearTalk) isTask()   {}
func (OptionTalk) isTask()   {}
func (PlayTimeline) isTask() {}
func (Ignored) isTask()      {}

// TaskList is an ordered run of tasks.
type TaskList []Task

// IsEntry reports whether the list starts with a task other than a wait.
// An empty list has no first task and is never an entry point.
func (l TaskList) IsEntry() bool {
	if len(l) == 0 {
		return false
	}
	_, waits := l[0].(WaitTrigger)
	return !waits
}

// Task type tags, compared against the last dotted segment of $type.
const (
	tagWaitCustomString      = "WaitCustomString"
	tagTriggerCustomString   = "TriggerCustomString"
	tagPlayAndWaitSimpleTalk = "PlayAndWaitSimpleTalk"
	tagPlayMissionTalk       = "PlayMissionTalk"
	tagPlaySimpleTalk        = "PlaySimpleTalk"
	tagPlayOptionTalk        = "PlayOptionTalk"
	tagPlayTimeline          = "PlayTimeline"
)

// TypeTag returns the short type tag of a task record, e.g.
// "RPG.GameCore.PlayOptionTalk" -> "PlayOptionTalk".
func TypeTag(record gjson.Result) string {
	full := record.Get(typeField).String()
	if i := strings.LastIndex(full, "."); i >= 0 {
		return full[i+1:]
	}
	return full
}

func isLinearTalkTag(tag string) bool {
	switch tag {
	case tagPlayAndWaitSimpleTalk, tagPlayMissionTalk, tagPlaySimpleTalk:
		return true
	}
	return false
}

// ParseFile reads the task lists of a flowchart script file.
func ParseFile(data []byte) ([]TaskList, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}

	var lists []TaskList
	gjson.GetBytes(data, "OnStartSequece").ForEach(func(_, seq gjson.Result) bool {
		var list TaskList
		seq.Get("TaskList").ForEach(func(_, record gjson.Result) bool {
			list = append(list, ParseTask(record))
			return true
		})
		lists = append(lists, list)
		return true
	})
	return lists, nil
}

// ParseTask converts one task record into its Task variant. Records missing
// the fields their type needs become Ignored.
func ParseTask(record gjson.Result) Task {
	tag := TypeTag(record)
	switch {
	case tag == tagWaitCustomString:
		if signal := gamedata.String(record.Get("CustomString")); signal != "" {
			return WaitTrigger{Signal: signal}
		}
	case tag == tagTriggerCustomString:
		if signal := gamedata.String(record.Get("CustomString")); signal != "" {
			return EmitTrigger{Signal: signal}
		}
	case isLinearTalkTag(tag):
		return LinearTalk{SentenceIDs: talkSentenceIDs(record.Get("SimpleTalkList"))}
	case tag == tagPlayOptionTalk:
		return OptionTalk{Options: talkOptions(record.Get("OptionList"))}
	case tag == tagPlayTimeline:
		for _, field := range []string{"TimelineName", "TimelinePath"} {
			if p := gamedata.String(record.Get(field)); p != "" {
				return PlayTimeline{AssetPath: p}
			}
		}
	}
	return Ignored{Type: tag}
}

func talkSentenceIDs(list gjson.Result) []int64 {
	var ids []int64
	list.ForEach(func(_, entry gjson.Result) bool {
		if entry.IsObject() {
			if id, ok := gamedata.ID(entry, "TalkSentenceID"); ok {
				ids = append(ids, id)
			}
		} else if entry.Type == gjson.Number {
			ids = append(ids, entry.Int())
		}
		return true
	})
	return ids
}

func talkOptions(list gjson.Result) []TalkOption {
	var opts []TalkOption
	list.ForEach(func(_, entry gjson.Result) bool {
		id, ok := gamedata.ID(entry, "TalkSentenceID")
		if !ok {
			return true
		}
		opts = append(opts, TalkOption{
			SentenceID: id,
			Signal:     gamedata.String(entry.Get("TriggerCustomString")),
		})
		return true
	})
	return opts
}

// walk visits every object under v depth first, parents before children.
func walk(v gjson.Result, fn func(obj gjson.Result)) {
	switch {
	case v.IsObject():
		fn(v)
		v.ForEach(func(_, child gjson.Result) bool {
			walk(child, fn)
			return true
		})
	case v.IsArray():
		v.ForEach(func(_, child gjson.Result) bool {
			walk(child, fn)
			return true
		})
	}
}

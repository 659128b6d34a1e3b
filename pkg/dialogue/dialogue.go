package dialogue

import (
	"encoding/json"
	"fmt"
)

// ScriptType identifies which directory a sub-mission script was discovered in.
type ScriptType string

const (
	ScriptStory      ScriptType = "Story"
	ScriptDiscussion ScriptType = "Discussion"
	ScriptAct        ScriptType = "Act"
)

// Element is one entry of a dialogue block: a Sentence or an OptionGroup.
type Element interface {
	isElement()
}

// Sentence is a single resolved line of dialogue.
type Sentence struct {
	ID      int64  `json:"id"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Option  bool   `json:"option,omitempty"` // spoken by the player as a choice
}

// Choice is one option of an OptionGroup together with the dialogue it leads to.
type Choice struct {
	Option   Sentence `json:"option"`
	FollowUp Block    `json:"follow_up,omitempty"`
}

// OptionGroup is a set of player choices.
type OptionGroup struct {
	Choices []Choice `json:"choices"`
}

func (Sentence) isElement()    {}
func (OptionGroup) isElement() {}

// Block is an ordered run of dialogue elements.
type Block []Element

const (
	kindSentence = "sentence"
	kindOptions  = "options"
)

type elementEnvelope struct {
	Kind     string       `json:"kind"`
	Sentence *Sentence    `json:"sentence,omitempty"`
	Options  *OptionGroup `json:"options,omitempty"`
}

// MarshalJSON writes each element with a kind discriminator.
func (b Block) MarshalJSON() ([]byte, error) {
	out := make([]elementEnvelope, 0, len(b))
	for _, el := range b {
		switch v := el.(type) {
		case Sentence:
			s := v
			out = append(out, elementEnvelope{Kind: kindSentence, Sentence: &s})
		case OptionGroup:
			g := v
			out = append(out, elementEnvelope{Kind: kindOptions, Options: &g})
		default:
			return nil, fmt.Errorf("unknown dialogue element %T", el)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw []elementEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	block := make(Block, 0, len(raw))
	for i, env := range raw {
		switch {
		case env.Kind == kindSentence && env.Sentence != nil:
			block = append(block, *env.Sentence)
		case env.Kind == kindOptions && env.Options != nil:
			block = append(block, *env.Options)
		default:
			return fmt.Errorf("dialogue element %d: invalid kind %q", i, env.Kind)
		}
	}
	*b = block
	return nil
}

// ActScript is the dialogue recovered from one script file.
type ActScript struct {
	Blocks []Block `json:"blocks"`
}

// HasDialogue reports whether any block holds at least one element.
func (a *ActScript) HasDialogue() bool {
	if a == nil {
		return false
	}
	for _, b := range a.Blocks {
		if len(b) > 0 {
			return true
		}
	}
	return false
}

// UIInfo is the quest-log text shown for a sub-mission.
type UIInfo struct {
	TargetText      string `json:"target_text"`
	DescriptionText string `json:"description_text"`
}

// SubMission is one interpreted script file of a mission.
type SubMission struct {
	ID      int64      `json:"id"`
	Type    ScriptType `json:"type"`
	Script  *ActScript `json:"script"`
	UIInfo  *UIInfo    `json:"ui_info"`
	Summary *string    `json:"summary"`
}

// MainMission is a fully assembled mission.
type MainMission struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Scripts     []SubMission `json:"scripts"`
}

// HasDialogue reports whether any sub-mission script carries dialogue.
func (m *MainMission) HasDialogue() bool {
	if m == nil {
		return false
	}
	for _, s := range m.Scripts {
		if s.Script.HasDialogue() {
			return true
		}
	}
	return false
}

// SentenceCount returns the number of sentences in the mission, counting option lines and follow-ups.
func (m *MainMission) SentenceCount() int {
	n := 0
	for _, s := range m.Scripts {
		if s.Script == nil {
			continue
		}
		for _, b := range s.Script.Blocks {
			n += countSentences(b)
		}
	}
	return n
}

func countSentences(b Block) int {
	n := 0
	for _, el := range b {
		switch v := el.(type) {
		case Sentence:
			n++
		case OptionGroup:
			for _, c := range v.Choices {
				n += 1 + countSentences(c.FollowUp)
			}
		}
	}
	return n
}

package main

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/jwebster45206/mission-script/pkg/gamedata"
	"github.com/jwebster45206/mission-script/pkg/mission"
	"github.com/jwebster45206/mission-script/pkg/script"
	"github.com/jwebster45206/mission-script/pkg/sentence"
	"github.com/jwebster45206/mission-script/pkg/textfilter"
	"github.com/tidwall/gjson"
)

// SentenceSource resolves sentences to display text. *sentence.Resolver satisfies it.
type SentenceSource interface {
	Resolve(id int64) (dialogue.Sentence, bool)
}

// ScriptValidator checks mission script files for problems the interpreters
// silently skip over.
type ScriptValidator struct {
	fsys           fs.FS
	lister         mission.Lister
	sentences      map[int64]sentence.Record // nil disables the unknown sentence check
	sentenceSignal *regexp.Regexp

	// Optional. When set, resolved sentences are checked for markup the
	// cleaner left behind.
	resolved      SentenceSource
	markupChecked map[int64]struct{}

	errors   []string
	warnings []string
}

func NewScriptValidator(fsys fs.FS, lister mission.Lister, sentences map[int64]sentence.Record, sentenceSignal *regexp.Regexp) *ScriptValidator {
	if sentenceSignal == nil {
		sentenceSignal = script.DefaultSentenceSignal
	}
	return &ScriptValidator{
		fsys:           fsys,
		lister:         lister,
		sentences:      sentences,
		sentenceSignal: sentenceSignal,
		markupChecked:  make(map[int64]struct{}),
	}
}

// WithResolvedText enables the leftover markup check.
func (v *ScriptValidator) WithResolvedText(src SentenceSource) *ScriptValidator {
	v.resolved = src
	return v
}

// validateMission checks every script discovered for missionID and returns
// the number of files looked at.
func (v *ScriptValidator) validateMission(missionID int64) int {
	candidates := v.lister.ListCandidates(missionID)
	for _, c := range candidates {
		v.validateFile(c)
	}
	return len(candidates)
}

func (v *ScriptValidator) validateFile(c mission.Candidate) {
	data, err := fs.ReadFile(v.fsys, c.Path)
	if err != nil {
		v.addError(c.Path, fmt.Sprintf("unreadable: %v", err))
		return
	}

	if c.Type == dialogue.ScriptAct {
		v.validateAct(c.Path, data)
		return
	}

	lists, err := script.ParseFile(data)
	if err != nil {
		v.addError(c.Path, err.Error())
		return
	}
	v.validateFlowchart(c.Path, lists)
}

func (v *ScriptValidator) validateFlowchart(path string, lists []script.TaskList) {
	awaited := make(map[string]int)
	emitted := make(map[string]bool)
	entries := 0

	for _, list := range lists {
		if list.IsEntry() {
			entries++
		}
		for _, task := range list {
			switch t := task.(type) {
			case script.WaitTrigger:
				awaited[t.Signal]++
			case script.EmitTrigger:
				emitted[t.Signal] = true
			case script.OptionTalk:
				for _, opt := range t.Options {
					v.checkSentence(path, opt.SentenceID)
					if opt.Signal != "" {
						emitted[opt.Signal] = true
					}
				}
			case script.LinearTalk:
				for _, id := range t.SentenceIDs {
					v.checkSentence(path, id)
				}
			}
		}
	}

	if entries == 0 {
		v.addError(path, "no entry task list: every list waits on a signal")
	}

	for _, signal := range sortedKeys(awaited) {
		if awaited[signal] > 1 {
			v.addWarning(path, fmt.Sprintf("signal %q awaited %d times, only the first continuation is used", signal, awaited[signal]))
		}
		if !emitted[signal] {
			v.addWarning(path, fmt.Sprintf("signal %q is awaited but never emitted", signal))
		}
	}
	for _, signal := range sortedKeys(emitted) {
		if awaited[signal] == 0 && !v.sentenceSignal.MatchString(signal) {
			v.addWarning(path, fmt.Sprintf("signal %q is emitted but never awaited", signal))
		}
	}
}

func (v *ScriptValidator) validateAct(path string, data []byte) {
	if !gjson.ValidBytes(data) {
		v.addError(path, script.ErrInvalidJSON.Error())
		return
	}
	collectIDs(gjson.ParseBytes(data), func(id int64) {
		v.checkSentence(path, id)
	})
}

func (v *ScriptValidator) checkSentence(path string, id int64) {
	if v.sentences == nil {
		return
	}
	if _, ok := v.sentences[id]; !ok {
		v.addError(path, fmt.Sprintf("sentence %d is not in the talk sentence table", id))
		return
	}
	v.checkMarkup(path, id)
}

// checkMarkup warns once per sentence whose cleaned speaker or text still
// carries tags or tokens.
func (v *ScriptValidator) checkMarkup(path string, id int64) {
	if v.resolved == nil {
		return
	}
	if _, done := v.markupChecked[id]; done {
		return
	}
	v.markupChecked[id] = struct{}{}

	s, ok := v.resolved.Resolve(id)
	if !ok {
		return
	}
	if textfilter.ContainsMarkup(s.Text) || textfilter.ContainsMarkup(s.Speaker) {
		v.addWarning(path, fmt.Sprintf("sentence %d still has markup after clean-up: %q", id, s.Text))
	}
}

func (v *ScriptValidator) addError(path, msg string) {
	v.errors = append(v.errors, fmt.Sprintf("  - %s: %s", path, msg))
}

func (v *ScriptValidator) addWarning(path, msg string) {
	v.warnings = append(v.warnings, fmt.Sprintf("  - %s: %s", path, msg))
}

// collectIDs calls fn for every TalkSentenceID under v, in document order.
func collectIDs(v gjson.Result, fn func(int64)) {
	if v.IsObject() {
		if id, ok := gamedata.ID(v, "TalkSentenceID"); ok {
			fn(id)
		}
	}
	if v.IsObject() || v.IsArray() {
		v.ForEach(func(_, child gjson.Result) bool {
			collectIDs(child, fn)
			return true
		})
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

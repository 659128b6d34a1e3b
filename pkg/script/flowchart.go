package script

import (
	"io/fs"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/jwebster45206/mission-script/pkg/gamedata"
	"github.com/tidwall/gjson"
)

// DefaultMaxDepth bounds how many trigger continuations may nest inside one another.
const DefaultMaxDepth = 64

// DefaultMaxElements bounds the work done for one file: every emitted element
// and every continuation expansion spends one unit.
const DefaultMaxElements = 20000

// DefaultSentenceSignal matches custom-string signals that are really sentence ids.
var DefaultSentenceSignal = regexp.MustCompile(`^\d{8,}$`)

// SentenceSource resolves sentence ids. *sentence.Resolver satisfies it.
type SentenceSource interface {
	Resolve(id int64) (dialogue.Sentence, bool)
	ResolveAsPlayer(id int64) (dialogue.Sentence, bool)
}

// TriggerMap maps a signal to the tasks that follow the first wait on it.
type TriggerMap map[string]TaskList

// BuildTriggerMap scans every list for WaitTrigger tasks. The first wait seen
// for a signal wins; later ones are ignored.
func BuildTriggerMap(lists []TaskList) TriggerMap {
	triggers := make(TriggerMap)
	for _, list := range lists {
		for i, task := range list {
			wait, ok := task.(WaitTrigger)
			if !ok {
				continue
			}
			if _, exists := triggers[wait.Signal]; exists {
				continue
			}
			triggers[wait.Signal] = list[i+1:]
		}
	}
	return triggers
}

// Flowchart interprets Story and Discussion script files.
type Flowchart struct {
	fsys           fs.FS
	sentences      SentenceSource
	logger         *slog.Logger
	sentenceSignal *regexp.Regexp
	optionTree     bool
	maxDepth       int
	maxElements    int
}

// FlowchartOption configures a Flowchart.
type FlowchartOption func(*Flowchart)

// WithSentenceSignal replaces the pattern recognising sentence-id signals. When
// the pattern has a capture group, group 1 holds the id.
func WithSentenceSignal(re *regexp.Regexp) FlowchartOption {
	return func(f *Flowchart) {
		if re != nil {
			f.sentenceSignal = re
		}
	}
}

// WithOptionTree makes option talks produce OptionGroups whose choices carry
// their continuations, instead of merging every continuation inline.
func WithOptionTree() FlowchartOption {
	return func(f *Flowchart) {
		f.optionTree = true
	}
}

// WithMaxDepth bounds continuation nesting.
func WithMaxDepth(depth int) FlowchartOption {
	return func(f *Flowchart) {
		if depth > 0 {
			f.maxDepth = depth
		}
	}
}

// WithMaxElements bounds the dialogue produced for one file. Output past the
// limit is dropped and the truncation logged.
func WithMaxElements(n int) FlowchartOption {
	return func(f *Flowchart) {
		if n > 0 {
			f.maxElements = n
		}
	}
}

// NewFlowchart creates a flowchart interpreter reading files from fsys.
func NewFlowchart(fsys fs.FS, sentences SentenceSource, logger *slog.Logger, opts ...FlowchartOption) *Flowchart {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Flowchart{
		fsys:           fsys,
		sentences:      sentences,
		logger:         logger,
		sentenceSignal: DefaultSentenceSignal,
		maxDepth:       DefaultMaxDepth,
		maxElements:    DefaultMaxElements,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InterpretFile flattens a flowchart script into a single dialogue block.
// ok is false when the file cannot be read, has no entry point, or yields no dialogue.
func (f *Flowchart) InterpretFile(path string) (*dialogue.ActScript, bool) {
	data, err := fs.ReadFile(f.fsys, path)
	if err != nil {
		f.logger.Warn("Failed to read script file", "path", path, "error", err)
		return nil, false
	}
	lists, err := ParseFile(data)
	if err != nil {
		f.logger.Warn("Failed to parse script file", "path", path, "error", err)
		return nil, false
	}
	return f.Interpret(path, lists)
}

// Interpret flattens already parsed task lists. path is only used for logging.
func (f *Flowchart) Interpret(path string, lists []TaskList) (*dialogue.ActScript, bool) {
	run := &flattenRun{
		f:        f,
		triggers: BuildTriggerMap(lists),
		active:   make(map[string]struct{}),
		budget:   f.maxElements,
	}

	var block dialogue.Block
	entries := 0
	for _, list := range lists {
		if !list.IsEntry() {
			continue
		}
		entries++
		block = append(block, run.flatten(list, 0)...)
	}

	if entries == 0 {
		f.logger.Debug("Script has no entry point", "path", path, "task_lists", len(lists))
		return nil, false
	}
	if run.truncated {
		f.logger.Warn("Script output truncated", "path", path, "max_elements", f.maxElements)
	}
	if len(block) == 0 {
		f.logger.Debug("Script produced no dialogue", "path", path)
		return nil, false
	}
	return &dialogue.ActScript{Blocks: []dialogue.Block{block}}, true
}

// flattenRun is the state of one Interpret call. active holds the signals
// whose continuations are being flattened further up the call chain; budget
// is what remains of maxElements.
type flattenRun struct {
	f         *Flowchart
	triggers  TriggerMap
	active    map[string]struct{}
	budget    int
	truncated bool
}

// spend takes one unit from the budget, reporting false once it is exhausted.
func (r *flattenRun) spend() bool {
	if r.budget <= 0 {
		r.truncated = true
		return false
	}
	r.budget--
	return true
}

// flatten turns a task list into dialogue, following option triggers into
// their continuations.
func (r *flattenRun) flatten(tasks TaskList, depth int) dialogue.Block {
	var out dialogue.Block
	for _, task := range tasks {
		if r.truncated {
			break
		}
		switch t := task.(type) {
		case WaitTrigger:
			out = r.appendSignalSentence(out, t.Signal)
		case EmitTrigger:
			out = r.appendSignalSentence(out, t.Signal)
		case LinearTalk:
			out = r.appendSentences(out, t.SentenceIDs)
		case PlayTimeline:
			out = r.appendSentences(out, r.f.timelineSentenceIDs(t.AssetPath))
		case OptionTalk:
			if r.f.optionTree {
				out = r.appendOptionGroup(out, t, depth)
			} else {
				out = r.appendOptionsLinear(out, t, depth)
			}
		case Ignored:
		}
	}
	return out
}

func (r *flattenRun) appendOptionsLinear(out dialogue.Block, t OptionTalk, depth int) dialogue.Block {
	for _, opt := range t.Options {
		if s, ok := r.f.sentences.ResolveAsPlayer(opt.SentenceID); ok && r.spend() {
			out = append(out, s)
		}
		out = append(out, r.followSignal(opt.Signal, depth)...)
	}
	return out
}

func (r *flattenRun) appendOptionGroup(out dialogue.Block, t OptionTalk, depth int) dialogue.Block {
	var group dialogue.OptionGroup
	for _, opt := range t.Options {
		s, ok := r.f.sentences.ResolveAsPlayer(opt.SentenceID)
		if !ok || !r.spend() {
			continue
		}
		group.Choices = append(group.Choices, dialogue.Choice{
			Option:   s,
			FollowUp: r.followSignal(opt.Signal, depth),
		})
	}
	if len(group.Choices) == 0 {
		return out
	}
	return append(out, group)
}

// followSignal returns the dialogue reached by firing signal: the sentence it
// encodes, if any, followed by its flattened continuation.
func (r *flattenRun) followSignal(signal string, depth int) dialogue.Block {
	if signal == "" {
		return nil
	}
	out := r.appendSignalSentence(nil, signal)

	next, ok := r.triggers[signal]
	if !ok {
		return out
	}
	if _, looping := r.active[signal]; looping {
		r.f.logger.Debug("Skipping re-entrant trigger", "signal", signal)
		return out
	}
	if depth >= r.f.maxDepth {
		r.f.logger.Warn("Trigger chain too deep", "signal", signal, "max_depth", r.f.maxDepth)
		return out
	}
	if !r.spend() {
		return out
	}

	r.active[signal] = struct{}{}
	out = append(out, r.flatten(next, depth+1)...)
	delete(r.active, signal)
	return out
}

func (r *flattenRun) appendSignalSentence(out dialogue.Block, signal string) dialogue.Block {
	id, ok := r.f.signalSentenceID(signal)
	if !ok {
		return out
	}
	if s, ok := r.f.sentences.Resolve(id); ok && r.spend() {
		out = append(out, s)
	}
	return out
}

func (r *flattenRun) appendSentences(out dialogue.Block, ids []int64) dialogue.Block {
	for _, id := range ids {
		if s, ok := r.f.sentences.Resolve(id); ok {
			if !r.spend() {
				break
			}
			out = append(out, s)
		}
	}
	return out
}

func (f *Flowchart) signalSentenceID(signal string) (int64, bool) {
	m := f.sentenceSignal.FindStringSubmatch(signal)
	if m == nil {
		return 0, false
	}
	raw := m[0]
	if len(m) > 1 {
		raw = m[1]
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// timelineSentenceIDs loads a timeline asset and collects every TalkSentenceID
// in document order.
func (f *Flowchart) timelineSentenceIDs(path string) []int64 {
	data, err := gamedata.ReadJSON(f.fsys, path)
	if err != nil {
		f.logger.Warn("Failed to load timeline asset", "path", path, "error", err)
		return nil
	}

	var ids []int64
	walk(gjson.ParseBytes(data), func(obj gjson.Result) {
		if id, ok := gamedata.ID(obj, "TalkSentenceID"); ok {
			ids = append(ids, id)
		}
	})
	return ids
}

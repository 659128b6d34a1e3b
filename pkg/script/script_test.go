package script

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const player = "开拓者"

// stubSentences resolves every id in the map to "line <id>" spoken by the mapped speaker.
type stubSentences map[int64]string

func (s stubSentences) Resolve(id int64) (dialogue.Sentence, bool) {
	speaker, ok := s[id]
	if !ok {
		return dialogue.Sentence{}, false
	}
	return dialogue.Sentence{ID: id, Speaker: speaker, Text: fmt.Sprintf("line %d", id)}, true
}

func (s stubSentences) ResolveAsPlayer(id int64) (dialogue.Sentence, bool) {
	sentence, ok := s.Resolve(id)
	if !ok {
		return sentence, false
	}
	sentence.Speaker = player
	sentence.Option = true
	return sentence, true
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sentenceIDs(t *testing.T, block dialogue.Block) []int64 {
	t.Helper()
	var ids []int64
	for _, el := range block {
		s, ok := el.(dialogue.Sentence)
		require.True(t, ok, "expected only sentences, got %T", el)
		ids = append(ids, s.ID)
	}
	return ids
}

func interpret(t *testing.T, script string, sentences stubSentences, opts ...FlowchartOption) (*dialogue.ActScript, bool) {
	t.Helper()
	fsys := fstest.MapFS{"Story/Mission/1/Story100.json": {Data: []byte(script)}}
	return NewFlowchart(fsys, sentences, quietLogger(), opts...).InterpretFile("Story/Mission/1/Story100.json")
}

func TestFlowchart_MergesOptionContinuation(t *testing.T) {
	script := `{"OnStartSequece": [
		{"TaskList": [
			{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 501}]},
			{"$type": "RPG.GameCore.PlayOptionTalk", "OptionList": [{"TalkSentenceID": 502, "TriggerCustomString": "go"}]}
		]},
		{"TaskList": [
			{"$type": "RPG.GameCore.WaitCustomString", "CustomString": {"Value": "go"}},
			{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 503}]}
		]}
	]}`
	sentences := stubSentences{501: "姬子", 502: "", 503: "丹恒"}

	act, ok := interpret(t, script, sentences)
	require.True(t, ok)
	require.Len(t, act.Blocks, 1)
	block := act.Blocks[0]
	require.Len(t, block, 3)

	assert.Equal(t, dialogue.Sentence{ID: 501, Speaker: "姬子", Text: "line 501"}, block[0])
	assert.Equal(t, dialogue.Sentence{ID: 502, Speaker: player, Text: "line 502", Option: true}, block[1])
	assert.Equal(t, dialogue.Sentence{ID: 503, Speaker: "丹恒", Text: "line 503"}, block[2])
}

func TestFlowchart_OnlyEntryListsAreFlattened(t *testing.T) {
	script := `{"OnStartSequece": [
		{"TaskList": [
			{"$type": "RPG.GameCore.WaitCustomString", "CustomString": {"Value": "x"}},
			{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 2}]}
		]},
		{"TaskList": [
			{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 1}]}
		]}
	]}`
	sentences := stubSentences{1: "a", 2: "b"}

	act, ok := interpret(t, script, sentences)
	require.True(t, ok)
	assert.Equal(t, []int64{1}, sentenceIDs(t, act.Blocks[0]), "x's continuation is unreachable without an option")
}

func TestFlowchart_NoEntryPoint(t *testing.T) {
	script := `{"OnStartSequece": [
		{"TaskList": [
			{"$type": "RPG.GameCore.WaitCustomString", "CustomString": {"Value": "x"}},
			{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 1}]}
		]}
	]}`

	act, ok := interpret(t, script, stubSentences{1: "a"})
	assert.False(t, ok)
	assert.Nil(t, act)
}

func TestFlowchart_NoDialogue(t *testing.T) {
	script := `{"OnStartSequece": [
		{"TaskList": [
			{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 9}]},
			{"$type": "RPG.GameCore.ShowReward"}
		]}
	]}`

	_, ok := interpret(t, script, stubSentences{1: "a"})
	assert.False(t, ok, "unresolvable sentences are dropped, leaving nothing")
}

func TestFlowchart_UnreadableFiles(t *testing.T) {
	fsys := fstest.MapFS{"bad.json": {Data: []byte(`{"OnStartSequece": [`)}}
	f := NewFlowchart(fsys, stubSentences{}, quietLogger())

	_, ok := f.InterpretFile("bad.json")
	assert.False(t, ok)
	_, ok = f.InterpretFile("missing.json")
	assert.False(t, ok)
}

func TestFlowchart_FirstWaitWins(t *testing.T) {
	lists := []TaskList{
		{OptionTalk{Options: []TalkOption{{SentenceID: 1, Signal: "s"}}}},
		{WaitTrigger{Signal: "s"}, LinearTalk{SentenceIDs: []int64{2}}},
		{WaitTrigger{Signal: "s"}, LinearTalk{SentenceIDs: []int64{3}}},
	}

	triggers := BuildTriggerMap(lists)
	require.Contains(t, triggers, "s")
	assert.Equal(t, TaskList{LinearTalk{SentenceIDs: []int64{2}}}, triggers["s"])

	f := NewFlowchart(fstest.MapFS{}, stubSentences{1: "", 2: "", 3: ""}, quietLogger())
	act, ok := f.Interpret("inline", lists)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, sentenceIDs(t, act.Blocks[0]))
}

func TestFlowchart_WaitInsideListMapsTail(t *testing.T) {
	lists := []TaskList{
		{LinearTalk{SentenceIDs: []int64{1}}, WaitTrigger{Signal: "mid"}, LinearTalk{SentenceIDs: []int64{2}}},
		{OptionTalk{Options: []TalkOption{{SentenceID: 3, Signal: "mid"}}}},
	}

	triggers := BuildTriggerMap(lists)
	assert.Equal(t, TaskList{LinearTalk{SentenceIDs: []int64{2}}}, triggers["mid"])

	f := NewFlowchart(fstest.MapFS{}, stubSentences{1: "", 2: "", 3: ""}, quietLogger())
	act, ok := f.Interpret("inline", lists)
	require.True(t, ok)
	// The first list plays straight through its own wait; the option then merges the tail again.
	assert.Equal(t, []int64{1, 2, 3, 2}, sentenceIDs(t, act.Blocks[0]))
}

func TestFlowchart_SentenceSignals(t *testing.T) {
	script := `{"OnStartSequece": [
		{"TaskList": [
			{"$type": "RPG.GameCore.TriggerCustomString", "CustomString": {"Value": "100010101"}},
			{"$type": "RPG.GameCore.TriggerCustomString", "CustomString": {"Value": "start_cutscene"}},
			{"$type": "RPG.GameCore.PlayOptionTalk", "OptionList": [
				{"TalkSentenceID": 100010102, "TriggerCustomString": "100010103"}
			]}
		]}
	]}`
	sentences := stubSentences{100010101: "三月七", 100010102: "", 100010103: "三月七"}

	act, ok := interpret(t, script, sentences)
	require.True(t, ok)
	assert.Equal(t, []int64{100010101, 100010102, 100010103}, sentenceIDs(t, act.Blocks[0]))
}

func TestFlowchart_CustomSentenceSignalPattern(t *testing.T) {
	script := `{"OnStartSequece": [
		{"TaskList": [
			{"$type": "RPG.GameCore.TriggerCustomString", "CustomString": "Talk_7"}
		]}
	]}`

	act, ok := interpret(t, script, stubSentences{7: "a"}, WithSentenceSignal(regexp.MustCompile(`^Talk_(\d+)$`)))
	require.True(t, ok)
	assert.Equal(t, []int64{7}, sentenceIDs(t, act.Blocks[0]))
}

func TestFlowchart_TriggerLoopTerminates(t *testing.T) {
	lists := []TaskList{
		{OptionTalk{Options: []TalkOption{{SentenceID: 1, Signal: "loop"}}}},
		{WaitTrigger{Signal: "loop"}, OptionTalk{Options: []TalkOption{{SentenceID: 2, Signal: "loop"}}}},
	}

	f := NewFlowchart(fstest.MapFS{}, stubSentences{1: "", 2: ""}, quietLogger())
	act, ok := f.Interpret("inline", lists)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, sentenceIDs(t, act.Blocks[0]))
}

func TestFlowchart_MaxDepth(t *testing.T) {
	lists := []TaskList{
		{OptionTalk{Options: []TalkOption{{SentenceID: 1, Signal: "a"}}}},
		{WaitTrigger{Signal: "a"}, OptionTalk{Options: []TalkOption{{SentenceID: 2, Signal: "b"}}}},
		{WaitTrigger{Signal: "b"}, OptionTalk{Options: []TalkOption{{SentenceID: 3, Signal: "c"}}}},
		{WaitTrigger{Signal: "c"}, LinearTalk{SentenceIDs: []int64{4}}},
	}
	sentences := stubSentences{1: "", 2: "", 3: "", 4: ""}

	f := NewFlowchart(fstest.MapFS{}, sentences, quietLogger(), WithMaxDepth(2))
	act, ok := f.Interpret("inline", lists)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, sentenceIDs(t, act.Blocks[0]))
}

func TestFlowchart_PlayTimeline(t *testing.T) {
	fsys := fstest.MapFS{
		"Story/Mission/1/Story100.json": {Data: []byte(`{"OnStartSequece": [
			{"TaskList": [
				{"$type": "RPG.GameCore.PlayTimeline", "TimelineName": "Timeline/Intro.json"},
				{"$type": "RPG.GameCore.PlayTimeline", "TimelineName": {"Value": "Timeline/Missing.json"}}
			]}
		]}`)},
		"Timeline/Intro.json": {Data: []byte(`{
			"Tracks": [
				{"Clips": [{"TalkSentenceID": 11}, {"TalkSentenceID": 12}]},
				{"Clips": [{"Nested": {"TalkSentenceID": 13}}]}
			]
		}`)},
	}

	f := NewFlowchart(fsys, stubSentences{11: "", 12: "", 13: ""}, quietLogger())
	act, ok := f.InterpretFile("Story/Mission/1/Story100.json")
	require.True(t, ok)
	assert.Equal(t, []int64{11, 12, 13}, sentenceIDs(t, act.Blocks[0]))
}

func TestFlowchart_OptionTree(t *testing.T) {
	lists := []TaskList{
		{
			LinearTalk{SentenceIDs: []int64{1}},
			OptionTalk{Options: []TalkOption{
				{SentenceID: 2, Signal: "left"},
				{SentenceID: 3, Signal: "right"},
				{SentenceID: 99, Signal: "right"},
			}},
		},
		{WaitTrigger{Signal: "left"}, LinearTalk{SentenceIDs: []int64{4}}},
		{WaitTrigger{Signal: "right"}, LinearTalk{SentenceIDs: []int64{5}}},
	}
	sentences := stubSentences{1: "", 2: "", 3: "", 4: "", 5: ""}

	f := NewFlowchart(fstest.MapFS{}, sentences, quietLogger(), WithOptionTree())
	act, ok := f.Interpret("inline", lists)
	require.True(t, ok)

	block := act.Blocks[0]
	require.Len(t, block, 2)
	group, ok := block[1].(dialogue.OptionGroup)
	require.True(t, ok)
	require.Len(t, group.Choices, 2, "unresolvable option is dropped")
	assert.Equal(t, int64(2), group.Choices[0].Option.ID)
	assert.Equal(t, []int64{4}, sentenceIDs(t, group.Choices[0].FollowUp))
	assert.Equal(t, []int64{5}, sentenceIDs(t, group.Choices[1].FollowUp))
}

func TestParseTask(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   Task
	}{
		{
			name:   "wait with wrapped value",
			record: `{"$type": "RPG.GameCore.WaitCustomString", "CustomString": {"Value": "go"}}`,
			want:   WaitTrigger{Signal: "go"},
		},
		{
			name:   "trigger with bare string",
			record: `{"$type": "RPG.GameCore.TriggerCustomString", "CustomString": "go"}`,
			want:   EmitTrigger{Signal: "go"},
		},
		{
			name:   "wait without signal",
			record: `{"$type": "RPG.GameCore.WaitCustomString"}`,
			want:   Ignored{Type: "WaitCustomString"},
		},
		{
			name:   "mission talk with bare ids",
			record: `{"$type": "RPG.GameCore.PlayMissionTalk", "SimpleTalkList": [5, {"TalkSentenceID": 6}, {"Other": 1}]}`,
			want:   LinearTalk{SentenceIDs: []int64{5, 6}},
		},
		{
			name:   "option without trigger",
			record: `{"$type": "RPG.GameCore.PlayOptionTalk", "OptionList": [{"TalkSentenceID": 7}, {"TriggerCustomString": "x"}]}`,
			want:   OptionTalk{Options: []TalkOption{{SentenceID: 7}}},
		},
		{
			name:   "timeline",
			record: `{"$type": "RPG.GameCore.PlayTimeline", "TimelinePath": "a.json"}`,
			want:   PlayTimeline{AssetPath: "a.json"},
		},
		{
			name:   "unknown type",
			record: `{"$type": "RPG.GameCore.FinishLevel"}`,
			want:   Ignored{Type: "FinishLevel"},
		},
		{
			name:   "untyped",
			record: `{"Foo": 1}`,
			want:   Ignored{Type: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTask(gjson.Parse(tt.record)))
		})
	}
}

func TestParseFile(t *testing.T) {
	lists, err := ParseFile([]byte(`{"OnStartSequece": [{"TaskList": []}, {"Other": 1}]}`))
	require.NoError(t, err)
	assert.Len(t, lists, 2)
	assert.Empty(t, lists[0])

	lists, err = ParseFile([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, lists)

	_, err = ParseFile([]byte(`nope`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestAct_InterpretFile(t *testing.T) {
	fsys := fstest.MapFS{
		"Config/Level/Mission/1/Act/Act100.json": {Data: []byte(`{
			"Groups": [
				{"Tasks": [
					{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 1}, {"TalkSentenceID": 9}]},
					{"$type": "RPG.GameCore.Wrapper", "Inner": {"Steps": [
						{"$type": "RPG.GameCore.PlayOptionTalk", "OptionList": [
							{"TalkSentenceID": 2}, {"TalkSentenceID": 8}, {"TalkSentenceID": 3}
						]}
					]}}
				]},
				{"$type": "RPG.GameCore.PlayMissionTalk", "SimpleTalkList": [{"TalkSentenceID": 4}]},
				{"$type": "RPG.GameCore.PlayMissionTalk", "SimpleTalkList": [{"TalkSentenceID": 9}]}
			]
		}`)},
		"Config/Level/Mission/1/Act/Act101.json": {Data: []byte(`{"Groups": []}`)},
		"Config/Level/Mission/1/Act/Act102.json": {Data: []byte(`{"Groups": [`)},
	}
	a := NewAct(fsys, stubSentences{1: "a", 2: "", 3: "", 4: "b"}, quietLogger())

	act, ok := a.InterpretFile("Config/Level/Mission/1/Act/Act100.json")
	require.True(t, ok)
	require.Len(t, act.Blocks, 3, "talks with nothing resolvable add no block")

	assert.Equal(t, []int64{1}, sentenceIDs(t, act.Blocks[0]))

	group, ok := act.Blocks[1][0].(dialogue.OptionGroup)
	require.True(t, ok)
	require.Len(t, group.Choices, 2)
	assert.Equal(t, int64(2), group.Choices[0].Option.ID)
	assert.Equal(t, int64(3), group.Choices[1].Option.ID)
	assert.Equal(t, player, group.Choices[1].Option.Speaker)

	assert.Equal(t, []int64{4}, sentenceIDs(t, act.Blocks[2]))

	act, ok = a.InterpretFile("Config/Level/Mission/1/Act/Act101.json")
	require.True(t, ok)
	assert.False(t, act.HasDialogue())

	_, ok = a.InterpretFile("Config/Level/Mission/1/Act/Act102.json")
	assert.False(t, ok)
	_, ok = a.InterpretFile("Config/Level/Mission/1/Act/Act103.json")
	assert.False(t, ok)
}

// fanOutLists builds a chain where every level offers two options firing the
// same next signal, so the unbounded output doubles per level.
func fanOutLists(levels int) []TaskList {
	twoWay := func(signal string) OptionTalk {
		return OptionTalk{Options: []TalkOption{{SentenceID: 1, Signal: signal}, {SentenceID: 1, Signal: signal}}}
	}
	lists := []TaskList{{twoWay("s0")}}
	for k := 0; k < levels; k++ {
		lists = append(lists, TaskList{
			WaitTrigger{Signal: fmt.Sprintf("s%d", k)},
			LinearTalk{SentenceIDs: []int64{2}},
			twoWay(fmt.Sprintf("s%d", k+1)),
		})
	}
	return lists
}

func TestFlowchart_FanOutIsBounded(t *testing.T) {
	sentences := stubSentences{1: "", 2: "a"}

	f := NewFlowchart(fstest.MapFS{}, sentences, quietLogger(), WithMaxElements(500))
	act, ok := f.Interpret("inline", fanOutLists(40))
	require.True(t, ok, "truncated output is still returned")
	block := act.Blocks[0]
	assert.LessOrEqual(t, len(block), 500)
	assert.Greater(t, len(block), 250, "expansions spend budget too")
	assert.Equal(t, []int64{1, 2, 1, 2}, sentenceIDs(t, block[:4]))

	f = NewFlowchart(fstest.MapFS{}, sentences, quietLogger(), WithOptionTree(), WithMaxElements(500))
	act, ok = f.Interpret("inline", fanOutLists(40))
	require.True(t, ok)
	assert.LessOrEqual(t, countElements(act.Blocks[0]), 500)
}

func countElements(b dialogue.Block) int {
	n := 0
	for _, el := range b {
		n++
		if g, ok := el.(dialogue.OptionGroup); ok {
			for _, c := range g.Choices {
				n += countElements(c.FollowUp)
			}
		}
	}
	return n
}

func TestFlowchart_FanOutDefaultBudget(t *testing.T) {
	f := NewFlowchart(fstest.MapFS{}, stubSentences{1: "", 2: "a"}, quietLogger())
	act, ok := f.Interpret("inline", fanOutLists(64))
	require.True(t, ok)
	assert.LessOrEqual(t, len(act.Blocks[0]), DefaultMaxElements)
}

func TestFlowchart_SmallFanOutUntouchedByBudget(t *testing.T) {
	f := NewFlowchart(fstest.MapFS{}, stubSentences{1: "", 2: "a"}, quietLogger())
	act, ok := f.Interpret("inline", fanOutLists(2))
	require.True(t, ok)
	// 2 options at the top, each followed by level 0 (talk + 2 options, each followed by level 1).
	level1 := 1 + 2*1
	level0 := 1 + 2*(1+level1)
	assert.Len(t, act.Blocks[0], 2*(1+level0))
}

func TestTaskList_IsEntry(t *testing.T) {
	assert.False(t, TaskList{}.IsEntry(), "an empty list has no first task")
	assert.False(t, TaskList{WaitTrigger{Signal: "x"}}.IsEntry())
	assert.True(t, TaskList{Ignored{Type: "ShowReward"}, WaitTrigger{Signal: "x"}}.IsEntry())
}

func TestFlowchart_EmptyListsAreNotEntries(t *testing.T) {
	lists := []TaskList{
		{},
		{WaitTrigger{Signal: "x"}, LinearTalk{SentenceIDs: []int64{1}}},
	}
	f := NewFlowchart(fstest.MapFS{}, stubSentences{1: ""}, quietLogger())
	act, ok := f.Interpret("inline", lists)
	assert.False(t, ok)
	assert.Nil(t, act)
}

func TestAct_TalkNestedInsideOption(t *testing.T) {
	fsys := fstest.MapFS{
		"Config/Level/Mission/1/Act/Act100.json": {Data: []byte(`{"Tasks": [
			{"$type": "RPG.GameCore.PlayOptionTalk", "OptionList": [
				{"TalkSentenceID": 1, "OnSelected": [
					{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 2}]}
				]}
			]},
			{"$type": "RPG.GameCore.PlayMissionTalk", "SimpleTalkList": [{"TalkSentenceID": 3}], "Then": {
				"$type": "RPG.GameCore.PlaySimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 4}]
			}}
		]}`)},
	}
	a := NewAct(fsys, stubSentences{1: "", 2: "a", 3: "b", 4: "c"}, quietLogger())

	act, ok := a.InterpretFile("Config/Level/Mission/1/Act/Act100.json")
	require.True(t, ok)
	require.Len(t, act.Blocks, 4)

	group, ok := act.Blocks[0][0].(dialogue.OptionGroup)
	require.True(t, ok)
	assert.Equal(t, int64(1), group.Choices[0].Option.ID)
	assert.Equal(t, []int64{2}, sentenceIDs(t, act.Blocks[1]))
	assert.Equal(t, []int64{3}, sentenceIDs(t, act.Blocks[2]))
	assert.Equal(t, []int64{4}, sentenceIDs(t, act.Blocks[3]))
}

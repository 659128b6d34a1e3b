package engine

import (
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/jwebster45206/mission-script/internal/config"
	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Language:          "EN",
		ProtagonistName:   "Trailblazer",
		ProtagonistGender: "male",
		SummaryCategory:   "Mission",
		MaxTriggerDepth:   8,
	}
}

func testData() fstest.MapFS {
	f := func(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }
	return fstest.MapFS{
		"TextMap/TextMapEN.json": f(`{
			"1": "March 7th",
			"11": "<color=#ffd700>{NICKNAME}</color>, {M#he}{F#she} is awake!",
			"12": "Where am I?",
			"13": "On the Astral Express.",
			"20": "Wake Up"
		}`),
		"ExcelOutput/TalkSentenceConfig.json": f(`[
			{"TalkSentenceID": 1, "TextmapTalkSentenceName": {"Hash": 1}, "TalkSentenceText": {"Hash": 11}},
			{"TalkSentenceID": 2, "TalkSentenceText": {"Hash": 12}},
			{"TalkSentenceID": 3, "TextmapTalkSentenceName": {"Hash": 1}, "TalkSentenceText": {"Hash": 13}}
		]`),
		"ExcelOutput/MainMission.json": f(`[{"MainMissionID": 9, "Name": {"Hash": 20}}]`),
		"Story/Mission/9/Story901.json": f(`{"OnStartSequece": [
			{"TaskList": [
				{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 1}]},
				{"$type": "RPG.GameCore.PlayOptionTalk", "OptionList": [{"TalkSentenceID": 2, "TriggerCustomString": "ask"}]}
			]},
			{"TaskList": [
				{"$type": "RPG.GameCore.WaitCustomString", "CustomString": {"Value": "ask"}},
				{"$type": "RPG.GameCore.PlayAndWaitSimpleTalk", "SimpleTalkList": [{"TalkSentenceID": 3}]}
			]}
		]}`),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_AssemblesWithCleanText(t *testing.T) {
	e, err := New(testConfig(), testData(), quietLogger())
	require.NoError(t, err)

	m, ok := e.Assembler.InterpretMission(9)
	require.True(t, ok)
	assert.Equal(t, "Wake Up", m.Name)

	block := m.Scripts[0].Script.Blocks[0]
	require.Len(t, block, 3)
	assert.Equal(t, dialogue.Sentence{ID: 1, Speaker: "March 7th", Text: "Trailblazer, he is awake!"}, block[0])
	assert.Equal(t, "Trailblazer", block[1].(dialogue.Sentence).Speaker)
	assert.Equal(t, "On the Astral Express.", block[2].(dialogue.Sentence).Text)
}

func TestNew_OptionTree(t *testing.T) {
	cfg := testConfig()
	cfg.OptionTree = true

	e, err := New(cfg, testData(), quietLogger())
	require.NoError(t, err)

	m, ok := e.Assembler.InterpretMission(9)
	require.True(t, ok)
	block := m.Scripts[0].Script.Blocks[0]
	require.Len(t, block, 2)
	group, ok := block[1].(dialogue.OptionGroup)
	require.True(t, ok)
	assert.Len(t, group.Choices[0].FollowUp, 1)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Language = "JP"
	_, err := New(cfg, testData(), quietLogger())
	assert.Error(t, err, "missing text map")

	cfg = testConfig()
	cfg.SentenceSignal = "(["
	_, err = New(cfg, testData(), quietLogger())
	assert.Error(t, err, "bad signal pattern")
}

package script

import (
	"io/fs"
	"log/slog"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/tidwall/gjson"
)

// Act interprets level Act files, which nest talk tasks at arbitrary depth
// and need no trigger resolution.
type Act struct {
	fsys      fs.FS
	sentences SentenceSource
	logger    *slog.Logger
}

// NewAct creates an act interpreter reading files from fsys.
func NewAct(fsys fs.FS, sentences SentenceSource, logger *slog.Logger) *Act {
	if logger == nil {
		logger = slog.Default()
	}
	return &Act{
		fsys:      fsys,
		sentences: sentences,
		logger:    logger,
	}
}

// InterpretFile collects one block per talk task found in the file. The
// returned script may hold no blocks; ok is false only when the file cannot
// be read or parsed.
func (a *Act) InterpretFile(path string) (*dialogue.ActScript, bool) {
	data, err := fs.ReadFile(a.fsys, path)
	if err != nil {
		a.logger.Warn("Failed to read act file", "path", path, "error", err)
		return nil, false
	}
	if !gjson.ValidBytes(data) {
		a.logger.Warn("Failed to parse act file", "path", path, "error", ErrInvalidJSON)
		return nil, false
	}
	return a.Interpret(gjson.ParseBytes(data)), true
}

// Interpret walks an already parsed act document.
func (a *Act) Interpret(doc gjson.Result) *dialogue.ActScript {
	script := &dialogue.ActScript{}
	walk(doc, func(obj gjson.Result) {
		tag := TypeTag(obj)
		switch {
		case isLinearTalkTag(tag):
			if block := a.linearBlock(obj); len(block) > 0 {
				script.Blocks = append(script.Blocks, block)
			}
		case tag == tagPlayOptionTalk:
			if block := a.optionBlock(obj); len(block) > 0 {
				script.Blocks = append(script.Blocks, block)
			}
		}
	})
	return script
}

func (a *Act) linearBlock(record gjson.Result) dialogue.Block {
	var block dialogue.Block
	for _, id := range talkSentenceIDs(record.Get("SimpleTalkList")) {
		if s, ok := a.sentences.Resolve(id); ok {
			block = append(block, s)
		}
	}
	return block
}

func (a *Act) optionBlock(record gjson.Result) dialogue.Block {
	var group dialogue.OptionGroup
	for _, opt := range talkOptions(record.Get("OptionList")) {
		if s, ok := a.sentences.ResolveAsPlayer(opt.SentenceID); ok {
			group.Choices = append(group.Choices, dialogue.Choice{Option: s})
		}
	}
	if len(group.Choices) == 0 {
		return nil
	}
	return dialogue.Block{group}
}

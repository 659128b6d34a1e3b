package sentence

import (
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/jwebster45206/mission-script/pkg/gamedata"
)

// TextSource resolves text hashes. *textmap.Service satisfies it.
type TextSource interface {
	Text(hash string) (string, bool)
	Protagonist() string
}

// Record is one row of the talk sentence table.
type Record struct {
	TextHash    string
	SpeakerHash string // empty when the line has no named speaker
}

// Resolver turns sentence ids into resolved dialogue lines.
type Resolver struct {
	texts  TextSource
	logger *slog.Logger

	load    func() (map[int64]Record, error)
	once    sync.Once
	records map[int64]Record
}

// NewResolver creates a resolver that reads the sentence table from fsys on first use.
func NewResolver(fsys fs.FS, texts TextSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		texts:  texts,
		logger: logger,
		load: func() (map[int64]Record, error) {
			return LoadRecords(fsys, logger)
		},
	}
}

// NewResolverFromRecords creates a resolver over an in-memory table.
func NewResolverFromRecords(records map[int64]Record, texts TextSource) *Resolver {
	return &Resolver{
		texts:  texts,
		logger: slog.Default(),
		load:   func() (map[int64]Record, error) { return records, nil },
	}
}

// LoadRecords reads ExcelOutput/TalkSentenceConfig.json. Rows without an id or
// text hash are skipped.
func LoadRecords(fsys fs.FS, logger *slog.Logger) (map[int64]Record, error) {
	rows, err := gamedata.ReadRows(fsys, gamedata.TalkSentencePath)
	if err != nil {
		return nil, err
	}

	records := make(map[int64]Record, len(rows))
	skipped := 0
	for _, row := range rows {
		id, ok := gamedata.ID(row, "TalkSentenceID")
		if !ok {
			skipped++
			continue
		}
		textHash, ok := gamedata.Hash(row, "TalkSentenceText")
		if !ok {
			skipped++
			continue
		}
		speakerHash, _ := gamedata.Hash(row, "TextmapTalkSentenceName")
		records[id] = Record{TextHash: textHash, SpeakerHash: speakerHash}
	}

	logger.Debug("Loaded talk sentences", "count", len(records), "skipped", skipped)
	return records, nil
}

func (r *Resolver) table() map[int64]Record {
	r.once.Do(func() {
		records, err := r.load()
		if err != nil {
			r.logger.Error("Failed to load talk sentence table", "error", err)
			return
		}
		r.records = records
	})
	return r.records
}

// Resolve returns the speaker and text of a sentence. ok is false when the
// sentence is unknown or its text does not resolve to a non-empty string.
func (r *Resolver) Resolve(id int64) (dialogue.Sentence, bool) {
	rec, ok := r.table()[id]
	if !ok {
		return dialogue.Sentence{}, false
	}

	text, ok := r.texts.Text(rec.TextHash)
	if !ok || text == "" {
		return dialogue.Sentence{}, false
	}

	speaker := r.texts.Protagonist()
	if rec.SpeakerHash != "" {
		if name, ok := r.texts.Text(rec.SpeakerHash); ok && name != "" {
			speaker = name
		}
	}

	return dialogue.Sentence{ID: id, Speaker: speaker, Text: text}, true
}

// ResolveAsPlayer resolves a sentence spoken by the player as a choice.
func (r *Resolver) ResolveAsPlayer(id int64) (dialogue.Sentence, bool) {
	s, ok := r.Resolve(id)
	if !ok {
		return s, false
	}
	s.Speaker = r.texts.Protagonist()
	s.Option = true
	return s, true
}

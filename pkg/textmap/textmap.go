package textmap

import (
	"fmt"
	"io/fs"

	"github.com/jwebster45206/mission-script/pkg/gamedata"
	"github.com/tidwall/gjson"
)

// TextMap maps text hashes to raw localized strings for one language.
// It is never modified after construction.
type TextMap struct {
	entries map[string]string
}

// New wraps an existing hash table.
func New(entries map[string]string) *TextMap {
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &TextMap{entries: copied}
}

// Load reads TextMap/TextMap{LANG}.json from fsys.
func Load(fsys fs.FS, lang string) (*TextMap, error) {
	path := gamedata.TextMapPath(lang)
	data, err := gamedata.ReadJSON(fsys, path)
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("text map %s is not a JSON object", path)
	}

	entries := make(map[string]string)
	doc.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			entries[key.String()] = value.Str
		}
		return true
	})

	return &TextMap{entries: entries}, nil
}

// Get returns the raw string for a hash.
func (t *TextMap) Get(hash string) (string, bool) {
	if t == nil {
		return "", false
	}
	s, ok := t.entries[hash]
	return s, ok
}

// Len returns the number of entries.
func (t *TextMap) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

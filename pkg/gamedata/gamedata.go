// Package gamedata reads the raw game data tables that every interpreter shares.
//
// Tables ship either as a JSON array of rows or as an object whose values are
// rows (older dumps key each row by its id). Both shapes are accepted. Fields
// that refer to the text map hold either a bare number/string or an object of
// the form {"Hash": <number>}.
package gamedata

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/tidwall/gjson"
)

// Table paths relative to the data root.
const (
	TextJoinConfigPath     = "ExcelOutput/TextJoinConfig.json"
	TextJoinItemPath       = "ExcelOutput/TextJoinItem.json"
	TalkSentencePath       = "ExcelOutput/TalkSentenceConfig.json"
	MainMissionPath        = "ExcelOutput/MainMission.json"
	SubMissionPath         = "ExcelOutput/SubMission.json"
	PerformanceSummaryPath = "ExcelOutput/PerformanceSummary.json"
)

// TextMapPath returns the text map file for a game language code such as CHS or EN.
func TextMapPath(lang string) string {
	return "TextMap/TextMap" + strings.ToUpper(lang) + ".json"
}

// ReadJSON reads a file and checks that it holds valid JSON.
func ReadJSON(fsys fs.FS, path string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("file %s contains invalid JSON", path)
	}
	return data, nil
}

// ReadRows reads a table file and returns its rows.
func ReadRows(fsys fs.FS, path string) ([]gjson.Result, error) {
	data, err := ReadJSON(fsys, path)
	if err != nil {
		return nil, err
	}
	return Rows(gjson.ParseBytes(data)), nil
}

// Rows flattens an array-of-rows or object-of-rows document into rows.
// Non-object entries are dropped.
func Rows(doc gjson.Result) []gjson.Result {
	if !doc.IsArray() && !doc.IsObject() {
		return nil
	}
	var rows []gjson.Result
	doc.ForEach(func(_, row gjson.Result) bool {
		if row.IsObject() {
			rows = append(rows, row)
		}
		return true
	})
	return rows
}

// ID reads an integer id field. ok is false when the field is absent or not numeric.
func ID(row gjson.Result, field string) (int64, bool) {
	v := row.Get(field)
	switch v.Type {
	case gjson.Number:
		return v.Int(), true
	case gjson.String:
		r := gjson.Parse(strings.TrimSpace(v.Str))
		if r.Type != gjson.Number {
			return 0, false
		}
		return r.Int(), true
	default:
		return 0, false
	}
}

// Hash reads a text hash field, unwrapping {"Hash": n}. ok is false when absent.
func Hash(row gjson.Result, field string) (string, bool) {
	return HashValue(row.Get(field))
}

// HashValue converts a hash value of any accepted shape into a text map key.
func HashValue(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.Number:
		return strings.TrimSpace(v.Raw), true
	case gjson.String:
		if v.Str == "" {
			return "", false
		}
		return v.Str, true
	case gjson.JSON:
		if v.IsObject() {
			return HashValue(v.Get("Hash"))
		}
	}
	return "", false
}

// String reads a string field that may be wrapped as {"Value": "..."}.
func String(v gjson.Result) string {
	if v.IsObject() {
		return v.Get("Value").String()
	}
	if v.Type == gjson.String {
		return v.Str
	}
	return ""
}

package textfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Gender selects which variant of a {M#..}{F#..} alternation is kept.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender maps loose user input onto a Gender, defaulting to female.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "caelus":
		return GenderMale
	default:
		return GenderFemale
	}
}

var (
	genderPairPattern = regexp.MustCompile(`\{M#([^{}]*)\}\{F#([^{}]*)\}|\{F#([^{}]*)\}\{M#([^{}]*)\}`)
	// Tags used by the game's rich text renderer. Anything else in angle brackets is left alone.
	markupTagPattern = regexp.MustCompile(`</?(?:color|i|b|u|size|align|unbreak|ruby|link|sprite|font)(?:=[^>]*)?>`)
	rubyPattern      = regexp.MustCompile(`\{RUBY_B#[^{}]*\}(.*?)\{RUBY_E#\}`)
	nicknamePattern  = regexp.MustCompile(`\{NICKNAME\}`)
	// Any {TAG#...} token, e.g. an unpaired {F#...} or an unresolved {TEXTJOIN#n}.
	tokenPattern = regexp.MustCompile(`\{[A-Z_]+#[^{}]*\}`)
)

// Cleaner turns raw text-map strings into display text.
type Cleaner struct {
	protagonist string
	gender      Gender
}

// NewCleaner creates a Cleaner that substitutes the given protagonist label and gender variant.
func NewCleaner(protagonist string, gender Gender) *Cleaner {
	return &Cleaner{
		protagonist: protagonist,
		gender:      gender,
	}
}

// Clean strips rich text markup and resolves player-dependent tokens.
// {TEXTJOIN#n} placeholders are never touched.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return text
	}

	result := genderPairPattern.ReplaceAllStringFunc(text, c.pickGender)
	result = rubyPattern.ReplaceAllString(result, "$1")
	result = nicknamePattern.ReplaceAllLiteralString(result, c.protagonist)
	result = markupTagPattern.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, `\n`, "\n")

	return norm.NFC.String(result)
}

func (c *Cleaner) pickGender(match string) string {
	groups := genderPairPattern.FindStringSubmatch(match)
	if groups == nil {
		return match
	}
	male, female := groups[1], groups[2]
	if strings.HasPrefix(match, "{F#") {
		male, female = groups[4], groups[3]
	}
	if c.gender == GenderMale {
		return male
	}
	return female
}

// ContainsMarkup reports whether text still carries renderer tags or
// {TAG#...} tokens. Run on cleaned text it finds what Clean could not handle.
func ContainsMarkup(text string) bool {
	return markupTagPattern.MatchString(text) ||
		nicknamePattern.MatchString(text) ||
		tokenPattern.MatchString(text)
}

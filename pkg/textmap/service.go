package textmap

import (
	"regexp"
	"strconv"
)

// DefaultProtagonist is the label used when the player is the implied speaker.
const DefaultProtagonist = "开拓者"

var textJoinPattern = regexp.MustCompile(`\{TEXTJOIN#(\d+)\}`)

// Cleaner post-processes fully resolved text.
type Cleaner interface {
	Clean(text string) string
}

// Service resolves text hashes into display strings, expanding nested
// {TEXTJOIN#n} placeholders.
type Service struct {
	texts       *TextMap
	joins       *JoinResolver
	protagonist string
	cleaner     Cleaner
}

// Option configures a Service.
type Option func(*Service)

// WithProtagonist overrides the protagonist label.
func WithProtagonist(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.protagonist = name
		}
	}
}

// WithCleaner runs every resolved string through c.
func WithCleaner(c Cleaner) Option {
	return func(s *Service) {
		s.cleaner = c
	}
}

// NewService creates a text resolution service. joins may be nil.
func NewService(texts *TextMap, joins *JoinResolver, opts ...Option) *Service {
	s := &Service{
		texts:       texts,
		joins:       joins,
		protagonist: DefaultProtagonist,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Protagonist returns the label substituted for the player.
func (s *Service) Protagonist() string {
	return s.protagonist
}

// Text returns the display string for a hash with all placeholders expanded.
// ok is false when the hash is not in the text map.
func (s *Service) Text(hash string) (string, bool) {
	raw, ok := s.texts.Get(hash)
	if !ok {
		return "", false
	}
	text := s.ResolveJoinPlaceholders(raw, nil)
	if s.cleaner != nil {
		text = s.cleaner.Clean(text)
	}
	return text, true
}

// ResolveJoinPlaceholders expands {TEXTJOIN#n} placeholders in text.
//
// visited holds the join ids currently being expanded further up the call
// chain; a placeholder for one of them is left verbatim. Placeholders that do
// not resolve, or resolve to an empty string, are also left verbatim. A nil
// visited set is treated as empty.
func (s *Service) ResolveJoinPlaceholders(text string, visited map[int64]struct{}) string {
	matches := textJoinPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	if visited == nil {
		visited = make(map[int64]struct{})
	}

	result := text
	// Right to left so splicing never shifts the offsets of matches still to come.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		joinID, err := strconv.ParseInt(text[m[2]:m[3]], 10, 64)
		if err != nil {
			continue
		}
		if _, seen := visited[joinID]; seen {
			continue
		}

		replacement := s.resolveJoin(joinID, visited)
		if replacement == "" {
			continue
		}
		result = result[:m[0]] + "「" + replacement + "」" + result[m[1]:]
	}
	return result
}

func (s *Service) resolveJoin(joinID int64, visited map[int64]struct{}) string {
	hash, ok := s.joins.TextHash(joinID)
	if !ok {
		return ""
	}
	if hash == PlayerNameHash {
		return s.protagonist
	}

	raw, ok := s.texts.Get(hash)
	if !ok {
		return ""
	}

	visited[joinID] = struct{}{}
	defer delete(visited, joinID)
	return s.ResolveJoinPlaceholders(raw, visited)
}

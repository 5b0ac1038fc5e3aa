// Package tagparser extracts typed tag markup and weak decision-context
// cues from free chat text. Matching is purely lexical: the parser never
// attempts to understand what a tag means, only where it appears and how
// it is spelled.
package tagparser

import (
	"regexp"
	"strings"
)

// Mention is one resolved (type, name) pair extracted from text, not yet
// bound to a global entity identity; that binding is TrajectoryEngine's
// job (FindOrCreateEntity).
type Mention struct {
	Type string
	Name string
}

var (
	// typedTagPattern matches [[word:content]] where word is an ASCII
	// identifier and content is any non-']' sequence.
	typedTagPattern = regexp.MustCompile(`\[\[([A-Za-z][A-Za-z0-9_]*):([^\]]+)\]\]`)

	// untypedTagPattern matches the broader [[content]] form. A match is
	// only used as a fallback mention when its span was not already
	// claimed by typedTagPattern (see span exclusion in ExtractMentions).
	untypedTagPattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
)

type span struct{ start, end int }

func spanOverlaps(s span, spans []span) bool {
	for _, other := range spans {
		if s.start < other.end && other.start < s.end {
			return true
		}
	}
	return false
}

// ExtractMentions runs the typed pass, then the untyped fallback pass,
// deduplicating by (type, name) and never letting a span matched by the
// typed pass also produce an untyped mention. Order of first appearance
// is preserved.
func ExtractMentions(text string) []Mention {
	type key struct{ typ, name string }
	seen := make(map[key]bool)
	var mentions []Mention

	var typedSpans []span
	for _, m := range typedTagPattern.FindAllStringSubmatchIndex(text, -1) {
		typedSpans = append(typedSpans, span{start: m[0], end: m[1]})
		typ := strings.ToLower(text[m[2]:m[3]])
		name := normalizeName(text[m[4]:m[5]])
		if name == "" {
			continue
		}
		k := key{typ: typ, name: name}
		if seen[k] {
			continue
		}
		seen[k] = true
		mentions = append(mentions, Mention{Type: typ, Name: name})
	}

	for _, m := range untypedTagPattern.FindAllStringSubmatchIndex(text, -1) {
		s := span{start: m[0], end: m[1]}
		if spanOverlaps(s, typedSpans) {
			continue
		}
		name := normalizeName(text[m[2]:m[3]])
		if name == "" {
			continue
		}
		k := key{typ: "topic", name: name}
		if seen[k] {
			continue
		}
		seen[k] = true
		mentions = append(mentions, Mention{Type: "topic", Name: name})
	}

	return mentions
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

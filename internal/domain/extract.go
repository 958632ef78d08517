package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Method tells which technique found a location in message text.
type Method int

const (
	MethodNone Method = iota
	MethodBare
	MethodPattern
)

func (m Method) String() string {
	switch m {
	case MethodBare:
		return "bare"
	case MethodPattern:
		return "pattern"
	default:
		return "none"
	}
}

// Extraction is a location found in message text.
type Extraction struct {
	Entry   LocationEntry
	Matched string // normalized text that matched
	Method  Method
}

// spanClass is a run of characters that can be part of a place name:
// anything but punctuation, symbols and whitespace.
const spanClass = `[^\p{P}\p{S}\p{Z}\s]{1,8}`

var (
	leadSpan  = regexp.MustCompile(`^` + spanClass)
	trailSpan = regexp.MustCompile(spanClass + `$`)
)

// cue is a lead-in ("在X") or trail-in ("X的天气") around a place name.
type cue struct {
	word   string
	suffix bool
}

func prefixCue(word string) cue { return cue{word: word} }

func suffixCue(word string) cue { return cue{word: word, suffix: true} }

// spans returns the candidate capture at every occurrence of the cue word,
// overlapping ones included, so "现在在X" still yields X.
func (c cue) spans(norm string) []string {
	var out []string
	for offset := 0; offset < len(norm); {
		pos := strings.Index(norm[offset:], c.word)
		if pos < 0 {
			break
		}
		start := offset + pos
		var span string
		if c.suffix {
			span = trailSpan.FindString(norm[:start])
		} else {
			span = leadSpan.FindString(norm[start+len(c.word):])
		}
		if span != "" {
			out = append(out, span)
		}
		_, size := utf8.DecodeRuneInString(norm[start:])
		offset = start + size
	}
	return out
}

// cues are tried in order; the first capture that resolves wins. Multi-rune
// cues come before the single-rune cues they contain.
var cues = []cue{
	suffixCue("的天气"),
	suffixCue("天气"),
	prefixCue("住在"),
	prefixCue("人在"),
	prefixCue("抵达"),
	prefixCue("飞往"),
	prefixCue("前往"),
	prefixCue("在"),
	prefixCue("去"),
	prefixCue("到"),
	prefixCue("来"),
	prefixCue("回"),
	prefixCue("飞"),
	suffixCue("下雨"),
	suffixCue("下雪"),
	suffixCue("降温"),
}

// Extract finds a location named in text. A bare mention of a display name
// takes precedence; cue patterns are only consulted when there is none.
func (d *Dictionary) Extract(text string) (Extraction, bool) {
	norm := Normalize(text)
	if norm == "" {
		return Extraction{}, false
	}
	if m, ok := d.findLongest(norm); ok {
		return Extraction{Entry: d.entries[m.index], Matched: m.text, Method: MethodBare}, true
	}
	return d.extractByCue(norm)
}

// extractByCue runs the cue patterns over normalized text. Captures that do
// not resolve through the dictionary are dropped.
func (d *Dictionary) extractByCue(norm string) (Extraction, bool) {
	for _, c := range cues {
		for _, span := range c.spans(norm) {
			var (
				m  match
				ok bool
			)
			if c.suffix {
				m, ok = d.longestSuffix(span)
			} else {
				m, ok = d.longestPrefix(span)
			}
			if ok {
				return Extraction{Entry: d.entries[m.index], Matched: m.text, Method: MethodPattern}, true
			}
		}
	}
	return Extraction{}, false
}

package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// adminSuffixes are stripped from captured spans before a second lookup,
// so "杭州市" resolves through the "杭州" entry.
var adminSuffixes = []string{"特别行政区", "自治州", "地区", "市", "省", "区", "县"}

// Dictionary holds the recognized location names in registration order.
// Build it with Register or LoadDictionary at startup; after that it is
// read-only and safe for concurrent lookups.
type Dictionary struct {
	entries   []LocationEntry
	keys      []string       // normalized display names, parallel to entries
	byKey     map[string]int // normalized display name -> entry index
	primaries map[string]int // normalized canonical id -> first entry for that id
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		byKey:     make(map[string]int),
		primaries: make(map[string]int),
	}
}

// Register adds displayName -> canonicalID. Registering an identical pair
// again is a no-op; the same display name with another id returns a
// *DuplicateLocationError.
func (d *Dictionary) Register(displayName, canonicalID string) error {
	displayName = strings.TrimSpace(displayName)
	canonicalID = strings.TrimSpace(canonicalID)
	if displayName == "" {
		return errors.New("register location: empty display name")
	}
	if canonicalID == "" {
		return errors.New("register location: empty canonical id for " + displayName)
	}

	key := Normalize(displayName)
	if i, ok := d.byKey[key]; ok {
		if d.entries[i].CanonicalID == canonicalID {
			return nil
		}
		return &DuplicateLocationError{
			DisplayName: displayName,
			Existing:    d.entries[i].CanonicalID,
			Conflicting: canonicalID,
		}
	}

	d.entries = append(d.entries, LocationEntry{DisplayName: displayName, CanonicalID: canonicalID})
	d.keys = append(d.keys, key)
	d.byKey[key] = len(d.entries) - 1

	ck := Normalize(canonicalID)
	if _, ok := d.primaries[ck]; !ok {
		d.primaries[ck] = len(d.entries) - 1
	}
	return nil
}

// Len returns the number of registered display names.
func (d *Dictionary) Len() int { return len(d.entries) }

// Entries returns a copy of the entries in registration order.
func (d *Dictionary) Entries() []LocationEntry {
	out := make([]LocationEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// FindLongestMatch returns the entry whose display name is the longest one
// occurring in text. Equal lengths go to the earliest position in text, then
// to registration order.
func (d *Dictionary) FindLongestMatch(text string) (LocationEntry, bool) {
	m, ok := d.findLongest(Normalize(text))
	if !ok {
		return LocationEntry{}, false
	}
	return d.entries[m.index], true
}

// match is one dictionary hit inside normalized text.
type match struct {
	index int    // entry index
	text  string // matched normalized substring
	pos   int    // byte offset in the normalized text, -1 if not positional
}

// findLongest scans normalized text for every registered display name.
func (d *Dictionary) findLongest(text string) (match, bool) {
	best := match{index: -1}
	bestLen := 0
	for i, key := range d.keys {
		pos := indexBounded(text, key)
		if pos < 0 {
			continue
		}
		n := utf8.RuneCountInString(key)
		if n > bestLen || (n == bestLen && pos < best.pos) {
			best = match{index: i, text: key, pos: pos}
			bestLen = n
		}
	}
	return best, best.index >= 0
}

// Lookup resolves a single name: an exact display name, a canonical id, or
// either of those followed by an administrative suffix such as 市 or 省.
func (d *Dictionary) Lookup(name string) (LocationEntry, bool) {
	i, ok := d.lookupKey(Normalize(name))
	if !ok {
		return LocationEntry{}, false
	}
	return d.entries[i], true
}

func (d *Dictionary) lookupKey(key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	if i, ok := d.byKey[key]; ok {
		return i, true
	}
	if i, ok := d.primaries[key]; ok {
		return i, true
	}
	for _, suffix := range adminSuffixes {
		base, found := strings.CutSuffix(key, suffix)
		if !found || base == "" {
			continue
		}
		if i, ok := d.byKey[base]; ok {
			return i, true
		}
		if i, ok := d.primaries[base]; ok {
			return i, true
		}
	}
	return 0, false
}

// longestPrefix returns the longest display name or canonical id that span
// starts with.
func (d *Dictionary) longestPrefix(span string) (match, bool) {
	return d.longestAnchored(span, false)
}

// longestSuffix returns the longest display name or canonical id that span
// ends with. An administrative suffix on span is ignored.
func (d *Dictionary) longestSuffix(span string) (match, bool) {
	if m, ok := d.longestAnchored(span, true); ok {
		return m, true
	}
	for _, suffix := range adminSuffixes {
		if base, found := strings.CutSuffix(span, suffix); found && base != "" {
			if m, ok := d.longestAnchored(base, true); ok {
				return m, true
			}
		}
	}
	return match{}, false
}

func (d *Dictionary) longestAnchored(span string, atEnd bool) (match, bool) {
	best := match{index: -1, pos: -1}
	bestLen := 0
	consider := func(key string, i int) {
		if key == "" || len(key) > len(span) {
			return
		}
		start := 0
		if atEnd {
			start = len(span) - len(key)
		}
		if span[start:start+len(key)] != key {
			return
		}
		if !bounded(span, start, start+len(key)) {
			return
		}
		if n := utf8.RuneCountInString(key); n > bestLen {
			best = match{index: i, text: key, pos: -1}
			bestLen = n
		}
	}
	for i, key := range d.keys {
		consider(key, i)
	}
	for ck, i := range d.primaries {
		consider(ck, i)
	}
	return best, best.index >= 0
}

// DisplayName returns the primary display name registered for canonicalID,
// or canonicalID itself when the id is unknown (a free-text stored default).
func (d *Dictionary) DisplayName(canonicalID string) string {
	if i, ok := d.primaries[Normalize(canonicalID)]; ok {
		return d.entries[i].DisplayName
	}
	return canonicalID
}

// indexBounded is strings.Index restricted to occurrences that do not split
// a Latin word, so "puer" is not found inside "puerto".
func indexBounded(text, key string) int {
	offset := 0
	for {
		pos := strings.Index(text[offset:], key)
		if pos < 0 {
			return -1
		}
		start := offset + pos
		if bounded(text, start, start+len(key)) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

// bounded reports whether text[start:end] has no ASCII letter or digit glued
// to either end of an ASCII letter or digit. CJK text has no word breaks and
// is always bounded.
func bounded(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		first, _ := utf8.DecodeRuneInString(text[start:end])
		if isWordASCII(prev) && isWordASCII(first) {
			return false
		}
	}
	if end < len(text) {
		last, _ := utf8.DecodeLastRuneInString(text[start:end])
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordASCII(last) && isWordASCII(next) {
			return false
		}
	}
	return true
}

func isWordASCII(r rune) bool {
	return r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
}

// Package extranumber encodes the special lucky numbers configured on a program.
//
// The persisted form is a list of entries separated by ',' where each entry is
// number@@repeat@@prizeCode, e.g. "101@@2@@GIFT01,205@@1@@GIFT02".
package extranumber

import (
	"strconv"
	"strings"
)

const (
	EntrySeparator = ","
	FieldSeparator = "@@"

	fieldCount = 3
)

// Entry is one configured extra number.
type Entry struct {
	Number    string `json:"number"`
	Repeat    int    `json:"repeat"`
	PrizeCode string `json:"prizeCode"`
}

// Valid reports whether the entry can be persisted: an integer number and a prize code.
func (e Entry) Valid() bool {
	_, ok := canonicalNumber(e.Number)
	return ok && strings.TrimSpace(e.PrizeCode) != ""
}

// Times returns the repeat count, defaulting to 1.
func (e Entry) Times() int {
	if e.Repeat < 1 {
		return 1
	}
	return e.Repeat
}

// String renders the entry in its persisted three-field form.
func (e Entry) String() string {
	c := e.canonical()
	return strings.Join([]string{c.Number, strconv.Itoa(c.Repeat), c.PrizeCode}, FieldSeparator)
}

// Decode parses the persisted form. Malformed chunks are skipped: fewer than
// three fields, a non-integer number or an empty prize code. Fields past the
// third are ignored.
func Decode(raw string) []Entry {
	entries := make([]Entry, 0)
	if strings.TrimSpace(raw) == "" {
		return entries
	}
	for _, chunk := range strings.Split(raw, EntrySeparator) {
		entry, ok := decodeChunk(chunk)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func decodeChunk(chunk string) (Entry, bool) {
	chunk = strings.TrimSpace(chunk)
	if chunk == "" {
		return Entry{}, false
	}
	fields := strings.Split(chunk, FieldSeparator)
	if len(fields) < fieldCount {
		return Entry{}, false
	}
	number, ok := canonicalNumber(fields[0])
	if !ok {
		return Entry{}, false
	}
	code := strings.TrimSpace(fields[2])
	if code == "" {
		return Entry{}, false
	}
	repeat, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || repeat < 1 {
		repeat = 1
	}
	return Entry{Number: number, Repeat: repeat, PrizeCode: code}, true
}

// Encode serialises the valid entries, in order. Blank or half-filled rows are dropped.
func Encode(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		parts = append(parts, e.String())
	}
	return strings.Join(parts, EntrySeparator)
}

// Persisted reports whether entry is one of the chunks of raw. Both sides are
// compared in canonical form, so "007@@0@@G1" holds the entry 7@@1@@G1.
func Persisted(raw string, entry Entry) bool {
	if !entry.Valid() {
		return false
	}
	want := entry.canonical()
	for _, chunk := range strings.Split(raw, EntrySeparator) {
		if got, ok := decodeChunk(chunk); ok && got == want {
			return true
		}
	}
	return false
}

func (e Entry) canonical() Entry {
	number, _ := canonicalNumber(e.Number)
	return Entry{Number: number, Repeat: e.Times(), PrizeCode: strings.TrimSpace(e.PrizeCode)}
}

// Remove drops every entry with the given number. Numbers compare by value, so "007" matches "7".
func Remove(entries []Entry, number string) []Entry {
	target, ok := canonicalNumber(number)
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if n, valid := canonicalNumber(e.Number); ok && valid && n == target {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// Find returns the first entry with the given number.
func Find(entries []Entry, number string) (Entry, bool) {
	target, ok := canonicalNumber(number)
	if !ok {
		return Entry{}, false
	}
	for _, e := range entries {
		if n, valid := canonicalNumber(e.Number); valid && n == target {
			return e, true
		}
	}
	return Entry{}, false
}

func canonicalNumber(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

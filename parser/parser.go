package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	quarterPattern = regexp.MustCompile(`^([0-9]{4})\s*[-_ ]?\s*[Qq]([1-4])$`)
	nonAlnum       = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// ParseQuarterLabel reports whether a header cell is a quarter label and
// returns it normalized to "YYYY-Qn", a form whose lexicographic order is
// chronological order. Accepted spellings include "2023-Q1", "2023Q1",
// "2023 Q1" and "2023-q1".
func ParseQuarterLabel(label string) (string, bool) {
	m := quarterPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return "", false
	}
	return m[1] + "-Q" + m[2], true
}

// ParseRate coerces a data cell into a vacancy rate. Blank cells and the
// Eurostat ":" missing marker report ok=false, as does any other content that
// is not a number.
func ParseRate(cell string) (float64, bool) {
	value := strings.TrimSpace(cell)
	if value == "" || value == ":" {
		return 0, false
	}
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return rate, true
}

// NormalizeGeo canonicalizes a geography label for matching: whitespace runs
// collapse to single spaces, unicode dashes fold to "-", and the result is
// lowercased. Eurostat exports are inconsistent about the dash in "Euro area
// - 20 countries", so byte equality is too strict.
func NormalizeGeo(geo string) string {
	folded := strings.Map(func(r rune) rune {
		switch r {
		case '‐', '‑', '‒', '–', '—', '―':
			return '-'
		}
		return r
	}, geo)
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// MatchGeos partitions requested geography names into matches and misses.
// Matching is exact after NormalizeGeo. Matched names come back as they are
// spelled in available and in available's order; unmatched names keep the
// requested spelling and order.
func MatchGeos(available, requested []string) (matched, unmatched []string) {
	if len(requested) == 0 {
		return nil, nil
	}
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[NormalizeGeo(name)] = true
	}
	hit := make(map[string]bool, len(requested))
	for _, name := range available {
		key := NormalizeGeo(name)
		if want[key] {
			matched = append(matched, name)
			hit[key] = true
		}
	}
	for _, name := range requested {
		if !hit[NormalizeGeo(name)] {
			unmatched = append(unmatched, name)
		}
	}
	return matched, unmatched
}

// Slugify builds a filesystem-safe suffix from a worksheet name: runs of
// non-alphanumeric characters become single underscores and the result is
// lowercased. An empty result falls back to "sheet".
func Slugify(name string) string {
	slug := nonAlnum.ReplaceAllString(name, "_")
	slug = strings.ToLower(strings.Trim(slug, "_"))
	if slug == "" {
		return "sheet"
	}
	return slug
}

// SplitList parses a comma separated flag value into trimmed non-empty
// entries. Semicolons work as an alternative separator so geography names
// containing commas stay usable.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}
	var entries []string
	for _, part := range strings.Split(raw, sep) {
		if entry := strings.TrimSpace(part); entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// checksumRecords computes a stable SHA-256 over records: canonical JSON,
// camelCase field names, no pretty-print, ascending key order (§4.4).
func checksumRecords(records []Record) string {
	canonical := make([]map[string]any, len(records))
	for i, r := range records {
		canonical[i] = canonicalizeRecord(r)
	}

	// encoding/json sorts map[string]any keys ascending when marshaling, so
	// the only extra work is camelCasing the field names themselves.
	data, err := json.Marshal(canonical)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func canonicalizeRecord(r Record) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[camelCase(k)] = canonicalizeValue(v)
	}
	return out
}

func canonicalizeValue(v any) any {
	switch val := v.(type) {
	case Record:
		return canonicalizeRecord(val)
	case map[string]any:
		return canonicalizeRecord(Record(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = canonicalizeValue(item)
		}
		return out
	default:
		return val
	}
}

// camelCase normalizes snake_case or kebab-case field names to camelCase
// using golang.org/x/text/cases for the per-segment title-casing, rather
// than a hand-rolled ASCII folder.
func camelCase(name string) string {
	segments := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(segments) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(segments[0]))
	for _, seg := range segments[1:] {
		b.WriteString(titleCaser.String(strings.ToLower(seg)))
	}
	return b.String()
}

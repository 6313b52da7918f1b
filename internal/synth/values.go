package synth

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp/syntax"
	"strings"

	"github.com/lerian-tools/conformist/internal/catalog"
)

const (
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// valueString renders a single schema-driven value as its string form, used
// for query/header/path parameters (§4.2 value generation).
func (s *Synthesizer) valueString(schema *catalog.Schema) string {
	if schema == nil {
		return s.randomString(1, 20)
	}
	v := s.value(schema)
	switch val := v.(type) {
	case string:
		return val
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// value recursively generates a Go value for schema per §4.2's per-type
// rules, used both for parameter strings and for building JSON bodies.
func (s *Synthesizer) value(schema *catalog.Schema) any {
	if schema == nil {
		return nil
	}
	switch schema.Type {
	case catalog.TypeString:
		return s.stringValue(schema)
	case catalog.TypeInteger:
		return s.integerValue(schema)
	case catalog.TypeNumber:
		return s.numberValue(schema)
	case catalog.TypeBoolean:
		return s.rng.Intn(2) == 1
	case catalog.TypeArray:
		return s.arrayValue(schema)
	case catalog.TypeObject:
		return s.objectValue(schema)
	default:
		return s.stringValue(schema)
	}
}

func (s *Synthesizer) stringValue(schema *catalog.Schema) string {
	if len(schema.Enum) > 0 {
		idx := s.rng.Intn(len(schema.Enum))
		return fmt.Sprint(schema.Enum[idx])
	}
	if v, ok := formatExample(schema.Format, s.rng); ok {
		return v
	}
	if schema.Pattern != "" {
		if v, ok := s.fromPattern(schema.Pattern); ok {
			return v
		}
	}

	minLen := 1
	if schema.MinLength != nil && *schema.MinLength > minLen {
		minLen = *schema.MinLength
	}
	maxLen := 20
	if schema.MaxLength != nil {
		maxLen = *schema.MaxLength
	}
	if maxLen > 50 {
		maxLen = 50
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen
	if maxLen > minLen {
		length += s.rng.Intn(maxLen - minLen + 1)
	}
	return s.randomString(length, length)
}

// formatExample produces a well-formed example for the declared string
// formats §4.2 names explicitly.
func formatExample(format string, rng *rand.Rand) (string, bool) {
	switch format {
	case "email":
		return fmt.Sprintf("user%d@example.com", rng.Intn(100000)), true
	case "date":
		return "2024-01-15", true
	case "date-time":
		return "2024-01-15T10:30:00Z", true
	case "uuid":
		return randomUUID(rng), true
	case "uri":
		return fmt.Sprintf("https://example.com/resource/%d", rng.Intn(100000)), true
	case "password":
		return "Str0ngP@ssw0rd!", true
	default:
		return "", false
	}
}

func randomUUID(rng *rand.Rand) string {
	b := make([]byte, 16)
	rng.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// fromPattern makes a best-effort attempt to produce a string matching
// pattern by walking its parsed regexp AST and picking a literal branch
// where possible; callers fall back to a random string when this fails
// (§4.2: "fall back to random if the approximation fails").
func (s *Synthesizer) fromPattern(pattern string) (string, bool) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", false
	}
	var b strings.Builder
	if !appendApprox(re, &b, s.rng, 0) {
		return "", false
	}
	return b.String(), true
}

func appendApprox(re *syntax.Regexp, b *strings.Builder, rng *rand.Rand, depth int) bool {
	if depth > 20 {
		return false
	}
	switch re.Op {
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			b.WriteRune(r)
		}
		return true
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !appendApprox(sub, b, rng, depth+1) {
				return false
			}
		}
		return true
	case syntax.OpCapture:
		if len(re.Sub) != 1 {
			return false
		}
		return appendApprox(re.Sub[0], b, rng, depth+1)
	case syntax.OpCharClass:
		if len(re.Rune) < 2 {
			return false
		}
		lo, hi := re.Rune[0], re.Rune[1]
		if hi < lo {
			return false
		}
		b.WriteRune(lo + rune(rng.Intn(int(hi-lo+1))))
		return true
	case syntax.OpStar, syntax.OpPlus, syntax.OpRepeat:
		if len(re.Sub) != 1 {
			return false
		}
		n := 1
		if re.Op == syntax.OpStar {
			n = rng.Intn(3)
		}
		if re.Op == syntax.OpRepeat {
			n = re.Min
		}
		for i := 0; i < n; i++ {
			if !appendApprox(re.Sub[0], b, rng, depth+1) {
				return false
			}
		}
		return true
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		b.WriteByte(alphanumeric[rng.Intn(len(alphanumeric))])
		return true
	default:
		return false
	}
}

func (s *Synthesizer) randomString(minLen, maxLen int) string {
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen
	if maxLen > minLen {
		length += s.rng.Intn(maxLen - minLen + 1)
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[s.rng.Intn(len(alphanumeric))]
	}
	return string(b)
}

func (s *Synthesizer) integerValue(schema *catalog.Schema) int64 {
	minV, maxV := int64(1), int64(1000)
	if schema.Minimum != nil {
		minV = int64(*schema.Minimum)
	}
	if schema.Maximum != nil {
		maxV = int64(*schema.Maximum)
	}
	if maxV < minV {
		maxV = minV
	}
	return minV + s.rng.Int63n(maxV-minV+1)
}

func (s *Synthesizer) numberValue(schema *catalog.Schema) float64 {
	minV, maxV := 0.0, 1000.0
	if schema.Minimum != nil {
		minV = *schema.Minimum
	}
	if schema.Maximum != nil {
		maxV = *schema.Maximum
	}
	if maxV < minV {
		maxV = minV
	}
	return minV + s.rng.Float64()*(maxV-minV)
}

func (s *Synthesizer) arrayValue(schema *catalog.Schema) []any {
	n := 1 + s.rng.Intn(3)
	out := make([]any, n)
	for i := range out {
		out[i] = s.value(schema.Items)
	}
	return out
}

func (s *Synthesizer) objectValue(schema *catalog.Schema) map[string]any {
	out := make(map[string]any, len(schema.Properties))
	for name, propSchema := range schema.Properties {
		if schema.RequiredField(name) || s.includeOptional() {
			out[name] = s.value(propSchema)
		}
	}
	return out
}

// jsonValue renders schema as a JSON document (§4.2 step 4: "generate a
// JSON... body").
func (s *Synthesizer) jsonValue(schema *catalog.Schema) string {
	v := s.value(schema)
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

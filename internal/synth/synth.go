// Package synth implements the RequestSynthesizer (§4.2): it builds
// concrete transport.Request values for an Endpoint, drawing parameter
// values from schema constraints and, for identifier-typed path parameters,
// from live identifiers obtained through a state.Source.
package synth

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/observability/logging"
	"github.com/lerian-tools/conformist/internal/state"
	"github.com/lerian-tools/conformist/internal/transport"
)

// Synthesizer builds requests for an endpoint from a seeded randomness
// source (§4.2 "Determinism"): the same seed + catalog + live data yields
// the same sequence of requests.
type Synthesizer struct {
	rng    *rand.Rand
	source state.Source
	log    *logging.EnhancedLogger
}

// New builds a Synthesizer seeded with seed, optionally backed by a
// state.Source for identifier resolution (source may be nil).
func New(seed int64, source state.Source, log *logging.EnhancedLogger) *Synthesizer {
	if log == nil {
		log = logging.New("noop", 0)
	}
	return &Synthesizer{
		rng:    rand.New(rand.NewSource(seed)),
		source: source,
		log:    log.WithComponent("synthesizer"),
	}
}

// Synthesize builds up to k requests for endpoint (§4.2). A request is
// dropped (not returned) when a required path parameter cannot be resolved.
func (s *Synthesizer) Synthesize(ctx context.Context, ep *catalog.Endpoint, k int) []*transport.Request {
	if k <= 0 {
		k = 1
	}
	out := make([]*transport.Request, 0, k)
	for i := 0; i < k; i++ {
		req, ok := s.synthesizeOne(ctx, ep)
		if ok {
			out = append(out, req)
		}
	}
	return out
}

func (s *Synthesizer) synthesizeOne(ctx context.Context, ep *catalog.Endpoint) (*transport.Request, bool) {
	path, ok := s.resolvePath(ctx, ep)
	if !ok {
		return nil, false
	}

	req := &transport.Request{
		Method: string(ep.Method),
		Path:   path,
		Query:  make(map[string][]string),
		Header: make(map[string][]string),
	}

	for _, p := range ep.ParametersIn(catalog.LocationQuery) {
		if !p.Required && !s.includeOptional() {
			continue
		}
		req.Query[p.Name] = []string{s.valueString(p.Schema)}
	}

	for _, p := range ep.ParametersIn(catalog.LocationHeader) {
		if !p.Required && !s.includeOptional() {
			continue
		}
		req.Header[p.Name] = []string{s.valueString(p.Schema)}
	}
	if _, ok := req.Header["User-Agent"]; !ok {
		req.Header["User-Agent"] = []string{"conformist/1.0"}
	}

	if isBodyMethod(ep.Method) {
		if body, ok := ep.PreferredRequestBody(); ok {
			req.Body = s.generateBody(body.Schema, body.MediaType)
			req.MediaType = body.MediaType
		}
	}

	return req, true
}

func isBodyMethod(m catalog.Method) bool {
	return m == catalog.MethodPost || m == catalog.MethodPut || m == catalog.MethodPatch
}

func (s *Synthesizer) generateBody(schema *catalog.Schema, mediaType string) []byte {
	if schema == nil {
		return nil
	}
	if isJSONMediaType(mediaType) {
		return []byte(s.jsonValue(schema))
	}
	// Non-JSON media types (form, multipart, plain text) are rendered as a
	// best-effort string per the schema's primitive value.
	return []byte(s.valueString(schema))
}

func isJSONMediaType(mediaType string) bool {
	mt := strings.ToLower(mediaType)
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// resolvePath fills every {name} segment of ep.PathTemplate, preferring a
// live identifier from state.Source for identifier-typed parameters
// (§4.2 step 1), falling back to schema-driven synthesis.
func (s *Synthesizer) resolvePath(ctx context.Context, ep *catalog.Endpoint) (string, bool) {
	segments := strings.Split(ep.PathTemplate, "/")
	byName := make(map[string]catalog.Parameter)
	for _, p := range ep.ParametersIn(catalog.LocationPath) {
		byName[p.Name] = p
	}

	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
		param, known := byName[name]

		value, ok := s.resolveIdentifier(ctx, name)
		if !ok {
			if known && param.Schema != nil {
				value = s.valueString(param.Schema)
				ok = true
			} else if known {
				value = s.randomString(1, 20)
				ok = true
			}
		}
		if !ok {
			s.log.Warn("dropping request: cannot resolve required path parameter", "endpoint", ep.Key(), "parameter", name)
			return "", false
		}
		segments[i] = value
	}
	return strings.Join(segments, "/"), true
}

// resolveIdentifier attempts to fetch a live key from state.Source for an
// identifier-looking path parameter name (§4.2 step 1).
func (s *Synthesizer) resolveIdentifier(ctx context.Context, paramName string) (string, bool) {
	if s.source == nil || !looksLikeIdentifier(paramName) {
		return "", false
	}
	stem := identifierStem(paramName)
	kinds, err := s.source.EntityKinds(ctx)
	if err != nil {
		return "", false
	}
	kind := matchingKind(kinds, stem)
	if kind == "" {
		return "", false
	}
	key, ok, err := s.source.RandomKey(ctx, kind)
	if err != nil || !ok {
		return "", false
	}
	return fmt.Sprint(key), true
}

func looksLikeIdentifier(name string) bool {
	lower := strings.ToLower(name)
	return lower == "id" || strings.HasSuffix(lower, "id") || strings.Contains(lower, "id")
}

func identifierStem(name string) string {
	lower := strings.ToLower(name)
	lower = strings.TrimSuffix(lower, "id")
	lower = strings.Trim(lower, "_-")
	return lower
}

func matchingKind(kinds []state.EntityKindDescriptor, stem string) string {
	if stem == "" {
		// no stem to match against (parameter was literally "id"); take the
		// first declared kind as a best-effort default.
		if len(kinds) > 0 {
			return kinds[0].Name
		}
		return ""
	}
	for _, k := range kinds {
		if strings.Contains(strings.ToLower(k.Name), stem) {
			return k.Name
		}
	}
	return ""
}

// includeOptional decides whether an optional field/parameter is included,
// at the ~0.7 probability §4.2 specifies for optional JSON object fields
// (reused for optional query/header parameters for the same "realistic but
// not maximal" request shape).
func (s *Synthesizer) includeOptional() bool {
	return s.rng.Float64() < 0.7
}

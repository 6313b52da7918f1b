package property

import (
	"context"
	"strings"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/transport"
)

// HeadGetConsistency implements §4.5.3: a HEAD response must carry no body
// and must agree with a same-URI GET on status code and headers.
type HeadGetConsistency struct{}

func (HeadGetConsistency) Name() string { return "HEAD-GET Response Consistency" }

func (HeadGetConsistency) Description() string {
	return "HEAD and GET responses agree on status and headers."
}

func (HeadGetConsistency) RFCReference() string { return "RFC 7231 §4.3.2" }

func (HeadGetConsistency) Check(ctx context.Context, probe Probe) Result {
	if catalog.Method(probe.Request.Method) != catalog.MethodHead {
		return PassSkipped()
	}
	if ctx.Err() != nil {
		return Cancelled()
	}

	if hasBody(probe.Response) {
		return Fail("HEAD response carried a body", "Content-Length or body bytes present on HEAD response")
	}

	get := &transport.Request{
		Method: string(catalog.MethodGet),
		Path:   probe.Request.Path,
		Query:  probe.Request.Query,
		Header: probe.Request.Header,
	}
	getResp, err := probe.Client.Send(ctx, get)
	if err != nil {
		return Fail("GET probe failed", err.Error())
	}
	if ctx.Err() != nil {
		return Cancelled()
	}

	if probe.Response.StatusCode != getResp.StatusCode {
		return Fail("status codes differ between HEAD and GET", statusPair(probe.Response.StatusCode, getResp.StatusCode))
	}

	diffs := diffHeaders(probe.Response.Header, getResp.Header)
	if len(diffs) > 0 {
		return Fail("response headers differ between HEAD and GET", strings.Join(diffs, "; "))
	}
	return Pass()
}

func hasBody(resp *transport.Response) bool {
	if len(resp.Body) > 0 {
		return true
	}
	if v, ok := resp.HeaderGet("Content-Length"); ok && v != "" && v != "0" {
		return true
	}
	return false
}

// diffHeaders reports, for every header present in either set, a
// human-readable description when the joined values differ (§4.5.3: "diff
// the union of response headers... report every header whose joined values
// differ").
func diffHeaders(a, b map[string][]string) []string {
	seen := make(map[string]struct{})
	for k := range a {
		seen[strings.ToLower(k)] = struct{}{}
	}
	for k := range b {
		seen[strings.ToLower(k)] = struct{}{}
	}

	var diffs []string
	for lower := range seen {
		av := joinedValues(a, lower)
		bv := joinedValues(b, lower)
		if av != bv {
			diffs = append(diffs, lower+": "+av+" != "+bv)
		}
	}
	return diffs
}

func joinedValues(headers map[string][]string, lowerName string) string {
	for k, v := range headers {
		if strings.ToLower(k) == lowerName {
			return strings.Join(v, ",")
		}
	}
	return ""
}

// OptionsAllow implements §4.5.4.
type OptionsAllow struct{}

func (OptionsAllow) Name() string { return "OPTIONS Allow Header" }

func (OptionsAllow) Description() string {
	return "OPTIONS response Allow header matches declared methods."
}

func (OptionsAllow) RFCReference() string { return "RFC 7231 §4.3.7" }

func (OptionsAllow) Check(ctx context.Context, probe Probe) Result {
	if catalog.Method(probe.Request.Method) != catalog.MethodOptions {
		return PassSkipped()
	}
	if ctx.Err() != nil {
		return Cancelled()
	}

	declared := probe.Catalog.MethodsFor(probe.Request.Path)
	declared.Add(catalog.MethodOptions)

	allowHeader, ok := probe.Response.HeaderGet("Allow")
	if !ok || strings.TrimSpace(allowHeader) == "" {
		return Fail("missing Allow header", "")
	}

	got := parseAllow(allowHeader)

	var missing, unexpected []string
	for m := range declared {
		if !got[m] {
			missing = append(missing, string(m))
		}
	}
	for m := range got {
		if !declared.Contains(m) {
			unexpected = append(unexpected, string(m))
		}
	}
	if len(missing) > 0 || len(unexpected) > 0 {
		return Fail("Allow header does not match declared methods", allowDiffDetails(missing, unexpected))
	}
	return Pass()
}

func allowDiffDetails(missing, unexpected []string) string {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing="+strings.Join(missing, ","))
	}
	if len(unexpected) > 0 {
		parts = append(parts, "unexpected="+strings.Join(unexpected, ","))
	}
	return strings.Join(parts, " ")
}

// parseAllow parses a comma-separated, whitespace-tolerant, case-insensitive
// Allow header value (§4.5.4, §8 invariant 7).
func parseAllow(header string) map[catalog.Method]bool {
	out := make(map[catalog.Method]bool)
	for _, part := range strings.Split(header, ",") {
		m := strings.ToUpper(strings.TrimSpace(part))
		if m != "" {
			out[catalog.Method(m)] = true
		}
	}
	return out
}

// MethodNotAllowed implements §4.5.5.
type MethodNotAllowed struct{}

func (MethodNotAllowed) Name() string { return "405 Method Not Allowed Allow Header" }

func (MethodNotAllowed) Description() string {
	return "A 405 response carries an Allow header (content not compared)."
}

func (MethodNotAllowed) RFCReference() string { return "RFC 7231 §6.5.5" }

func (MethodNotAllowed) Check(ctx context.Context, probe Probe) Result {
	if probe.Response.StatusCode != 405 {
		return PassSkipped()
	}
	if ctx.Err() != nil {
		return Cancelled()
	}
	if v, ok := probe.Response.HeaderGet("Allow"); !ok || strings.TrimSpace(v) == "" {
		return Fail("missing Allow header", "")
	}
	return Pass()
}

// Package transport defines the ServiceClient contract conformist drives
// requests through (§4.8), the Request/Response value types, and a default
// net/http-based client plus cloning helpers (§9: bodies must be
// materialized once so a clone is independently resendable).
package transport

import (
	"maps"
	"net/url"
	"strings"
)

// Request is one concrete HTTP request the orchestrator sends (§3). Bodies
// are always owned byte buffers, never a live stream, so Clone never
// consumes anything.
type Request struct {
	Method string
	Path   string // absolute path, no query string
	Query  url.Values
	Header map[string][]string
	Body   []byte
	// MediaType is the Content-Type to set when Body is non-empty.
	MediaType string
}

// Clone returns an independently consumable copy of r: header/query maps and
// the body buffer are deep-copied so sending the clone cannot mutate r, and
// reading the clone's body cannot interfere with resending r (§9, invariant
// 2: body cloneability).
func (r *Request) Clone() *Request {
	clone := &Request{
		Method:    r.Method,
		Path:      r.Path,
		MediaType: r.MediaType,
	}
	if r.Query != nil {
		clone.Query = maps.Clone(r.Query)
	}
	if r.Header != nil {
		clone.Header = make(map[string][]string, len(r.Header))
		for k, v := range r.Header {
			clone.Header[k] = append([]string(nil), v...)
		}
	}
	if r.Body != nil {
		clone.Body = append([]byte(nil), r.Body...)
	}
	return clone
}

// HeaderGet returns the first value of the named header, matched
// case-insensitively (headers are stored as synthesized).
func (r *Request) HeaderGet(name string) (string, bool) {
	for k, v := range r.Header {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0], true
		}
	}
	return "", false
}

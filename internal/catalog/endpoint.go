package catalog

import "strings"

// Location is where a Parameter is found on the wire (§3).
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationCookie Location = "cookie"
)

// Parameter is one declared input to an endpoint. Path parameters are always
// required (§3 invariant); name uniqueness per (endpoint, location) is
// enforced while building the catalog.
type Parameter struct {
	Name     string
	Location Location
	Required bool
	Schema   *Schema
	Example  any
}

// RequestBody describes one accepted media type for POST/PUT/PATCH bodies.
type RequestBody struct {
	MediaType string
	Schema    *Schema
	Required  bool
}

// Response describes the schema declared for one status code.
type Response struct {
	StatusCode int
	MediaType  string
	Schema     *Schema
}

// Method is an HTTP method string, kept as a named type so catalog code
// reads as intent rather than loose strings.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
)

// Endpoint is a (method, path template) pair with its associated schemas
// (§3). Endpoints are built once by EndpointCatalog.Load and are immutable
// afterwards; synthesizer and property code only ever read them.
type Endpoint struct {
	PathTemplate string
	Method       Method

	// Parameters preserves declaration order for synthesis (§4.1).
	Parameters []Parameter

	// RequestBodies is empty for methods that never carry a body.
	RequestBodies []RequestBody

	// Responses maps status code to its declared schema; it may be empty if
	// the document declared no responses for this operation.
	Responses map[int]Response

	OperationID string
	Summary     string
}

// Key uniquely identifies an endpoint within a catalog (§3: path+method unique).
func (e *Endpoint) Key() string {
	return string(e.Method) + " " + e.PathTemplate
}

// ParametersIn returns only the parameters declared at the given location,
// preserving declaration order.
func (e *Endpoint) ParametersIn(loc Location) []Parameter {
	var out []Parameter
	for _, p := range e.Parameters {
		if p.Location == loc {
			out = append(out, p)
		}
	}
	return out
}

// PreferredRequestBody returns the body to synthesize against, preferring
// JSON when it is one of the declared media types (§4.2).
func (e *Endpoint) PreferredRequestBody() (RequestBody, bool) {
	if len(e.RequestBodies) == 0 {
		return RequestBody{}, false
	}
	for _, rb := range e.RequestBodies {
		if isJSONMediaType(rb.MediaType) {
			return rb, true
		}
	}
	return e.RequestBodies[0], true
}

func isJSONMediaType(mediaType string) bool {
	mt := strings.ToLower(mediaType)
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// MethodSet is the set of methods declared for one path; the catalog builds
// one per path template when grouping endpoints by path.
type MethodSet map[Method]struct{}

func (m MethodSet) Add(method Method) { m[method] = struct{}{} }

func (m MethodSet) Contains(method Method) bool {
	_, ok := m[method]
	return ok
}

// Sorted returns the methods in a stable, conventional HTTP order.
func (m MethodSet) Sorted() []Method {
	order := []Method{MethodGet, MethodHead, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodOptions}
	var out []Method
	for _, meth := range order {
		if m.Contains(meth) {
			out = append(out, meth)
		}
	}
	return out
}

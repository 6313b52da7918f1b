// Package catalog normalizes an OpenAPI 3.x document into the flat
// Endpoint/Parameter/Schema model the rest of conformist operates on (§3,
// §4.1). Everything downstream — synthesis, property evaluation, reporting —
// reads the Catalog and never touches kin-openapi directly.
package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/lerian-tools/conformist/internal/conformerr"
	"github.com/lerian-tools/conformist/internal/observability/logging"
)

// Catalog is the closed, immutable set of endpoints extracted from one
// OpenAPI document (§3 invariant: path+method pairs are unique).
type Catalog struct {
	endpoints []*Endpoint
	byPath    map[string]MethodSet
}

// Load parses raw OpenAPI document bytes (JSON or YAML) and builds a
// Catalog. Operations that fail to convert are logged and skipped rather
// than aborting the whole load, matching the best-effort recovery the
// CatalogLoadError semantics call for (§7); the returned error is non-nil
// only when the document itself cannot be parsed at all or yields no usable
// operation.
func Load(data []byte, log *logging.EnhancedLogger) (*Catalog, error) {
	if log == nil {
		log = logging.New("noop", 0)
	}
	log = log.WithComponent("catalog")

	jsonData, err := normalizeToJSON(data)
	if err != nil {
		return nil, conformerr.CatalogLoad("catalog", "decode document", err)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromData(jsonData)
	if err != nil {
		return nil, conformerr.CatalogLoad("catalog", "parse openapi document", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		log.Warn("document failed strict validation, continuing best-effort", "error", err)
	}

	c := &Catalog{byPath: make(map[string]MethodSet)}

	if doc.Paths != nil {
		pathItems := doc.Paths.Map()
		paths := make([]string, 0, len(pathItems))
		for path := range pathItems {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			item := pathItems[path]
			if item == nil {
				continue
			}
			for _, ep := range parsePathItem(path, item, log) {
				c.add(ep)
			}
		}
	}

	if len(c.endpoints) == 0 {
		return nil, conformerr.CatalogLoad("catalog", "build catalog", fmt.Errorf("document declares no usable operations"))
	}

	return c, nil
}

// LoadFile reads path and calls Load.
func LoadFile(path string, log *logging.EnhancedLogger) (*Catalog, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, conformerr.CatalogLoad("catalog", "read file "+path, err)
	}
	return Load(data, log)
}

func (c *Catalog) add(ep *Endpoint) {
	c.endpoints = append(c.endpoints, ep)
	set, ok := c.byPath[ep.PathTemplate]
	if !ok {
		set = make(MethodSet)
		c.byPath[ep.PathTemplate] = set
	}
	set.Add(ep.Method)
}

// All returns every endpoint, ordered by path template and then by method
// name (Load sorts both; the document's own declaration order is not kept).
func (c *Catalog) All() []*Endpoint {
	out := make([]*Endpoint, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// Find returns the endpoint declared for (method, pathTemplate), if any.
func (c *Catalog) Find(method Method, pathTemplate string) (*Endpoint, bool) {
	for _, ep := range c.endpoints {
		if ep.Method == method && ep.PathTemplate == pathTemplate {
			return ep, true
		}
	}
	return nil, false
}

// MethodsFor returns the set of methods declared against the template whose
// shape matches concretePath (§4.1 TemplateMatch), used by the OPTIONS
// Allow-header property (§4.5.4).
func (c *Catalog) MethodsFor(concretePath string) MethodSet {
	out := make(MethodSet)
	for template, methods := range c.byPath {
		if TemplateMatch(template, concretePath) {
			for m := range methods {
				out.Add(m)
			}
		}
	}
	return out
}

// Matches returns every endpoint whose path template matches concretePath,
// regardless of method.
func (c *Catalog) Matches(concretePath string) []*Endpoint {
	var out []*Endpoint
	for _, ep := range c.endpoints {
		if TemplateMatch(ep.PathTemplate, concretePath) {
			out = append(out, ep)
		}
	}
	return out
}

func parsePathItem(path string, item *openapi3.PathItem, log *logging.EnhancedLogger) []*Endpoint {
	pathParams := parseParameters(item.Parameters)

	operations := map[Method]*openapi3.Operation{
		MethodGet:     item.Get,
		MethodHead:    item.Head,
		MethodOptions: item.Options,
		MethodPost:    item.Post,
		MethodPut:     item.Put,
		MethodPatch:   item.Patch,
		MethodDelete:  item.Delete,
	}

	methods := make([]Method, 0, len(operations))
	for m := range operations {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })

	var endpoints []*Endpoint
	for _, method := range methods {
		op := operations[method]
		if op == nil {
			continue
		}
		ep, err := parseOperation(path, method, op, pathParams)
		if err != nil {
			log.Warn("skipping operation that failed to convert",
				"path", path, "method", string(method), "error", err)
			continue
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints
}

func parseOperation(path string, method Method, op *openapi3.Operation, pathParams []Parameter) (*Endpoint, error) {
	ep := &Endpoint{
		PathTemplate: path,
		Method:       method,
		OperationID:  op.OperationID,
		Summary:      op.Summary,
		Responses:    make(map[int]Response),
	}

	opParams := parseParameters(op.Parameters)
	ep.Parameters = mergeParameters(pathParams, opParams)

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		ep.RequestBodies = parseRequestBody(op.RequestBody.Value)
	}

	if op.Responses != nil {
		for code, respRef := range op.Responses.Map() {
			if respRef == nil || respRef.Value == nil {
				continue
			}
			statusCode, err := statusCodeOf(code)
			if err != nil {
				continue
			}
			ep.Responses[statusCode] = convertResponse(statusCode, respRef.Value)
		}
	}

	return ep, nil
}

func statusCodeOf(key string) (int, error) {
	if key == "default" {
		return 0, fmt.Errorf("default response has no fixed status code")
	}
	return strconv.Atoi(key)
}

func convertResponse(statusCode int, resp *openapi3.Response) Response {
	out := Response{StatusCode: statusCode}
	for mediaType, media := range resp.Content {
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		out.MediaType = mediaType
		out.Schema = convertSchema(media.Schema.Value, 0)
		if isJSONMediaType(mediaType) {
			break
		}
	}
	return out
}

func parseParameters(params openapi3.Parameters) []Parameter {
	var out []Parameter
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		param := Parameter{
			Name:     p.Name,
			Location: Location(p.In),
			Required: p.Required,
		}
		if p.Schema != nil && p.Schema.Value != nil {
			param.Schema = convertSchema(p.Schema.Value, 0)
			param.Example = p.Schema.Value.Example
		}
		if param.Location == LocationPath {
			param.Required = true
		}
		out = append(out, param)
	}
	return out
}

// mergeParameters combines path-item-level parameters with operation-level
// ones; an operation-level parameter with the same (name, location) wins.
func mergeParameters(pathParams, opParams []Parameter) []Parameter {
	seen := make(map[string]struct{}, len(opParams))
	for _, p := range opParams {
		seen[string(p.Location)+"/"+p.Name] = struct{}{}
	}
	out := make([]Parameter, 0, len(pathParams)+len(opParams))
	for _, p := range pathParams {
		if _, dup := seen[string(p.Location)+"/"+p.Name]; dup {
			continue
		}
		out = append(out, p)
	}
	out = append(out, opParams...)
	return out
}

func parseRequestBody(body *openapi3.RequestBody) []RequestBody {
	var out []RequestBody
	for mediaType, media := range body.Content {
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		out = append(out, RequestBody{
			MediaType: mediaType,
			Schema:    convertSchema(media.Schema.Value, 0),
			Required:  body.Required,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if isJSONMediaType(out[i].MediaType) != isJSONMediaType(out[j].MediaType) {
			return isJSONMediaType(out[i].MediaType)
		}
		return out[i].MediaType < out[j].MediaType
	})
	return out
}

const maxSchemaDepth = 20

func convertSchema(schema *openapi3.Schema, depth int) *Schema {
	if schema == nil || depth > maxSchemaDepth {
		return nil
	}

	s := &Schema{
		Type:        schemaType(schema),
		Format:      schema.Format,
		Pattern:     schema.Pattern,
		Example:     schema.Example,
		Description: schema.Description,
		Required:    schema.Required,
	}
	if len(schema.Enum) > 0 {
		s.Enum = schema.Enum
	}
	if schema.Min != nil {
		s.Minimum = schema.Min
	}
	if schema.Max != nil {
		s.Maximum = schema.Max
	}
	if schema.MinLength > 0 {
		minLen := int(schema.MinLength)
		s.MinLength = &minLen
	}
	if schema.MaxLength != nil {
		maxLen := int(*schema.MaxLength)
		s.MaxLength = &maxLen
	}
	if schema.Items != nil && schema.Items.Value != nil {
		s.Items = convertSchema(schema.Items.Value, depth+1)
	}
	if len(schema.Properties) > 0 {
		s.Properties = make(map[string]*Schema, len(schema.Properties))
		for name, ref := range schema.Properties {
			if ref != nil && ref.Value != nil {
				s.Properties[name] = convertSchema(ref.Value, depth+1)
			}
		}
	}
	if len(schema.AllOf) > 0 {
		mergeAllOf(s, schema.AllOf, depth)
	}
	return s
}

// mergeAllOf folds allOf branches' properties/required into s, the way a
// single flattened object schema would read (§4.2 treats allOf as a plain
// object for generation purposes).
func mergeAllOf(s *Schema, allOf openapi3.SchemaRefs, depth int) {
	if s.Properties == nil {
		s.Properties = make(map[string]*Schema)
	}
	if s.Type == "" {
		s.Type = TypeObject
	}
	for _, ref := range allOf {
		if ref == nil || ref.Value == nil {
			continue
		}
		sub := convertSchema(ref.Value, depth+1)
		if sub == nil {
			continue
		}
		for name, prop := range sub.Properties {
			s.Properties[name] = prop
		}
		s.Required = append(s.Required, sub.Required...)
	}
}

func schemaType(schema *openapi3.Schema) Type {
	if schema == nil || schema.Type == nil {
		return ""
	}
	types := schema.Type.Slice()
	if len(types) == 0 {
		return ""
	}
	return Type(types[0])
}

// normalizeToJSON lets callers hand Load either JSON or YAML bytes; YAML is
// decoded generically and re-encoded so kin-openapi only ever sees JSON.
func normalizeToJSON(data []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return data, nil
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return jsonMarshal(normalizeYAMLValue(generic))
}

// normalizeYAMLValue converts map[string]any keys that yaml.v3 may decode as
// map[any]any-equivalent nested structures into plain map[string]any so
// encoding/json can marshal them.
func normalizeYAMLValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizeYAMLValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeYAMLValue(inner)
		}
		return out
	default:
		return val
	}
}

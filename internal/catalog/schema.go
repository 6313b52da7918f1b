package catalog

// Type enumerates the primitive and structural schema kinds the
// synthesizer knows how to generate values for (§3 Schema).
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema is the normalized, immutable value-constraint tree the synthesizer
// consumes. It deliberately carries only what §4.2's value generation rules
// need, not the full OpenAPI schema object model.
type Schema struct {
	Type Type

	// Ref is a slot for the originating $ref component name, for diagnostics
	// only. Load leaves it empty: kin-openapi has already resolved the
	// reference by the time a Schema is built, and the name is not copied.
	Ref string

	Format      string
	Pattern     string
	Enum        []any
	Example     any
	Description string

	MinLength *int
	MaxLength *int
	Minimum   *float64
	Maximum   *float64

	// Items describes the element schema for TypeArray.
	Items *Schema

	// Properties and Required describe TypeObject fields. Required field
	// names must appear in Properties (§3 invariant).
	Properties map[string]*Schema
	Required   []string
}

// RequiredField reports whether name is a required field of an object schema.
func (s *Schema) RequiredField(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

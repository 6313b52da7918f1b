package property

import (
	"context"
	"fmt"

	"github.com/lerian-tools/conformist/internal/catalog"
)

// Assertion evaluates a custom business rule against one probe (§4.6).
type Assertion func(req Probe) (bool, error)

// CustomProperty is an immutable user-defined rule assembled by
// CustomPropertyBuilder (§4.6).
type CustomProperty struct {
	name             string
	reason           string
	endpointPatterns []string
	methods          catalog.MethodSet
	predicates       []func(Probe) bool
	assertion        Assertion
}

func (c CustomProperty) Name() string         { return c.name }
func (c CustomProperty) Description() string  { return c.reason }
func (c CustomProperty) RFCReference() string { return "" }

func (c CustomProperty) Check(ctx context.Context, probe Probe) Result {
	if ctx.Err() != nil {
		return Cancelled()
	}
	if len(c.methods) > 0 && !c.methods.Contains(catalog.Method(probe.Request.Method)) {
		return PassSkipped()
	}
	if len(c.endpointPatterns) > 0 && !catalog.AnyGlobMatch(c.endpointPatterns, probe.Request.Path) {
		return PassSkipped()
	}
	for _, pred := range c.predicates {
		if !pred(probe) {
			return PassSkipped()
		}
	}

	ok, err := c.assertion(probe)
	if err != nil {
		return Fail(c.reason, err.Error())
	}
	if !ok {
		return Fail(c.reason, "")
	}
	return Pass()
}

// CustomPropertyBuilder assembles a CustomProperty (§4.6).
type CustomPropertyBuilder struct {
	prop CustomProperty
}

// NewCustomProperty starts a builder for a rule named name, with reason used
// as both description and failure context.
func NewCustomProperty(name, reason string) *CustomPropertyBuilder {
	return &CustomPropertyBuilder{prop: CustomProperty{name: name, reason: reason}}
}

// ForPaths restricts the rule to requests whose path matches any of
// patterns (glob syntax, §4.6); an empty call leaves it applying everywhere.
func (b *CustomPropertyBuilder) ForPaths(patterns ...string) *CustomPropertyBuilder {
	b.prop.endpointPatterns = patterns
	return b
}

// ForMethods restricts the rule to the given HTTP methods.
func (b *CustomPropertyBuilder) ForMethods(methods ...catalog.Method) *CustomPropertyBuilder {
	set := make(catalog.MethodSet, len(methods))
	for _, m := range methods {
		set.Add(m)
	}
	b.prop.methods = set
	return b
}

// When adds a predicate; all predicates must hold for the assertion to run.
func (b *CustomPropertyBuilder) When(pred func(Probe) bool) *CustomPropertyBuilder {
	b.prop.predicates = append(b.prop.predicates, pred)
	return b
}

// Assert sets the mandatory assertion and builds the CustomProperty.
func (b *CustomPropertyBuilder) Assert(assertion Assertion) (CustomProperty, error) {
	if assertion == nil {
		return CustomProperty{}, fmt.Errorf("property: custom property %q requires an assertion", b.prop.name)
	}
	b.prop.assertion = assertion
	return b.prop, nil
}

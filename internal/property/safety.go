package property

import (
	"context"

	"github.com/lerian-tools/conformist/internal/catalog"
)

// safetyMethods is the GET/HEAD/OPTIONS method set §4.5.1 targets; each
// gets its own named Property so the identity table (§6) has a distinct
// name/RFC pair per method.
var safetyMethods = map[catalog.Method]struct {
	name string
	rfc  string
}{
	catalog.MethodGet:     {"GET Method Safety", "RFC 7231 §4.2.1"},
	catalog.MethodHead:    {"HEAD Method Safety", "RFC 7231 §4.2.1"},
	catalog.MethodOptions: {"OPTIONS Method Safety", "RFC 7231 §4.2.1"},
}

// safetyMethodOrder fixes the iteration order NewSafetyProperties uses.
// Ranging over safetyMethods directly would make the Safety properties'
// relative position in BuiltIns (and therefore in PropertyResults) vary
// across runs, even though report consumers index into that slice.
var safetyMethodOrder = []catalog.Method{
	catalog.MethodGet,
	catalog.MethodHead,
	catalog.MethodOptions,
}

// Safety implements §4.5.1: the request's method must leave observable
// state unchanged. Per §9's documented open question, "before" is sampled
// after the orchestrator has already sent the triggering request — this
// property therefore measures post-request drift between two samples
// rather than a true pre/post difference, faithfully reproducing the
// source's behavior.
type Safety struct {
	Method catalog.Method
}

func NewSafetyProperties() []Property {
	out := make([]Property, 0, len(safetyMethodOrder))
	for _, m := range safetyMethodOrder {
		out = append(out, Safety{Method: m})
	}
	return out
}

func (p Safety) Name() string { return safetyMethods[p.Method].name }

func (p Safety) Description() string {
	return "No observable state change as a consequence of the request."
}

func (p Safety) RFCReference() string { return safetyMethods[p.Method].rfc }

func (p Safety) Check(ctx context.Context, probe Probe) Result {
	if catalog.Method(probe.Request.Method) != p.Method {
		return PassSkipped()
	}
	if ctx.Err() != nil {
		return Cancelled()
	}

	before, err := probe.Sampler.Capture(ctx)
	if err != nil {
		return Fail("sampling unavailable", err.Error())
	}
	if ctx.Err() != nil {
		return Cancelled()
	}
	after, err := probe.Sampler.Capture(ctx)
	if err != nil {
		return Fail("sampling unavailable", err.Error())
	}

	diff := before.Diff(after)
	if diff.HasChanges() {
		return Fail("observed state change after a safe method", diff.Summary())
	}
	return Pass()
}

// Package property implements the PropertyKit built-in properties (§4.5)
// and the CustomProperty builder (§4.6). A Property is a pure predicate
// over (Request, Response, collaborators) producing a Result.
package property

import (
	"context"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/state"
	"github.com/lerian-tools/conformist/internal/transport"
)

// Result is the outcome of one property check (§3).
type Result struct {
	Passed        bool
	FailureReason string
	Details       string
	Metrics       map[string]float64
}

// Pass builds a passing Result.
func Pass() Result { return Result{Passed: true} }

// PassSkipped builds the "N/A" passing result §4.5 requires when a
// property's target method/status does not match the probe.
func PassSkipped() Result { return Result{Passed: true, Details: "N/A"} }

// Fail builds a failing Result with reason and optional details.
func Fail(reason, details string) Result {
	return Result{Passed: false, FailureReason: reason, Details: details}
}

// Cancelled builds the uniform cancellation failure (§7).
func Cancelled() Result {
	return Result{Passed: false, FailureReason: "cancelled"}
}

// Probe is the pre-invocation context PropertyEngine hands to every
// property: the request/response pair plus every collaborator a property
// may re-enter (§9 capability set: inspectRequest, inspectResponse,
// probeServiceAgain, sampleState).
type Probe struct {
	Request  *transport.Request
	Response *transport.Response
	Client   transport.ServiceClient
	Source   state.Source
	Catalog  *catalog.Catalog
	Sampler  Sampler
}

// Sampler is the narrow slice of state.Sampler a property needs; declared
// here as an interface so tests can substitute a fake sampler.
type Sampler interface {
	Capture(ctx context.Context) (*state.Snapshot, error)
}

// Property is the shared interface built-in and custom properties both
// satisfy (§9: "the engine only needs a check operation").
type Property interface {
	Name() string
	Description() string
	RFCReference() string
	Check(ctx context.Context, p Probe) Result
}

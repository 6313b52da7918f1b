// Package orchestrator implements runAll (§4.8): it synthesizes requests
// for every catalog endpoint, sends them through a ServiceClient, and
// evaluates every response with a PropertyEngine, one endpoint at a time
// unless EndpointConcurrency is set.
package orchestrator

import (
	"context"
	"sync"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/conformerr"
	"github.com/lerian-tools/conformist/internal/engine"
	"github.com/lerian-tools/conformist/internal/observability/logging"
	"github.com/lerian-tools/conformist/internal/property"
	"github.com/lerian-tools/conformist/internal/report"
	"github.com/lerian-tools/conformist/internal/state"
	"github.com/lerian-tools/conformist/internal/synth"
	"github.com/lerian-tools/conformist/internal/transport"
)

// Sampler is the capability Orchestrator needs from a state.Sampler.
type Sampler interface {
	Capture(ctx context.Context) (*state.Snapshot, error)
}

// Orchestrator wires a catalog, a request synthesizer, a service client, a
// state sampler, and a property engine into full conformance runs (§4.8).
type Orchestrator struct {
	Catalog        *catalog.Catalog
	Synthesizer    *synth.Synthesizer
	Client         transport.ServiceClient
	Source         state.Source
	Sampler        Sampler
	Engine         *engine.Engine
	MaxPerEndpoint int
	Log            *logging.EnhancedLogger

	// EndpointConcurrency, when true, lets RunAll drive distinct endpoints'
	// requests concurrently (§5); per-endpoint concurrency is always 1, so
	// property causality within one endpoint's own requests is unaffected.
	EndpointConcurrency bool
}

// New builds an Orchestrator. maxPerEndpoint bounds how many requests are
// synthesized per endpoint (§4.2); it is clamped to at least 1.
func New(cat *catalog.Catalog, synthesizer *synth.Synthesizer, client transport.ServiceClient, source state.Source, sampler Sampler, eng *engine.Engine, maxPerEndpoint int, log *logging.EnhancedLogger) *Orchestrator {
	if maxPerEndpoint <= 0 {
		maxPerEndpoint = 1
	}
	if log == nil {
		log = logging.New("noop", 0)
	}
	return &Orchestrator{
		Catalog:        cat,
		Synthesizer:    synthesizer,
		Client:         client,
		Source:         source,
		Sampler:        sampler,
		Engine:         eng,
		MaxPerEndpoint: maxPerEndpoint,
		Log:            log.WithComponent("orchestrator"),
	}
}

// RunAll synthesizes, sends, and evaluates requests for every catalog
// endpoint. Per-endpoint concurrency is always 1 to preserve state causality
// within an endpoint's own requests; cancellation is observed between
// endpoints and, best-effort, between requests within one endpoint.
//
// When EndpointConcurrency is false (the default), endpoints run in
// catalog order (Catalog.All), one at a time. When true, distinct endpoints run
// concurrently (§5: "the orchestrator MAY run distinct endpoints in
// parallel when the operator opts in") — across-endpoint ordering is then
// unspecified, matching §5's "across endpoints no ordering is guaranteed".
func (o *Orchestrator) RunAll(ctx context.Context) []report.RequestReport {
	endpoints := o.Catalog.All()
	if !o.EndpointConcurrency {
		var results []report.RequestReport
		for _, ep := range endpoints {
			if ctx.Err() != nil {
				o.Log.Warn("run cancelled before endpoint completed", "endpoint", ep.Key())
				break
			}
			results = append(results, o.runEndpoint(ctx, ep)...)
		}
		return results
	}
	return o.runAllConcurrent(ctx, endpoints)
}

// runAllConcurrent drives every endpoint on its own goroutine. Each
// goroutine still runs its own requests sequentially via runEndpoint, so
// property causality within one endpoint is preserved; only the across-
// endpoint scheduling becomes concurrent.
func (o *Orchestrator) runAllConcurrent(ctx context.Context, endpoints []*catalog.Endpoint) []report.RequestReport {
	perEndpoint := make([][]report.RequestReport, len(endpoints))
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		if ctx.Err() != nil {
			break
		}
		i, ep := i, ep
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			perEndpoint[i] = o.runEndpoint(ctx, ep)
		}()
	}
	wg.Wait()

	var results []report.RequestReport
	for _, rs := range perEndpoint {
		results = append(results, rs...)
	}
	return results
}

func (o *Orchestrator) runEndpoint(ctx context.Context, ep *catalog.Endpoint) []report.RequestReport {
	requests := o.Synthesizer.Synthesize(ctx, ep, o.MaxPerEndpoint)
	results := make([]report.RequestReport, 0, len(requests))

	for _, req := range requests {
		if ctx.Err() != nil {
			break
		}
		results = append(results, o.runOne(ctx, ep, req))
	}
	return results
}

// runOne sends one request and evaluates it. A transport failure still
// produces a RequestReport (§4.8: "a failed send is itself a conformance
// finding, not a crash") — recorded as status 500 per §4.8's downstream
// sorting convention for send failures.
func (o *Orchestrator) runOne(ctx context.Context, ep *catalog.Endpoint, req *transport.Request) report.RequestReport {
	resp, err := o.Client.Send(ctx, req)
	if err != nil {
		o.Log.Warn("request send failed", "endpoint", ep.Key(), "path", req.Path, "error", err)
		return o.requestFailedReport(req, conformerr.Transport("orchestrator", "send failed", err))
	}

	probe := property.Probe{
		Client:  o.Client,
		Source:  o.Source,
		Catalog: o.Catalog,
		Sampler: o.Sampler,
	}
	return o.Engine.Evaluate(ctx, req, resp, probe)
}

func (o *Orchestrator) requestFailedReport(req *transport.Request, cause error) report.RequestReport {
	return report.RequestReport{
		RequestMethod:      req.Method,
		RequestPath:        req.Path,
		ResponseStatusCode: 500,
		OverallPassed:      false,
		TotalProperties:    1,
		PassedProperties:   0,
		FailedProperties:   1,
		PropertyResults: []report.PropertyResult{{
			PropertyName:  "Request Transport",
			FailureReason: "request could not be sent",
			Details:       cause.Error(),
		}},
	}
}

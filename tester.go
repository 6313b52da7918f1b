package conformist

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/engine"
	"github.com/lerian-tools/conformist/internal/orchestrator"
	"github.com/lerian-tools/conformist/internal/property"
	"github.com/lerian-tools/conformist/internal/report"
	"github.com/lerian-tools/conformist/internal/transport"
)

// Tester is the built conformance runner a Builder produces (§6): it can
// run every catalog endpoint (RunAll) or check one caller-supplied request
// directly (CheckRequest), reusing the same PropertyEngine either way.
type Tester struct {
	catalog      *catalog.Catalog
	properties   []property.Property
	engine       *engine.Engine
	orchestrator *orchestrator.Orchestrator
}

// RunAll synthesizes and evaluates requests for every endpoint in the
// catalog (§4.8, §6).
func (t *Tester) RunAll(ctx context.Context) []report.RequestReport {
	return t.orchestrator.RunAll(ctx)
}

// CheckRequest sends req through the orchestrator's client and evaluates
// the response with the same PropertyEngine RunAll uses, without going
// through the synthesizer (§6 checkRequest: a supplemented entry point for
// driving one hand-built request through the full property suite).
func (t *Tester) CheckRequest(ctx context.Context, req *transport.Request) report.RequestReport {
	if ctx.Err() != nil {
		return report.RequestReport{
			ID:                 uuid.NewString(),
			RequestMethod:      req.Method,
			RequestPath:        req.Path,
			ResponseStatusCode: 500,
			TotalProperties:    1,
			FailedProperties:   1,
			PropertyResults: []report.PropertyResult{{
				PropertyName:  "Request Transport",
				FailureReason: "cancelled",
			}},
		}
	}

	start := time.Now()
	resp, err := t.orchestrator.Client.Send(ctx, req)
	if err != nil {
		return report.RequestReport{
			ID:                 uuid.NewString(),
			RequestMethod:      req.Method,
			RequestPath:        req.Path,
			ResponseStatusCode: 500,
			TotalProperties:    1,
			FailedProperties:   1,
			ExecutionTimeMs:    float64(time.Since(start).Microseconds()) / 1000.0,
			PropertyResults: []report.PropertyResult{{
				PropertyName:  "Request Transport",
				FailureReason: "request could not be sent",
				Details:       err.Error(),
			}},
		}
	}

	probe := property.Probe{
		Client:  t.orchestrator.Client,
		Source:  t.orchestrator.Source,
		Catalog: t.catalog,
		Sampler: t.orchestrator.Sampler,
	}
	return t.engine.Evaluate(ctx, req, resp, probe)
}

// Endpoints returns every endpoint the Tester was built against (§6).
func (t *Tester) Endpoints() []*catalog.Endpoint {
	return t.catalog.All()
}

// Properties returns every property the Tester will run, in order (§6).
func (t *Tester) Properties() []property.Property {
	return t.properties
}

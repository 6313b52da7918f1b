// Package engine implements PropertyEngine (§4.7): it evaluates every
// applicable property against one (request, response) pair and folds the
// results into a report.RequestReport.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lerian-tools/conformist/internal/property"
	"github.com/lerian-tools/conformist/internal/report"
	"github.com/lerian-tools/conformist/internal/transport"
)

// Engine evaluates a fixed set of properties against each probe it is
// handed. Properties run sequentially "to preserve state causality" (§4.7):
// a PUT idempotency check resends the request and resamples state, and a
// concurrently-running sibling property would observe a moving target.
type Engine struct {
	Properties []property.Property
}

// New builds an Engine over the given properties, in the order they should
// run and be reported.
func New(properties []property.Property) *Engine {
	return &Engine{Properties: properties}
}

// Evaluate runs every property against probe and returns the aggregated
// report for this one request/response pair (§4.7).
func (e *Engine) Evaluate(ctx context.Context, req *transport.Request, resp *transport.Response, probe property.Probe) report.RequestReport {
	start := time.Now()

	probe.Request = req
	probe.Response = resp

	results := make([]report.PropertyResult, 0, len(e.Properties))
	passed := 0
	for _, p := range e.Properties {
		propStart := time.Now()
		result := e.checkOne(ctx, p, probe)
		elapsed := time.Since(propStart)

		if result.Passed {
			passed++
		}
		results = append(results, report.PropertyResult{
			PropertyName:        p.Name(),
			PropertyDescription: p.Description(),
			RFCReference:        p.RFCReference(),
			Passed:              result.Passed,
			FailureReason:       result.FailureReason,
			Details:             result.Details,
			ExecutionTimeMs:     float64(elapsed.Microseconds()) / 1000.0,
			Metrics:             result.Metrics,
		})
	}

	return report.RequestReport{
		ID:                 uuid.NewString(),
		RequestMethod:      req.Method,
		RequestPath:        req.Path,
		ResponseStatusCode: resp.StatusCode,
		OverallPassed:      passed == len(results),
		TotalProperties:    len(results),
		PassedProperties:   passed,
		FailedProperties:   len(results) - passed,
		ExecutionTimeMs:    float64(time.Since(start).Microseconds()) / 1000.0,
		PropertyResults:    results,
	}
}

// checkOne isolates p.Check so a panicking or erroring property degrades to
// a Fail result rather than aborting the whole evaluation (§4.7: "an
// unexpected error during a check becomes a failing result, not a crashed
// run").
func (e *Engine) checkOne(ctx context.Context, p property.Property, probe property.Probe) (result property.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = property.Fail("property check panicked", panicDetails(r))
		}
	}()
	return p.Check(ctx, probe)
}

func panicDetails(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "panic: recovered non-error value"
}

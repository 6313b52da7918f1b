package property

import (
	"context"
	"strconv"

	"github.com/lerian-tools/conformist/internal/catalog"
)

// Idempotency implements §4.5.2 for PUT and DELETE: resending the same
// request must yield the same observable state as sending it once.
type Idempotency struct {
	Method catalog.Method
}

func NewIdempotencyProperties() []Property {
	return []Property{
		Idempotency{Method: catalog.MethodPut},
		Idempotency{Method: catalog.MethodDelete},
	}
}

func (p Idempotency) Name() string {
	if p.Method == catalog.MethodPut {
		return "PUT Method Idempotency"
	}
	return "DELETE Method Idempotency"
}

func (p Idempotency) Description() string {
	return "Two identical requests yield the same observable state as one."
}

func (p Idempotency) RFCReference() string { return "RFC 7231 §4.2.2" }

func (p Idempotency) Check(ctx context.Context, probe Probe) Result {
	if catalog.Method(probe.Request.Method) != p.Method {
		return PassSkipped()
	}
	if p.Method == catalog.MethodPut && !is2xx(probe.Response.StatusCode) {
		return PassSkipped()
	}
	if ctx.Err() != nil {
		return Cancelled()
	}

	before, err := probe.Sampler.Capture(ctx)
	if err != nil {
		return Fail("sampling unavailable", err.Error())
	}

	clone := probe.Request.Clone()
	second, err := probe.Client.Send(ctx, clone)
	if err != nil {
		return Fail("resend failed", err.Error())
	}
	if ctx.Err() != nil {
		return Cancelled()
	}

	after, err := probe.Sampler.Capture(ctx)
	if err != nil {
		return Fail("sampling unavailable", err.Error())
	}

	if diff := before.Diff(after); diff.HasChanges() {
		return Fail("second request caused additional state changes", diff.Summary())
	}

	first := probe.Response.StatusCode
	switch p.Method {
	case catalog.MethodPut:
		if first != second.StatusCode {
			return Fail("different status codes on repeat", statusPair(first, second.StatusCode))
		}
	case catalog.MethodDelete:
		if !acceptableDeleteRepeat(first, second.StatusCode) {
			return Fail("unacceptable status code pair on repeat", statusPair(first, second.StatusCode))
		}
	}
	return Pass()
}

func is2xx(status int) bool { return status >= 200 && status < 300 }

// acceptableDeleteRepeat implements §4.5.2's DELETE acceptance matrix
// (verified against §8 invariant 6's pair table).
func acceptableDeleteRepeat(first, second int) bool {
	if first == second {
		return true
	}
	successFirst := first == 200 || first == 202 || first == 204
	return successFirst && second == 404
}

func statusPair(first, second int) string {
	return "first=" + strconv.Itoa(first) + " second=" + strconv.Itoa(second)
}

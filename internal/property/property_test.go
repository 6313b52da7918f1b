package property

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/state"
	"github.com/lerian-tools/conformist/internal/transport"
)

type fakeSampler struct {
	snapshots []*state.Snapshot
	i         int
}

func (f *fakeSampler) Capture(ctx context.Context) (*state.Snapshot, error) {
	snap := f.snapshots[f.i]
	if f.i < len(f.snapshots)-1 {
		f.i++
	}
	return snap, nil
}

func snapshotWithCount(kind string, count int) *state.Snapshot {
	return &state.Snapshot{Kinds: map[string]state.KindSample{kind: {Count: count}}}
}

type fakeClient struct {
	resp *transport.Response
	err  error
}

func (f *fakeClient) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	return f.resp, f.err
}

func TestSafetyPassesWhenStateIsQuiescent(t *testing.T) {
	sampler := &fakeSampler{snapshots: []*state.Snapshot{
		snapshotWithCount("AuditLog", 5),
		snapshotWithCount("AuditLog", 5),
	}}
	probe := Probe{
		Request:  &transport.Request{Method: "GET"},
		Response: &transport.Response{StatusCode: 200},
		Sampler:  sampler,
	}
	result := Safety{Method: catalog.MethodGet}.Check(context.Background(), probe)
	require.True(t, result.Passed)
}

// S1: GET /api/users increments AuditLog by 1 each call; not excluded ⇒ fail.
func TestSafetyFailsOnAuditLogDrift(t *testing.T) {
	sampler := &fakeSampler{snapshots: []*state.Snapshot{
		snapshotWithCount("AuditLog", 0),
		snapshotWithCount("AuditLog", 1),
	}}
	probe := Probe{
		Request:  &transport.Request{Method: "GET"},
		Response: &transport.Response{StatusCode: 200},
		Sampler:  sampler,
	}
	result := Safety{Method: catalog.MethodGet}.Check(context.Background(), probe)
	require.False(t, result.Passed)
}

func TestSafetySkipsNonTargetMethod(t *testing.T) {
	probe := Probe{Request: &transport.Request{Method: "POST"}, Response: &transport.Response{}}
	result := Safety{Method: catalog.MethodGet}.Check(context.Background(), probe)
	require.True(t, result.Passed)
	require.Equal(t, "N/A", result.Details)
}

// §8 invariant 6: DELETE idempotency acceptance matrix.
func TestIdempotencyDeleteAcceptanceMatrix(t *testing.T) {
	cases := []struct {
		first, second int
		wantPass      bool
	}{
		{200, 200, true},
		{204, 204, true},
		{200, 404, true},
		{204, 404, true},
		{202, 404, true},
		{200, 500, false},
		{404, 200, false},
	}
	for _, tc := range cases {
		sampler := &fakeSampler{snapshots: []*state.Snapshot{
			snapshotWithCount("posts", 1),
			snapshotWithCount("posts", 1),
		}}
		probe := Probe{
			Request:  &transport.Request{Method: "DELETE", Path: "/posts/5"},
			Response: &transport.Response{StatusCode: tc.first},
			Client:   &fakeClient{resp: &transport.Response{StatusCode: tc.second}},
			Sampler:  sampler,
		}
		result := Idempotency{Method: catalog.MethodDelete}.Check(context.Background(), probe)
		require.Equal(t, tc.wantPass, result.Passed, "first=%d second=%d", tc.first, tc.second)
	}
}

// S2: PUT triggers additional state change on resend ⇒ fail.
func TestIdempotencyPUTFailsOnAdditionalStateChange(t *testing.T) {
	sampler := &fakeSampler{snapshots: []*state.Snapshot{
		snapshotWithCount("AuditLog", 0),
		snapshotWithCount("AuditLog", 1),
	}}
	probe := Probe{
		Request:  &transport.Request{Method: "PUT", Path: "/posts/1", Body: []byte(`{"title":"t"}`)},
		Response: &transport.Response{StatusCode: 200},
		Client:   &fakeClient{resp: &transport.Response{StatusCode: 200}},
		Sampler:  sampler,
	}
	result := Idempotency{Method: catalog.MethodPut}.Check(context.Background(), probe)
	require.False(t, result.Passed)
	require.Equal(t, "second request caused additional state changes", result.FailureReason)
}

// §8 invariant 7: Allow header parsing is whitespace/case tolerant.
func TestParseAllowIsWhitespaceAndCaseTolerant(t *testing.T) {
	got := parseAllow("get, post ,  HEAD")
	require.True(t, got[catalog.MethodGet])
	require.True(t, got[catalog.MethodPost])
	require.True(t, got[catalog.MethodHead])
	require.Len(t, got, 3)
}

// S4: OPTIONS missing Allow header ⇒ fail.
func TestOptionsAllowFailsWhenHeaderMissing(t *testing.T) {
	cat, err := catalog.Load([]byte(`{
		"openapi":"3.0.3","info":{"title":"t","version":"1"},
		"paths":{"/api/users":{
			"get":{"responses":{"200":{"description":"ok"}}},
			"post":{"responses":{"200":{"description":"ok"}}},
			"head":{"responses":{"200":{"description":"ok"}}},
			"options":{"responses":{"200":{"description":"ok"}}}
		}}}`), nil)
	require.NoError(t, err)

	probe := Probe{
		Request:  &transport.Request{Method: "OPTIONS", Path: "/api/users"},
		Response: &transport.Response{StatusCode: 200},
		Catalog:  cat,
	}
	result := OptionsAllow{}.Check(context.Background(), probe)
	require.False(t, result.Passed)
	require.Equal(t, "missing Allow header", result.FailureReason)
}

// §8 invariant 8 / S5: HEAD body always fails regardless of GET agreement.
func TestHeadGetConsistencyFailsOnHeadBody(t *testing.T) {
	probe := Probe{
		Request: &transport.Request{Method: "HEAD", Path: "/posts"},
		Response: &transport.Response{
			StatusCode: 200,
			Header:     map[string][]string{"Content-Length": {"17"}},
			Body:       []byte("12345678901234567"),
		},
		Client: &fakeClient{resp: &transport.Response{StatusCode: 200}},
	}
	result := HeadGetConsistency{}.Check(context.Background(), probe)
	require.False(t, result.Passed)
}

// §8 invariant 9 / S6: 405 without Allow fails; any non-empty Allow passes.
func TestMethodNotAllowedRequiresAllowHeaderPresenceOnly(t *testing.T) {
	fail := MethodNotAllowed{}.Check(context.Background(), Probe{
		Request:  &transport.Request{Method: "PATCH"},
		Response: &transport.Response{StatusCode: 405},
	})
	require.False(t, fail.Passed)

	pass := MethodNotAllowed{}.Check(context.Background(), Probe{
		Request:  &transport.Request{Method: "PATCH"},
		Response: &transport.Response{StatusCode: 405, Header: map[string][]string{"Allow": {"GET"}}},
	})
	require.True(t, pass.Passed)
}

func TestCustomPropertySkipsOutsidePatternAndMethod(t *testing.T) {
	prop, err := NewCustomProperty("no admin deletes", "admins must not be deletable").
		ForPaths("/admin/*").
		ForMethods(catalog.MethodDelete).
		Assert(func(p Probe) (bool, error) { return false, nil })
	require.NoError(t, err)

	skipped := prop.Check(context.Background(), Probe{Request: &transport.Request{Method: "DELETE", Path: "/users/1"}})
	require.True(t, skipped.Passed)

	failed := prop.Check(context.Background(), Probe{Request: &transport.Request{Method: "DELETE", Path: "/admin/1"}})
	require.False(t, failed.Passed)
}

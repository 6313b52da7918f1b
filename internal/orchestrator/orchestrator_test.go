package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/engine"
	"github.com/lerian-tools/conformist/internal/property"
	"github.com/lerian-tools/conformist/internal/state"
	"github.com/lerian-tools/conformist/internal/synth"
	"github.com/lerian-tools/conformist/internal/transport"
)

const fixtureDoc = `{
	"openapi": "3.0.3",
	"info": {"title": "t", "version": "1"},
	"paths": {
		"/ping": {
			"get": {"operationId": "ping", "responses": {"200": {"description": "ok"}}}
		}
	}
}`

type stubClient struct {
	resp *transport.Response
	err  error
	n    int
}

func (s *stubClient) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	s.n++
	return s.resp, s.err
}

type nullSampler struct{}

func (nullSampler) Capture(ctx context.Context) (*state.Snapshot, error) {
	return &state.Snapshot{Kinds: map[string]state.KindSample{}}, nil
}

func TestRunAllProducesOneReportPerSynthesizedRequest(t *testing.T) {
	cat, err := catalog.Load([]byte(fixtureDoc), nil)
	require.NoError(t, err)

	client := &stubClient{resp: &transport.Response{StatusCode: 200}}
	sy := synth.New(1, nil, nil)
	eng := engine.New(property.BuiltIns())
	o := New(cat, sy, client, nil, nullSampler{}, eng, 2, nil)

	results := o.RunAll(context.Background())
	require.Len(t, results, 2)
	for _, r := range results {
		require.Equal(t, "GET", r.RequestMethod)
		require.Equal(t, "/ping", r.RequestPath)
		require.Equal(t, 200, r.ResponseStatusCode)
	}
}

func TestRunAllRecordsTransportFailureAsReport(t *testing.T) {
	cat, err := catalog.Load([]byte(fixtureDoc), nil)
	require.NoError(t, err)

	client := &stubClient{err: errors.New("connection refused")}
	sy := synth.New(1, nil, nil)
	eng := engine.New(property.BuiltIns())
	o := New(cat, sy, client, nil, nullSampler{}, eng, 1, nil)

	results := o.RunAll(context.Background())
	require.Len(t, results, 1)
	require.False(t, results[0].OverallPassed)
	require.Equal(t, 500, results[0].ResponseStatusCode)
	require.Equal(t, "request could not be sent", results[0].PropertyResults[0].FailureReason)
}

func TestRunAllConcurrentVisitsEveryEndpoint(t *testing.T) {
	cat, err := catalog.Load([]byte(`{
		"openapi": "3.0.3",
		"info": {"title": "t", "version": "1"},
		"paths": {
			"/ping": {"get": {"operationId": "ping", "responses": {"200": {"description": "ok"}}}},
			"/pong": {"get": {"operationId": "pong", "responses": {"200": {"description": "ok"}}}}
		}
	}`), nil)
	require.NoError(t, err)

	client := &stubClient{resp: &transport.Response{StatusCode: 200}}
	sy := synth.New(1, nil, nil)
	eng := engine.New(property.BuiltIns())
	o := New(cat, sy, client, nil, nullSampler{}, eng, 1, nil)
	o.EndpointConcurrency = true

	results := o.RunAll(context.Background())
	require.Len(t, results, 2)
	paths := map[string]bool{}
	for _, r := range results {
		paths[r.RequestPath] = true
	}
	require.True(t, paths["/ping"])
	require.True(t, paths["/pong"])
}

func TestRunAllStopsBetweenEndpointsWhenCancelled(t *testing.T) {
	cat, err := catalog.Load([]byte(fixtureDoc), nil)
	require.NoError(t, err)

	client := &stubClient{resp: &transport.Response{StatusCode: 200}}
	sy := synth.New(1, nil, nil)
	eng := engine.New(property.BuiltIns())
	o := New(cat, sy, client, nil, nullSampler{}, eng, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := o.RunAll(ctx)
	require.Empty(t, results)
}

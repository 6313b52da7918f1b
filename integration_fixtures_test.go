package conformist

// These tests drive a real Tester against the two reference HTTP services
// in internal/transport/fixture and internal/transport/altfixture, over a
// real net/http.Server rather than a stub ServiceClient. They exist so
// go-chi, gorilla/mux, and gorilla/websocket are exercised from an actual
// conformance run instead of only from their own package's isolated tests.

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/state"
	"github.com/lerian-tools/conformist/internal/testfixture"
	"github.com/lerian-tools/conformist/internal/transport"
	"github.com/lerian-tools/conformist/internal/transport/altfixture"
	"github.com/lerian-tools/conformist/internal/transport/fixture"
)

const widgetsSpec = `{
	"openapi": "3.0.3",
	"info": {"title": "widgets", "version": "1"},
	"paths": {
		"/widgets": {
			"get": {"operationId": "listWidgets", "responses": {"200": {"description": "ok"}}},
			"post": {
				"operationId": "createWidget",
				"requestBody": {"content": {"application/json": {"schema": {
					"type": "object",
					"properties": {"name": {"type": "string"}},
					"required": ["name"]
				}}}},
				"responses": {"201": {"description": "created"}}
			}
		},
		"/widgets/{id}": {
			"parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
			"get": {"operationId": "getWidget", "responses": {"200": {"description": "ok"}, "404": {"description": "missing"}}},
			"put": {
				"operationId": "replaceWidget",
				"requestBody": {"content": {"application/json": {"schema": {
					"type": "object",
					"properties": {"name": {"type": "string"}},
					"required": ["name"]
				}}}},
				"responses": {"200": {"description": "ok"}}
			},
			"delete": {"operationId": "deleteWidget", "responses": {"204": {"description": "gone"}, "404": {"description": "missing"}}}
		}
	}
}`

const notesSpec = `{
	"openapi": "3.0.3",
	"info": {"title": "notes", "version": "1"},
	"paths": {
		"/notes": {
			"get": {"operationId": "listNotes", "responses": {"200": {"description": "ok"}}},
			"post": {
				"operationId": "createNote",
				"requestBody": {"content": {"application/json": {"schema": {
					"type": "object",
					"properties": {"body": {"type": "string"}},
					"required": ["body"]
				}}}},
				"responses": {"201": {"description": "created"}}
			}
		},
		"/notes/{id}": {
			"parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
			"get": {"operationId": "getNote", "responses": {"200": {"description": "ok"}, "404": {"description": "missing"}}},
			"head": {"operationId": "headNote", "responses": {"200": {"description": "ok"}, "404": {"description": "missing"}}},
			"put": {
				"operationId": "replaceNote",
				"requestBody": {"content": {"application/json": {"schema": {
					"type": "object",
					"properties": {"body": {"type": "string"}},
					"required": ["body"]
				}}}},
				"responses": {"200": {"description": "ok"}}
			},
			"delete": {"operationId": "deleteNote", "responses": {"204": {"description": "gone"}, "404": {"description": "missing"}}},
			"options": {"operationId": "optionsNote", "responses": {"200": {"description": "ok"}}}
		}
	}
}`

// TestRunAllAgainstChiFixture proves the full Builder/Tester/Orchestrator
// pipeline against a chi-routed service, with a MemorySource feeding the
// synthesizer a live widget id for {id} path parameters.
func TestRunAllAgainstChiFixture(t *testing.T) {
	srv := httptest.NewServer(fixture.New().Router())
	defer srv.Close()

	cat, err := catalog.Load([]byte(widgetsSpec), nil)
	require.NoError(t, err)

	source := testfixture.NewMemorySource()
	source.Seed("widgets", "id", state.Record{"id": "1"}, state.Record{"id": "2"})

	client := transport.NewHTTPClient(srv.URL, nil)
	tester, err := NewBuilder(cat, client, source).
		WithMaxPerEndpoint(2).
		WithRandomSeed(7).
		BuildAsync(context.Background())
	require.NoError(t, err)

	results := tester.RunAll(context.Background())
	require.NotEmpty(t, results)
	for _, r := range results {
		require.NotEqual(t, 0, r.ResponseStatusCode)
	}
}

// TestRunAllAgainstMuxFixture proves the same pipeline against the
// gorilla/mux-routed notes service, covering HEAD-GET consistency and the
// OPTIONS Allow-header property against a router distinct from chi.
func TestRunAllAgainstMuxFixture(t *testing.T) {
	srv := httptest.NewServer(altfixture.New().Router())
	defer srv.Close()

	cat, err := catalog.Load([]byte(notesSpec), nil)
	require.NoError(t, err)

	source := testfixture.NewMemorySource()
	source.Seed("notes", "id", state.Record{"id": "1"})

	client := transport.NewHTTPClient(srv.URL, nil)
	tester, err := NewBuilder(cat, client, source).
		WithMaxPerEndpoint(2).
		WithRandomSeed(11).
		BuildAsync(context.Background())
	require.NoError(t, err)

	results := tester.RunAll(context.Background())
	require.NotEmpty(t, results)

	var sawOptions bool
	for _, r := range results {
		if r.RequestMethod == "OPTIONS" {
			sawOptions = true
		}
	}
	require.True(t, sawOptions, "expected the catalog to synthesize at least one OPTIONS request")
}

// TestChiFixtureWebsocketEcho exercises the chi fixture's /ws/echo upgrade
// endpoint directly: a conformance run can't drive a websocket session
// through the request/response property pipeline, so this test wires
// gorilla/websocket the way a client of the fixture actually would.
func TestChiFixtureWebsocketEcho(t *testing.T) {
	srv := httptest.NewServer(fixture.New().Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/echo"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	if resp != nil {
		defer resp.Body.Close()
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	mt, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, mt)
	require.Equal(t, "ping", string(msg))
}

package synth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/state"
)

type stubSource struct {
	kinds []state.EntityKindDescriptor
	keys  map[string]any
}

func (s *stubSource) EntityKinds(ctx context.Context) ([]state.EntityKindDescriptor, error) {
	return s.kinds, nil
}
func (s *stubSource) Count(ctx context.Context, kind string) (int, error) { return 0, nil }
func (s *stubSource) ListAll(ctx context.Context, kind string) ([]state.Record, error) {
	return nil, nil
}
func (s *stubSource) RandomKey(ctx context.Context, kind string) (any, bool, error) {
	v, ok := s.keys[kind]
	return v, ok, nil
}

func userEndpoint() *catalog.Endpoint {
	return &catalog.Endpoint{
		PathTemplate: "/users/{id}",
		Method:       catalog.MethodGet,
		Parameters: []catalog.Parameter{
			{Name: "id", Location: catalog.LocationPath, Required: true, Schema: &catalog.Schema{Type: catalog.TypeString}},
		},
	}
}

func TestSynthesizeDeterministicForSameSeed(t *testing.T) {
	ep := userEndpoint()
	a := New(42, nil, nil).Synthesize(context.Background(), ep, 3)
	b := New(42, nil, nil).Synthesize(context.Background(), ep, 3)

	require.Len(t, a, 3)
	require.Len(t, b, 3)
	for i := range a {
		require.Equal(t, a[i].Path, b[i].Path)
	}
}

func TestSynthesizeUsesLiveIdentifierFromStateSource(t *testing.T) {
	ep := userEndpoint()
	src := &stubSource{
		kinds: []state.EntityKindDescriptor{{Name: "users"}},
		keys:  map[string]any{"users": "live-42"},
	}
	reqs := New(1, src, nil).Synthesize(context.Background(), ep, 1)
	require.Len(t, reqs, 1)
	require.Equal(t, "/users/live-42", reqs[0].Path)
}

func TestSynthesizeDropsRequestWhenRequiredPathParamUnresolvable(t *testing.T) {
	ep := &catalog.Endpoint{
		PathTemplate: "/users/{id}",
		Method:       catalog.MethodGet,
		Parameters: []catalog.Parameter{
			{Name: "id", Location: catalog.LocationPath, Required: true, Schema: nil},
		},
	}
	// With nil schema and a path param still named "id" (known), resolvePath
	// falls back to a random string rather than dropping; to exercise the
	// drop path we simulate an unknown parameter name by stripping it from
	// the declared Parameters slice entirely.
	ep.Parameters = nil
	reqs := New(1, nil, nil).Synthesize(context.Background(), ep, 1)
	require.Empty(t, reqs)
}

func TestSynthesizeGeneratesJSONBodyWithRequiredFields(t *testing.T) {
	ep := &catalog.Endpoint{
		PathTemplate: "/users",
		Method:       catalog.MethodPost,
		RequestBodies: []catalog.RequestBody{
			{
				MediaType: "application/json",
				Schema: &catalog.Schema{
					Type:     catalog.TypeObject,
					Required: []string{"name"},
					Properties: map[string]*catalog.Schema{
						"name": {Type: catalog.TypeString},
						"age":  {Type: catalog.TypeInteger},
					},
				},
			},
		},
	}
	reqs := New(7, nil, nil).Synthesize(context.Background(), ep, 1)
	require.Len(t, reqs, 1)
	require.Equal(t, "application/json", reqs[0].MediaType)

	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	require.Contains(t, body, "name")
}

func TestValueStringRespectsEnum(t *testing.T) {
	s := New(3, nil, nil)
	schema := &catalog.Schema{Type: catalog.TypeString, Enum: []any{"a", "b", "c"}}
	v := s.valueString(schema)
	require.Contains(t, []string{"a", "b", "c"}, v)
}

func TestIntegerValueRespectsBounds(t *testing.T) {
	s := New(9, nil, nil)
	min, max := 5.0, 10.0
	schema := &catalog.Schema{Type: catalog.TypeInteger, Minimum: &min, Maximum: &max}
	for i := 0; i < 20; i++ {
		v := s.integerValue(schema)
		require.GreaterOrEqual(t, v, int64(5))
		require.LessOrEqual(t, v, int64(10))
	}
}

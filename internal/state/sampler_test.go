package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lerian-tools/conformist/internal/config"
)

// memSource is a minimal in-memory Source used only by this package's own
// tests; the shared testfixture double (with injectable failures) lives in
// internal/testfixture for use across packages.
type memSource struct {
	data map[string][]Record
}

func newMemSource(data map[string][]Record) *memSource {
	return &memSource{data: data}
}

func (m *memSource) EntityKinds(ctx context.Context) ([]EntityKindDescriptor, error) {
	var out []EntityKindDescriptor
	for kind := range m.data {
		out = append(out, EntityKindDescriptor{Name: kind, KeyFieldName: "id"})
	}
	return out, nil
}

func (m *memSource) Count(ctx context.Context, kind string) (int, error) {
	return len(m.data[kind]), nil
}

func (m *memSource) ListAll(ctx context.Context, kind string) ([]Record, error) {
	return m.data[kind], nil
}

func (m *memSource) RandomKey(ctx context.Context, kind string) (any, bool, error) {
	recs := m.data[kind]
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs[0]["id"], true, nil
}

func testConfig() config.StateTrackingConfig {
	return config.StateTrackingConfig{TrackEntityCounts: true, MaxParallelism: 2}
}

func TestSnapshotMonotonicityUnderIdentity(t *testing.T) {
	src := newMemSource(map[string][]Record{
		"users": {{"id": "1"}, {"id": "2"}},
	})
	sampler := NewSampler(src, testConfig(), time.Second, nil)

	before, err := sampler.Capture(context.Background())
	require.NoError(t, err)
	after, err := sampler.Capture(context.Background())
	require.NoError(t, err)

	require.False(t, before.Diff(after).HasChanges())
}

func TestDiffSymmetryOfCounts(t *testing.T) {
	srcA := newMemSource(map[string][]Record{"users": {{"id": "1"}}})
	srcB := newMemSource(map[string][]Record{"users": {{"id": "1"}, {"id": "2"}}})
	sampler := NewSampler(srcA, testConfig(), time.Second, nil)

	a, err := sampler.Capture(context.Background())
	require.NoError(t, err)

	sampler.Source = srcB
	b, err := sampler.Capture(context.Background())
	require.NoError(t, err)

	diff := a.Diff(b)
	require.True(t, diff.HasChanges())
	require.Len(t, diff.Changes, 1)
	require.Equal(t, b.Count("users"), diff.Changes[0].CountAfter)
	require.Equal(t, a.Count("users"), diff.Changes[0].CountBefore)
}

func TestSafetyPropertyCorrectnessViaChecksums(t *testing.T) {
	cfg := testConfig()
	cfg.TrackEntityChecksums = true

	src := newMemSource(map[string][]Record{"users": {{"id": "1", "name": "a"}}})
	sampler := NewSampler(src, cfg, time.Second, nil)

	before, err := sampler.Capture(context.Background())
	require.NoError(t, err)
	after, err := sampler.Capture(context.Background())
	require.NoError(t, err)
	require.False(t, before.Diff(after).HasChanges())

	src.data["users"] = append(src.data["users"], Record{"id": "2", "name": "b"})
	changed, err := sampler.Capture(context.Background())
	require.NoError(t, err)
	require.True(t, before.Diff(changed).HasChanges())
}

type failingSource struct {
	*memSource
	fails int
}

func (f *failingSource) Count(ctx context.Context, kind string) (int, error) {
	if f.fails > 0 {
		f.fails--
		return 0, errors.New("transient")
	}
	return f.memSource.Count(ctx, kind)
}

func TestSamplerOmitsKindAfterPersistentFailure(t *testing.T) {
	src := &failingSource{memSource: newMemSource(map[string][]Record{"users": {{"id": "1"}}}), fails: 5}
	sampler := NewSampler(src, testConfig(), time.Second, nil)

	snap, err := sampler.Capture(context.Background())
	require.NoError(t, err)
	require.Contains(t, snap.Tracked, "users")
	_, ok := snap.Kinds["users"]
	require.False(t, ok)
}

func TestSamplerRecoversAfterOneRetry(t *testing.T) {
	src := &failingSource{memSource: newMemSource(map[string][]Record{"users": {{"id": "1"}}}), fails: 1}
	sampler := NewSampler(src, testConfig(), time.Second, nil)

	snap, err := sampler.Capture(context.Background())
	require.NoError(t, err)
	sample, ok := snap.Kinds["users"]
	require.True(t, ok)
	require.Equal(t, 1, sample.Count)
}

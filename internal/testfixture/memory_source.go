// Package testfixture provides in-memory state.Source and
// transport.ServiceClient test doubles with injectable transient failures,
// grounded in the teacher's SimpleMockVectorStore (a plain map-backed store
// built for tests rather than production use).
package testfixture

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lerian-tools/conformist/internal/state"
)

// MemorySource is an in-memory state.Source backed by a map of kind to
// records, safe for concurrent use by StateSampler's parallel fan-out.
type MemorySource struct {
	mu        sync.Mutex
	records   map[string][]state.Record
	keyField  map[string]string
	failKinds map[string]int // remaining injected failures per kind
}

// NewMemorySource builds an empty MemorySource. Kinds are registered
// implicitly the first time Seed is called for them.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		records:   make(map[string][]state.Record),
		keyField:  make(map[string]string),
		failKinds: make(map[string]int),
	}
}

// Seed registers kind (if new) and appends records to it. keyField names
// the field RandomKey reads from each record.
func (m *MemorySource) Seed(kind, keyField string, records ...state.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keyField[kind]; !ok {
		m.keyField[kind] = keyField
	}
	m.records[kind] = append(m.records[kind], records...)
}

// FailNextN makes the next n calls to any method against kind return an
// error, one failure consumed per call, regardless of method. This lets
// tests exercise StateSampler's retry-once-then-omit semantics.
func (m *MemorySource) FailNextN(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failKinds[kind] = n
}

func (m *MemorySource) consumeFailure(kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failKinds[kind] > 0 {
		m.failKinds[kind]--
		return fmt.Errorf("testfixture: injected failure for kind %q", kind)
	}
	return nil
}

func (m *MemorySource) EntityKinds(ctx context.Context) ([]state.EntityKindDescriptor, error) {
	m.mu.Lock()
	kinds := make([]string, 0, len(m.records))
	for k := range m.records {
		kinds = append(kinds, k)
	}
	m.mu.Unlock()
	sort.Strings(kinds)

	out := make([]state.EntityKindDescriptor, 0, len(kinds))
	for _, k := range kinds {
		m.mu.Lock()
		keyField := m.keyField[k]
		m.mu.Unlock()
		out = append(out, state.EntityKindDescriptor{Name: k, KeyFieldName: keyField})
	}
	return out, nil
}

func (m *MemorySource) Count(ctx context.Context, kind string) (int, error) {
	if err := m.consumeFailure(kind); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[kind]), nil
}

func (m *MemorySource) ListAll(ctx context.Context, kind string) ([]state.Record, error) {
	if err := m.consumeFailure(kind); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]state.Record, len(m.records[kind]))
	copy(out, m.records[kind])
	return out, nil
}

func (m *MemorySource) RandomKey(ctx context.Context, kind string) (any, bool, error) {
	if err := m.consumeFailure(kind); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.records[kind]
	if len(records) == 0 {
		return nil, false, nil
	}
	keyField := m.keyField[kind]
	return records[0][keyField], true, nil
}

var _ state.Source = (*MemorySource)(nil)

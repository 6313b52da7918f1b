// Package state implements the StateSource contract (§4.3) and the
// StateSampler/StateSnapshot/StateDiff machinery that built-in properties use
// to detect side effects (§4.4).
package state

import "context"

// EntityKindDescriptor names one collection in the backing store and its key
// field, the unit StateSampler samples independently (§4.3).
type EntityKindDescriptor struct {
	Name         string
	KeyFieldName string
	TypeID       string
}

// Record is one materialized row from a StateSource, keyed by field name.
// StateSource implementations own the concrete field types; the sampler only
// needs to marshal a Record to canonical JSON for checksumming.
type Record map[string]any

// Source is the external contract the conformance engine consumes to
// observe a backing store (§4.3). Implementations must be safe for
// concurrent read access: the sampler fans out across entity kinds.
type Source interface {
	// EntityKinds lists every collection the source knows how to sample.
	EntityKinds(ctx context.Context) ([]EntityKindDescriptor, error)

	// Count returns the number of records in kind.
	Count(ctx context.Context, kind string) (int, error)

	// ListAll returns every record in kind, in a stable order by key.
	ListAll(ctx context.Context, kind string) ([]Record, error)

	// RandomKey returns an opaque key belonging to an existing record in
	// kind, or ok=false if kind is empty. Used by the synthesizer to
	// resolve identifier-typed path parameters (§4.2).
	RandomKey(ctx context.Context, kind string) (key any, ok bool, err error)
}

package state

import (
	"fmt"
	"sort"
	"time"
)

// KindSample is one entity kind's observation within a Snapshot: always a
// count, and a checksum when checksumming was enabled for the capture.
type KindSample struct {
	Count    int
	Checksum string // empty when checksums were not computed for this kind
}

// Snapshot is the immutable result of one StateSampler.Capture call (§3).
type Snapshot struct {
	Timestamp time.Time
	Kinds     map[string]KindSample

	// Tracked lists every kind the sampler attempted to sample, including
	// ones omitted from Kinds after a persistent per-kind failure (§4.4).
	Tracked []string
}

// Count returns the observed count for kind, or 0 if kind was not sampled.
func (s *Snapshot) Count(kind string) int {
	return s.Kinds[kind].Count
}

// Diff computes the set of entity kinds whose observations changed between
// s (before) and other (after) (§3, §4.4).
func (s *Snapshot) Diff(other *Snapshot) *Diff {
	seen := make(map[string]struct{})
	for k := range s.Kinds {
		seen[k] = struct{}{}
	}
	for k := range other.Kinds {
		seen[k] = struct{}{}
	}

	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	d := &Diff{}
	for _, kind := range kinds {
		before, beforeOK := s.Kinds[kind]
		after, afterOK := other.Kinds[kind]
		if !beforeOK || !afterOK {
			continue
		}

		countChanged := before.Count != after.Count
		checksumsDiffer := before.Checksum != "" && after.Checksum != "" && before.Checksum != after.Checksum
		if !countChanged && !checksumsDiffer {
			continue
		}

		change := EntityChange{
			Kind:        kind,
			CountBefore: before.Count,
			CountAfter:  after.Count,
		}
		if before.Checksum != "" {
			change.ChecksumBefore = &before.Checksum
		}
		if after.Checksum != "" {
			change.ChecksumAfter = &after.Checksum
		}
		d.Changes = append(d.Changes, change)
	}
	return d
}

// EntityChange describes one entity kind whose observation differed between
// two snapshots (§3).
type EntityChange struct {
	Kind                          string
	CountBefore, CountAfter       int
	ChecksumBefore, ChecksumAfter *string
}

// Summary renders a human-readable one-line description of the change.
func (c EntityChange) Summary() string {
	if c.CountBefore != c.CountAfter {
		return fmt.Sprintf("%s: %d->%d", c.Kind, c.CountBefore, c.CountAfter)
	}
	return fmt.Sprintf("%s: checksum changed", c.Kind)
}

// Diff is the list of EntityChange between two snapshots, ordered by kind
// name (§3).
type Diff struct {
	Changes []EntityChange
}

// HasChanges reports whether the diff is non-empty.
func (d *Diff) HasChanges() bool {
	return len(d.Changes) > 0
}

// Summary joins every change's one-line description.
func (d *Diff) Summary() string {
	if !d.HasChanges() {
		return "no changes"
	}
	out := ""
	for i, c := range d.Changes {
		if i > 0 {
			out += "; "
		}
		out += c.Summary()
	}
	return out
}

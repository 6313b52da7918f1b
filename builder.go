// Package conformist is the programmatic entry point (§6): a Builder
// assembles an EndpointCatalog, the PropertyKit built-ins (minus whatever
// the caller excludes), and any custom business rules into a Tester.
package conformist

import (
	"context"
	"fmt"

	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/config"
	"github.com/lerian-tools/conformist/internal/engine"
	"github.com/lerian-tools/conformist/internal/observability/logging"
	"github.com/lerian-tools/conformist/internal/orchestrator"
	"github.com/lerian-tools/conformist/internal/property"
	"github.com/lerian-tools/conformist/internal/state"
	"github.com/lerian-tools/conformist/internal/synth"
	"github.com/lerian-tools/conformist/internal/transport"
)

// Builder assembles a Tester from an OpenAPI catalog, a StateSource, a
// ServiceClient, and any programmatic configuration (§6).
type Builder struct {
	cfg *config.Config
	log *logging.EnhancedLogger

	catalog *catalog.Catalog
	source  state.Source
	client  transport.ServiceClient

	customProperties []property.Property

	buildErr error
}

// NewBuilder starts a Builder over an already-loaded catalog, talking to
// client, optionally backed by source for live identifier resolution and
// state diffing. source may be nil: the Tester then samples through an
// always-empty sampler, so state diffs never report a change — Safety
// properties pass, and Idempotency properties still resend the request but
// judge only the repeated status codes.
func NewBuilder(cat *catalog.Catalog, client transport.ServiceClient, source state.Source) *Builder {
	cfg := config.Default()
	return &Builder{
		cfg:     cfg,
		log:     logging.New(cfg.LogStyle, 0),
		catalog: cat,
		client:  client,
		source:  source,
	}
}

// WithConfig replaces the builder's starting configuration (e.g. one
// produced by config.Load).
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.cfg = cfg
	b.log = logging.New(cfg.LogStyle, 0)
	return b
}

// ConfigureStateTracking sets §4.4's StateSampler options.
func (b *Builder) ConfigureStateTracking(opts config.StateTrackingConfig) *Builder {
	b.cfg.StateTracking = opts
	return b
}

// ExcludeEndpoints records patterns (glob syntax, §6) in the configuration's
// ExcludeEndpoints field. BuildAsync does not pass them to the orchestrator,
// so RunAll still visits every catalog endpoint.
func (b *Builder) ExcludeEndpoints(patterns ...string) *Builder {
	b.cfg.ExcludeEndpoints = patterns
	return b
}

// IncludeOnlyEndpoints records patterns (glob syntax, §6) in the
// configuration's IncludeOnlyEndpoints field. BuildAsync does not pass them
// to the orchestrator, so RunAll still visits every catalog endpoint.
func (b *Builder) IncludeOnlyEndpoints(patterns ...string) *Builder {
	b.cfg.IncludeOnlyEndpoints = patterns
	return b
}

// AddCustomProperty registers a prebuilt custom property (§6).
func (b *Builder) AddCustomProperty(prop property.Property) *Builder {
	b.customProperties = append(b.customProperties, prop)
	return b
}

// DefineBusinessRule runs builderFn over a fresh CustomPropertyBuilder,
// naming and describing the rule first so callers only need to chain
// ForPaths/ForMethods/When/Assert, and registers the resulting property
// (§6 defineBusinessRule). An error returned by builderFn (such as the one
// Assert returns for a nil assertion) is recorded and surfaced as a
// build-time error from BuildAsync rather than panicking mid-run; a
// property returned with a nil error is registered as is.
func (b *Builder) DefineBusinessRule(name, reason string, builderFn func(*property.CustomPropertyBuilder) (property.CustomProperty, error)) *Builder {
	prop, err := builderFn(property.NewCustomProperty(name, reason))
	if err != nil {
		b.buildErr = err
		return b
	}
	b.customProperties = append(b.customProperties, prop)
	return b
}

// ExcludeBuiltInProperty drops every built-in property whose Name() matches
// name (§6 excludeBuiltInProperty<T>, adapted to Go's lack of per-type
// generics over an interface identity — callers pass the exact property
// name from the §6 identity table).
func (b *Builder) ExcludeBuiltInProperty(name string) *Builder {
	b.cfg.ExcludedProperties = append(b.cfg.ExcludedProperties, name)
	return b
}

// ExcludeAllSafetyProperties drops the GET/HEAD/OPTIONS safety family (§6).
func (b *Builder) ExcludeAllSafetyProperties() *Builder {
	b.cfg.ExcludeSafety = true
	return b
}

// ExcludeAllIdempotencyProperties drops the PUT/DELETE idempotency family (§6).
func (b *Builder) ExcludeAllIdempotencyProperties() *Builder {
	b.cfg.ExcludeIdempotency = true
	return b
}

// ExcludeAllResponseConsistencyProperties drops HEAD-GET/OPTIONS-Allow/405 (§6).
func (b *Builder) ExcludeAllResponseConsistencyProperties() *Builder {
	b.cfg.ExcludeConsistency = true
	return b
}

// WithMaxPerEndpoint overrides how many requests are synthesized per
// endpoint (§4.2); the default comes from config.Default().
func (b *Builder) WithMaxPerEndpoint(n int) *Builder {
	b.cfg.MaxPerEndpoint = n
	return b
}

// WithRandomSeed overrides the synthesizer's seed (§4.2 determinism).
func (b *Builder) WithRandomSeed(seed int64) *Builder {
	b.cfg.RandomSeed = seed
	return b
}

// BuildAsync assembles the configured Tester, or returns the build-time
// error accumulated from a malformed custom rule (§6, §7: "panics... except
// programmer-misuse conditions at build time").
func (b *Builder) BuildAsync(ctx context.Context) (*Tester, error) {
	if b.buildErr != nil {
		return nil, fmt.Errorf("conformist: build failed: %w", b.buildErr)
	}
	if b.catalog == nil {
		return nil, fmt.Errorf("conformist: build failed: no catalog configured")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	props := b.activeProperties()

	var sampler engineSampler = noopSampler{}
	if b.source != nil {
		sampler = state.NewSampler(b.source, b.cfg.StateTracking, b.cfg.SampleTimeout, b.log)
	}

	eng := engine.New(props)
	sy := synth.New(b.cfg.RandomSeed, b.source, b.log)
	orch := orchestrator.New(b.catalog, sy, b.client, b.source, sampler, eng, b.cfg.MaxPerEndpoint, b.log)
	orch.EndpointConcurrency = b.cfg.EndpointConcurrency

	return &Tester{
		catalog:      b.catalog,
		properties:   props,
		engine:       eng,
		orchestrator: orch,
	}, nil
}

// engineSampler matches property.Sampler and orchestrator.Sampler (both
// already structurally compatible with *state.Sampler).
type engineSampler interface {
	Capture(ctx context.Context) (*state.Snapshot, error)
}

type noopSampler struct{}

func (noopSampler) Capture(ctx context.Context) (*state.Snapshot, error) {
	return &state.Snapshot{Kinds: map[string]state.KindSample{}}, nil
}

// activeProperties builds the final property list: built-in families minus
// exclusions, minus individually excluded names, plus custom rules (§6).
func (b *Builder) activeProperties() []property.Property {
	excluded := make(map[string]struct{}, len(b.cfg.ExcludedProperties))
	for _, name := range b.cfg.ExcludedProperties {
		excluded[name] = struct{}{}
	}

	var out []property.Property
	for _, p := range property.BuiltIns() {
		switch property.FamilyOf(p) {
		case property.FamilySafety:
			if b.cfg.ExcludeSafety {
				continue
			}
		case property.FamilyIdempotency:
			if b.cfg.ExcludeIdempotency {
				continue
			}
		case property.FamilyConsistency:
			if b.cfg.ExcludeConsistency {
				continue
			}
		}
		if _, skip := excluded[p.Name()]; skip {
			continue
		}
		out = append(out, p)
	}
	out = append(out, b.customProperties...)
	return out
}

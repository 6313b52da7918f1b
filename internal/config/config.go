// Package config loads the single, immutable configuration value the builder
// uses to wire the conformance engine (§4.4 state tracking, §5 concurrency,
// §6 endpoint/property exclusions). There is no process-wide mutable
// configuration: everything here is read once and passed down by value.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultOpenAPIPath is where an OpenAPI 3.x document is expected to be
// served when the caller configures an HTTP source (§6).
const DefaultOpenAPIPath = "/swagger/v1/swagger.json"

// DefaultSampleTimeout bounds a single StateSource query (§5).
const DefaultSampleTimeout = 30 * time.Second

// StateTrackingConfig controls how StateSampler captures snapshots (§4.4).
type StateTrackingConfig struct {
	TrackEntityCounts    bool
	TrackEntityChecksums bool
	IncludeOnly          []string
	Exclude              []string
	MaxParallelism       int
}

// Config is the single value passed to the builder at construction time.
type Config struct {
	StateTracking StateTrackingConfig

	// MaxPerEndpoint bounds RequestSynthesizer.synthesize's k (§4.2).
	MaxPerEndpoint int

	// EndpointConcurrency, when true, allows the orchestrator to run distinct
	// endpoints in parallel (§5); per-endpoint concurrency is always 1.
	EndpointConcurrency bool

	// SampleTimeout bounds a single StateSource query (§5).
	SampleTimeout time.Duration

	// ExcludeEndpoints / IncludeOnlyEndpoints hold glob patterns (§6) set
	// through the builder. Nothing reads them when a run is assembled: the
	// orchestrator does not filter endpoints by them.
	ExcludeEndpoints     []string
	IncludeOnlyEndpoints []string

	// ExcludeSafety/ExcludeIdempotency/ExcludeConsistency drop whole
	// built-in property families (§6 excludeAllXProperties).
	ExcludeSafety       bool
	ExcludeIdempotency  bool
	ExcludeConsistency  bool
	ExcludedProperties  []string // excludeBuiltInProperty<T> by property name

	// RandomSeed seeds the synthesizer for deterministic runs (§4.2).
	RandomSeed int64

	// LogStyle selects the slog handler ("json", "text", "noop").
	LogStyle string
}

// Default returns the configuration the builder starts from before any
// programmatic option or environment override is applied.
func Default() *Config {
	return &Config{
		StateTracking: StateTrackingConfig{
			TrackEntityCounts:    true,
			TrackEntityChecksums: false,
			MaxParallelism:       defaultParallelism(),
		},
		MaxPerEndpoint:      3,
		EndpointConcurrency: false,
		SampleTimeout:       DefaultSampleTimeout,
		RandomSeed:          1,
		LogStyle:            "text",
	}
}

// Load builds a Config from Default(), then applies environment overrides,
// the same two-phase pattern as the teacher's LoadConfig: a best-effort
// ".env" load followed by typed os.Getenv reads.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	cfg := Default()
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CONFORMIST_TRACK_CHECKSUMS"); v != "" {
		cfg.StateTracking.TrackEntityChecksums = parseBool(v, cfg.StateTracking.TrackEntityChecksums)
	}
	if v := os.Getenv("CONFORMIST_MAX_PARALLELISM"); v != "" {
		cfg.StateTracking.MaxParallelism = parseInt(v, cfg.StateTracking.MaxParallelism)
	}
	if v := os.Getenv("CONFORMIST_INCLUDE_ONLY_KINDS"); v != "" {
		cfg.StateTracking.IncludeOnly = splitCSV(v)
	}
	if v := os.Getenv("CONFORMIST_EXCLUDE_KINDS"); v != "" {
		cfg.StateTracking.Exclude = splitCSV(v)
	}
	if v := os.Getenv("CONFORMIST_MAX_PER_ENDPOINT"); v != "" {
		cfg.MaxPerEndpoint = parseInt(v, cfg.MaxPerEndpoint)
	}
	if v := os.Getenv("CONFORMIST_ENDPOINT_CONCURRENCY"); v != "" {
		cfg.EndpointConcurrency = parseBool(v, cfg.EndpointConcurrency)
	}
	if v := os.Getenv("CONFORMIST_SAMPLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SampleTimeout = d
		}
	}
	if v := os.Getenv("CONFORMIST_RANDOM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.RandomSeed = n
		}
	}
	if v := os.Getenv("CONFORMIST_LOG_STYLE"); v != "" {
		cfg.LogStyle = v
	}
}

func defaultParallelism() int {
	if n := os.Getenv("GOMAXPROCS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			return v
		}
	}
	return 4
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func parseInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

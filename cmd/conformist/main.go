// conformist is a thin demo binary: it loads an OpenAPI document, builds a
// Tester against a live base URL, runs every endpoint, and prints a
// colorized pass/fail summary.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"

	"github.com/lerian-tools/conformist"
	"github.com/lerian-tools/conformist/internal/catalog"
	"github.com/lerian-tools/conformist/internal/report"
	"github.com/lerian-tools/conformist/internal/state"
	"github.com/lerian-tools/conformist/internal/state/postgresstate"
	"github.com/lerian-tools/conformist/internal/state/redisstate"
	"github.com/lerian-tools/conformist/internal/state/sqlitestate"
	"github.com/lerian-tools/conformist/internal/transport"
)

func main() {
	specPath := flag.String("spec", "", "path to an OpenAPI 3.x document")
	baseURL := flag.String("base-url", "http://localhost:8080", "base URL of the service under test")
	maxPerEndpoint := flag.Int("max-per-endpoint", 3, "requests synthesized per endpoint")
	stateBackend := flag.String("state-backend", "none", "backing store for identifier resolution/state diffing: none|postgres|sqlite|redis")
	dsn := flag.String("dsn", "", "database DSN for -state-backend=postgres|sqlite")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis address for -state-backend=redis")
	redisPrefixes := flag.String("redis-prefixes", "", "comma-separated kind=prefix pairs for -state-backend=redis, e.g. users=users:,orders=orders:")
	flag.Parse()

	if *specPath == "" {
		fmt.Println("Usage: conformist -spec <openapi.yaml> [-base-url http://localhost:8080] [-state-backend none|postgres|sqlite|redis]")
		os.Exit(1)
	}

	cat, err := catalog.LoadFile(*specPath, nil)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	client := transport.NewHTTPClient(*baseURL, nil)

	source, err := buildStateSource(*stateBackend, *dsn, *redisAddr, *redisPrefixes)
	if err != nil {
		log.Fatalf("failed to build state source: %v", err)
	}

	tester, err := conformist.NewBuilder(cat, client, source).
		WithMaxPerEndpoint(*maxPerEndpoint).
		BuildAsync(context.Background())
	if err != nil {
		log.Fatalf("failed to build tester: %v", err)
	}

	fmt.Printf("Loaded %d endpoints from %s, running against %s\n", len(tester.Endpoints()), *specPath, *baseURL)

	results := tester.RunAll(context.Background())
	printSummary(results)
}

func printSummary(results []report.RequestReport) {
	passed, failed := 0, 0
	for _, r := range results {
		printResult(r)
		if r.OverallPassed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println()
	if failed == 0 {
		color.New(color.FgGreen, color.Bold).Printf("%d/%d requests passed every property\n", passed, passed+failed)
		return
	}
	color.New(color.FgRed, color.Bold).Printf("%d/%d requests failed at least one property\n", failed, passed+failed)
}

func printResult(r report.RequestReport) {
	status := color.New(color.FgGreen).Sprint("PASS")
	if !r.OverallPassed {
		status = color.New(color.FgRed).Sprint("FAIL")
	}
	fmt.Printf("[%s] %-6s %-30s -> %d (%d/%d properties)\n", status, r.RequestMethod, r.RequestPath, r.ResponseStatusCode, r.PassedProperties, r.TotalProperties)

	if r.OverallPassed {
		return
	}
	for _, pr := range r.PropertyResults {
		if pr.Passed {
			continue
		}
		fmt.Printf("    - %s: %s\n", pr.PropertyName, pr.FailureReason)
	}
}

// buildStateSource wires -state-backend into a concrete state.Source, or
// returns nil for "none" (no live identifier resolution, and state diffs
// never report a change, per Builder's documented nil-source behavior).
func buildStateSource(backend, dsn, redisAddr, redisPrefixCSV string) (state.Source, error) {
	switch backend {
	case "", "none":
		return nil, nil
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("-dsn is required for -state-backend=postgres")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return postgresstate.New(db), nil
	case "sqlite":
		if dsn == "" {
			return nil, fmt.Errorf("-dsn is required for -state-backend=sqlite")
		}
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlitestate.New(db), nil
	case "redis":
		prefixes, err := parseRedisPrefixes(redisPrefixCSV)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		return redisstate.New(client, prefixes), nil
	default:
		return nil, fmt.Errorf("unknown -state-backend %q: want none, postgres, sqlite, or redis", backend)
	}
}

// parseRedisPrefixes parses "kind=prefix,kind=prefix" into a map, the shape
// redisstate.New expects.
func parseRedisPrefixes(csv string) (map[string]string, error) {
	out := make(map[string]string)
	if csv == "" {
		return out, nil
	}
	for _, pair := range strings.Split(csv, ",") {
		kind, prefix, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed -redis-prefixes entry %q: want kind=prefix", pair)
		}
		out[kind] = prefix
	}
	return out, nil
}

package catalog

import (
	"regexp"
	"strings"
	"sync"
)

// globCache memoizes compiled glob patterns; patterns are few and reused
// across every request synthesized for a filtered endpoint set.
var globCache sync.Map // pattern string -> *regexp.Regexp

// GlobMatch reports whether path satisfies pattern, where '*' matches any
// run of characters (including '/') and '{name}' matches a single path
// segment ([^/]+). This is the filter-pattern algorithm used by
// excludeEndpoints/includeOnlyEndpoints (§6) and CustomProperty
// endpointPatterns (§4.6) — distinct from the template matcher in path.go
// per §9's explicit warning against conflating the two.
func GlobMatch(pattern, path string) bool {
	re, err := compileGlob(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// AnyGlobMatch reports whether path matches at least one pattern. An empty
// pattern list means "applies to everything" (§4.6: "empty list ⇒ applies to
// all paths"), so callers should check len(patterns) == 0 themselves before
// calling this.
func AnyGlobMatch(patterns []string, path string) bool {
	for _, p := range patterns {
		if GlobMatch(p, path) {
			return true
		}
	}
	return false
}

func compileGlob(pattern string) (*regexp.Regexp, error) {
	if cached, ok := globCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile("^" + translateGlob(pattern) + "$")
	if err != nil {
		return nil, err
	}
	globCache.Store(pattern, re)
	return re, nil
}

// translateGlob turns a glob pattern into a regexp body: literal runs are
// escaped, '*' becomes '.*', and '{name}' becomes '[^/]+'.
func translateGlob(pattern string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		switch pattern[i] {
		case '*':
			b.WriteString(".*")
			i++
		case '{':
			if end := strings.IndexByte(pattern[i:], '}'); end >= 0 {
				b.WriteString("[^/]+")
				i += end + 1
			} else {
				b.WriteString(regexp.QuoteMeta(pattern[i:]))
				i = len(pattern)
			}
		default:
			j := i
			for j < len(pattern) && pattern[j] != '*' && pattern[j] != '{' {
				j++
			}
			b.WriteString(regexp.QuoteMeta(pattern[i:j]))
			i = j
		}
	}
	return b.String()
}

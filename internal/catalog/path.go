package catalog

import "strings"

// TemplateMatch reports whether concretePath matches template, per §4.1: the
// same number of '/'-separated segments, literal segments equal
// case-insensitively, and '{name}' segments matching any single non-empty
// segment. This is deliberately a different algorithm from glob matching
// (glob.go) — §9 calls out that the two must never be conflated.
func TemplateMatch(template, concretePath string) bool {
	tplSegs := splitPath(template)
	pathSegs := splitPath(concretePath)

	if len(tplSegs) != len(pathSegs) {
		return false
	}
	for i, tplSeg := range tplSegs {
		pathSeg := pathSegs[i]
		if isPathParam(tplSeg) {
			if pathSeg == "" {
				return false
			}
			continue
		}
		if !strings.EqualFold(tplSeg, pathSeg) {
			return false
		}
	}
	return true
}

// PathParamNames returns the {name} segments of template in order.
func PathParamNames(template string) []string {
	var names []string
	for _, seg := range splitPath(template) {
		if isPathParam(seg) {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}"))
		}
	}
	return names
}

func isPathParam(segment string) bool {
	return strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") && len(segment) > 2
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

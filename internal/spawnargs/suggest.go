package spawnargs

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to name, for "did you mean" hints.
// ok is false when nothing is close enough.
func Suggest(name string, candidates []string) (best string, ok bool) {
	name = strings.ToLower(name)
	bestDist := -1
	for _, cand := range candidates {
		c := strings.ToLower(cand)
		if c == name {
			return cand, true
		}
		dist := levenshtein.ComputeDistance(name, c)
		if dist > suggestLimit(len(c)) {
			continue
		}
		if bestDist < 0 || dist < bestDist || (dist == bestDist && cand < best) {
			best, bestDist = cand, dist
		}
	}
	return best, bestDist >= 0
}

// Hint formats Suggest's result as a log-friendly suffix, or "".
func Hint(name string, candidates []string) string {
	if s, ok := Suggest(name, candidates); ok && s != name {
		return "did you mean " + s + "?"
	}
	return ""
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

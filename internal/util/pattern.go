package util

import "path/filepath"

// LiteralPrefix returns the longest prefix of pattern that contains none
// of the glob metacharacters '*', '?', '['. The KEYS command uses this to
// bound its store scan to a single prefix range before re-matching the
// full pattern against each candidate key.
func LiteralPrefix(pattern string) string {
	for i, c := range pattern {
		switch c {
		case '*', '?', '[':
			return pattern[:i]
		}
	}
	return pattern
}

// MatchGlob reports whether name matches pattern using the same
// '*'/'?'/'[...]' grammar as a shell glob.
func MatchGlob(pattern, name string) (bool, error) {
	return filepath.Match(pattern, name)
}

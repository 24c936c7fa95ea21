package archive

import (
	"regexp"
	"strings"
)

var digitRun = regexp.MustCompile(`\d+`)

// Rank orders candidate planet names against a query: case-insensitive
// prefix matches first, then names sharing the query's embedded numeric
// token (e.g. a designation number) as a separate word, then remaining
// substring matches. Order within a tier follows the input order, so
// callers get stable results from a sorted candidate list.
func Rank(query string, candidates []string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	token := digitRun.FindString(q)

	var prefix, numbered, substr []string
	for _, cand := range candidates {
		lc := strings.ToLower(cand)
		switch {
		case strings.HasPrefix(lc, q):
			prefix = append(prefix, cand)
		case token != "" && hasWord(lc, token):
			numbered = append(numbered, cand)
		case strings.Contains(lc, q):
			substr = append(substr, cand)
		}
	}

	out := make([]string, 0, limit)
	for _, tier := range [][]string{prefix, numbered, substr} {
		for _, cand := range tier {
			if len(out) == limit {
				return out
			}
			out = append(out, cand)
		}
	}
	return out
}

func hasWord(s, word string) bool {
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}) {
		if w == word {
			return true
		}
	}
	return false
}

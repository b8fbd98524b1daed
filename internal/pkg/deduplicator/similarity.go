package deduplicator

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// Scores how alike two titles are on a 0-100 scale, ignoring case,
// punctuation, word order and repeated words. Titles that share every word of
// the shorter one score 100 even if one adds words of its own.
func TokenSetRatio(a, b string) int {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var sect, diffAB, diffBA []string
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			sect = append(sect, token)
		} else {
			diffAB = append(diffAB, token)
		}
	}
	for token := range tokensB {
		if _, ok := tokensA[token]; !ok {
			diffBA = append(diffBA, token)
		}
	}

	sortedSect := joinSorted(sect)
	combinedAB := strings.TrimSpace(sortedSect + " " + joinSorted(diffAB))
	combinedBA := strings.TrimSpace(sortedSect + " " + joinSorted(diffBA))

	return max(
		ratio(sortedSect, combinedAB),
		ratio(sortedSect, combinedBA),
		ratio(combinedAB, combinedBA),
	)
}

// Sequence-matcher similarity, 2*matches/(len(a)+len(b)) scaled to 0-100 and
// rounded half to even. Empty input scores 0.
func ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	matcher := difflib.NewMatcher(runes(a), runes(b))
	return int(math.RoundToEven(100 * matcher.Ratio()))
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Lower-cases, turns everything but letters and digits into separators and
// returns the distinct words.
func tokenSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}

func joinSorted(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

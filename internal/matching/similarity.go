// Package matching provides the string-similarity primitives shared by the
// entity and vendor resolvers. The weighting formulas stay in the resolvers;
// this package only measures.
package matching

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a string and strips diacritic marks so "José" and "jose"
// compare equal.
func Fold(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokens splits a folded string into word tokens, dropping punctuation.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TokenSetSimilarity is the Jaccard index over word tokens, in [0,1].
func TokenSetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// StringSimilarity converts Levenshtein edit distance into a [0,1] similarity
// over the folded forms.
func StringSimilarity(a, b string) float64 {
	fa, fb := Fold(strings.TrimSpace(a)), Fold(strings.TrimSpace(b))
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 1
	}
	dist := levenshtein.ComputeDistance(fa, fb)
	longest := len([]rune(fa))
	if l := len([]rune(fb)); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokens(s) {
		set[tok] = true
	}
	return set
}

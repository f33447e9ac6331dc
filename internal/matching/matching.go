// Package matching scores how well a candidate profile fits a job
// description. A cheap lexical baseline; embeddings can replace it later
// without changing the 0-100 contract.
package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Score compares the profile text against the job text and returns a
// similarity score between 0 and 100. Token order and duplicates are
// ignored so reshuffled CVs score the same.
func Score(profileText, jobText string) int {
	if profileText == "" || jobText == "" {
		return 0
	}

	a := tokenSet(profileText)
	b := tokenSet(jobText)
	if a == "" || b == "" {
		return 0
	}

	similarity := strutil.Similarity(a, b, metrics.NewSorensenDice())
	return int(similarity * 100)
}

// tokenSet lowercases, splits on non-alphanumerics, dedupes and sorts, so
// the metric sees a canonical rendering of the vocabulary.
func tokenSet(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}

	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

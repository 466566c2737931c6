// Package matching compares extracted identity fields with the application of
// record and aggregates a confidence score.
package matching

import "strings"

// Similarity returns a 0-100 character-bag overlap score between a and b.
//
// Both inputs are trimmed and lower-cased; equal inputs score 100. Otherwise
// each rune of the shorter input counts as matched when it occurs anywhere in
// the longer one, and the score is matched/len(longer)*100 rounded half up.
// Order is ignored, so anagrams over-score; this is the intended metric.
func Similarity(a, b string) int {
	na := []rune(strings.ToLower(strings.TrimSpace(a)))
	nb := []rune(strings.ToLower(strings.TrimSpace(b)))
	if string(na) == string(nb) {
		return 100
	}

	shorter, longer := na, nb
	if len(na) > len(nb) {
		shorter, longer = nb, na
	}

	bag := make(map[rune]struct{}, len(longer))
	for _, r := range longer {
		bag[r] = struct{}{}
	}

	matched := 0
	for _, r := range shorter {
		if _, ok := bag[r]; ok {
			matched++
		}
	}

	n := len(longer)
	return (matched*200 + n) / (2 * n)
}

package llm

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// ErrReferenceLeak is returned in strict mode when the model cites a clause
// outside the allowlist
var ErrReferenceLeak = errors.New("REFERENCE LEAK")

var clauseRefPattern = regexp.MustCompile(`(?i)\bclauses?\s+(\d+)((?:\s*(?:,|and|&)\s*\d+)*)`)

var refNumber = regexp.MustCompile(`\d+`)

// extractClauseRefs returns the distinct clause numbers referenced in text,
// including lists such as "Clauses 3, 5 and 7"
func extractClauseRefs(text string) []int {
	seen := make(map[int]bool)
	var refs []int
	for _, m := range clauseRefPattern.FindAllStringSubmatch(text, -1) {
		for _, num := range refNumber.FindAllString(m[1]+" "+m[2], -1) {
			n, err := strconv.Atoi(num)
			if err != nil || seen[n] {
				continue
			}
			seen[n] = true
			refs = append(refs, n)
		}
	}
	sort.Ints(refs)
	return refs
}

// verifyReferences enforces the allowlist in strict mode
func verifyReferences(summary string, allowed []int, strict bool) ([]int, error) {
	cited := extractClauseRefs(summary)
	if !strict {
		return cited, nil
	}
	ok := make(map[int]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	for _, c := range cited {
		if !ok[c] {
			return nil, fmt.Errorf("%w: model cited Clause %d, which is not among the findings", ErrReferenceLeak, c)
		}
	}
	return cited, nil
}

package llm

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// naive parser thresholds, matching the deterministic fallback contract.
const (
	minLineLen  = 5   // lines at or under this length carry no item
	maxNameLen  = 100 // item_name is truncated to this many characters
	codeModulus = 10000
)

// NaiveParse is the deterministic fallback parser: every sufficiently
// long line becomes one candidate item, with the code derived from a
// hash of the line content so repeated runs produce the same codes.
// It never fails; text with no qualifying lines yields an empty set.
func NaiveParse(text string) []CandidateItem {
	var items []CandidateItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= minLineLen {
			continue
		}
		name := line
		if len(name) > maxNameLen {
			name = name[:maxNameLen]
		}
		items = append(items, CandidateItem{
			"description": line,
			"item_name":   name,
			"item_code":   fmt.Sprintf("GEN-%d", lineHash(line)%codeModulus),
		})
	}
	return items
}

func lineHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// Package strings provides string list helpers for configuration values.
package strings

import (
	"strings"
)

// SplitList flattens comma-separated entries, trims each item and drops empty
// and repeated items. Order of first appearance is preserved.
//
// Example:
//
//	SplitList([]string{" kafka-1:9092, kafka-2:9092", "kafka-1:9092", ""})
//	// Returns: []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if _, ok := seen[item]; !ok {
				seen[item] = struct{}{}
				result = append(result, item)
			}
		}
	}

	return result
}

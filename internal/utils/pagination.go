// Package utils provides tiny helpers with no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as an int and returns def when s is empty or not a
// valid integer. Query-string pagination values go through this so a junk
// "page" parameter never surfaces as an error.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

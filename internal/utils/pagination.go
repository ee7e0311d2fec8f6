// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi, falling back
// to def when the string is empty or cannot be parsed. The HTTP layer uses it
// to read leaderboard paging query parameters without per-handler error
// plumbing.
//
// Example:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)       // "3" -> 3
//	size := utils.AtoiDefault(c.Query("page_size"), 20) // ""  -> 20
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

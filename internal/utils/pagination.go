// Package utils provides small helpers for turning raw request input into
// typed values.
package utils

import (
	"strconv"
	"strings"
)

// Page is a limit/offset window as requested by a client, before any bounds
// are applied.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads raw ?limit= and ?offset= values. Missing or malformed
// values fall back to defLimit and 0.
func ParsePage(limitRaw, offsetRaw string, defLimit int) Page {
	return Page{
		Limit:  AtoiDefault(limitRaw, defLimit),
		Offset: AtoiDefault(offsetRaw, 0),
	}
}

// AtoiDefault parses s (surrounding spaces ignored) or returns def when s is
// blank or not a base-10 int.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

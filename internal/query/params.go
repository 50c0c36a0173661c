package query

import (
	"strconv"
	"strings"
)

// Reserved parameter keys. Every other key is treated as a filter.
const (
	KeySearch = "searchTerm"
	KeySort   = "sort"
	KeyLimit  = "limit"
	KeyPage   = "page"
	KeyFields = "fields"
)

var reserved = map[string]bool{
	KeySearch: true,
	KeySort:   true,
	KeyLimit:  true,
	KeyPage:   true,
	KeyFields: true,
}

// Params is the raw parameter map of one list request.
type Params map[string]string

// Without returns a copy of p without the given keys.
func (p Params) Without(keys ...string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// ParseIntDefault parses raw as a base-10 integer. Absent, malformed, or below-min input
// yields def; "0" is a real zero whenever min allows it.
func ParseIntDefault(raw string, def, min int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return def
	}
	return n
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// escapeLike escapes the LIKE metacharacters of s using backslash.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

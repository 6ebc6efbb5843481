package domain

import "strings"

// Sentinel criteria values that disable a predicate.
const (
	AnyMethod = ""
	AnyStatus = 0
)

// FilterCriteria holds the user-selected constraints applied to the request list.
// The zero value matches every request.
//
// Fields:
//   - SearchText: Free text matched against URL and GraphQL operation. Empty means all.
//   - Method: HTTP verb to match. AnyMethod ("") means all.
//   - StatusCode: HTTP status code to match. AnyStatus (0) means all.
type FilterCriteria struct {
	SearchText string `json:"search_text"`
	Method     string `json:"method"`
	StatusCode int    `json:"status_code"`
}

// DefaultCriteria returns the criteria a panel starts with.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{}
}

// NormalizedSearch returns the search text trimmed and lower-cased.
func (c FilterCriteria) NormalizedSearch() string {
	return strings.ToLower(strings.TrimSpace(c.SearchText))
}

// IsEmpty returns true if no predicate is active
func (c FilterCriteria) IsEmpty() bool {
	return c.NormalizedSearch() == "" && c.Method == AnyMethod && c.StatusCode == AnyStatus
}

// Package filter narrows a request collection by search text, HTTP method and
// HTTP status code.
package filter

import (
	"strconv"
	"strings"

	"github.com/charliek/netscope/internal/domain"
)

// Matcher applies a FilterCriteria to request records. The search text is
// normalized once at construction.
type Matcher struct {
	search string
	method string
	status string
}

// NewMatcher creates a new matcher from a FilterCriteria
func NewMatcher(c domain.FilterCriteria) *Matcher {
	m := &Matcher{
		search: c.NormalizedSearch(),
		method: c.Method,
	}
	if c.StatusCode != domain.AnyStatus {
		m.status = strconv.Itoa(c.StatusCode)
	}
	return m
}

// Matches returns true if the record satisfies all three predicates
func (m *Matcher) Matches(r domain.RequestRecord) bool {
	return m.matchesText(r) && m.matchesMethod(r) && m.matchesStatus(r)
}

func (m *Matcher) matchesText(r domain.RequestRecord) bool {
	if m.search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.URL), m.search) {
		return true
	}
	return r.HasGQLOperation() && strings.Contains(strings.ToLower(r.GQLOperation), m.search)
}

// Method and status use substring containment on the text forms, so "PUT"
// never matches "PATCH" but a free-text "P" would match both.
func (m *Matcher) matchesMethod(r domain.RequestRecord) bool {
	if m.method == domain.AnyMethod {
		return true
	}
	return strings.Contains(r.Method, m.method)
}

func (m *Matcher) matchesStatus(r domain.RequestRecord) bool {
	if m.status == "" {
		return true
	}
	return strings.Contains(r.StatusText(), m.status)
}

// Matches reports whether a single record satisfies the criteria
func Matches(r domain.RequestRecord, c domain.FilterCriteria) bool {
	return NewMatcher(c).Matches(r)
}

// Apply returns the records that satisfy the criteria, in their original order.
// The result is always a new, non-nil slice and records is never modified.
func Apply(records []domain.RequestRecord, c domain.FilterCriteria) []domain.RequestRecord {
	if c.IsEmpty() {
		result := make([]domain.RequestRecord, len(records))
		copy(result, records)
		return result
	}

	m := NewMatcher(c)
	result := make([]domain.RequestRecord, 0, len(records))
	for _, r := range records {
		if m.Matches(r) {
			result = append(result, r)
		}
	}
	return result
}

// ApplyLimit filters records and returns at most limit of the newest matches,
// along with the total number of matches.
func ApplyLimit(records []domain.RequestRecord, c domain.FilterCriteria, limit int) ([]domain.RequestRecord, int) {
	filtered := Apply(records, c)

	total := len(filtered)
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	return filtered, total
}

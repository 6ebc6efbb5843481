package domain

import (
	"strconv"
	"time"
)

// RequestRecord represents a single captured request/response pair.
// Records are owned by the request source and treated as read-only
// everywhere else.
type RequestRecord struct {
	ID           string        `json:"id" yaml:"id"`
	Timestamp    time.Time     `json:"timestamp" yaml:"timestamp"`
	Method       string        `json:"method" yaml:"method"`
	URL          string        `json:"url" yaml:"url"`
	GQLOperation string        `json:"gql_operation,omitempty" yaml:"gql_operation,omitempty"`
	StatusCode   int           `json:"status_code" yaml:"status_code"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// HasStatus returns true once a response status code has been recorded.
func (r RequestRecord) HasStatus() bool {
	return r.StatusCode > 0
}

// HasGQLOperation returns true if the request carried a GraphQL operation name.
func (r RequestRecord) HasGQLOperation() bool {
	return r.GQLOperation != ""
}

// StatusText returns the decimal form of the status code.
func (r RequestRecord) StatusText() string {
	return strconv.Itoa(r.StatusCode)
}

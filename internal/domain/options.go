package domain

import "strconv"

// HTTP methods offered by the method selector
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
	MethodPatch  = "PATCH"
)

// MethodOption is a single entry in the method selector.
type MethodOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// StatusOption is a single entry in the status code selector.
type StatusOption struct {
	Key   int    `json:"key"`
	Label string `json:"label"`
}

// Labels for the "match any" selector entries
const (
	AllMethodsLabel  = "All HTTP Methods"
	AllStatusesLabel = "All HTTP Statuses"
)

var selectableMethods = []string{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch}

var selectableStatusCodes = []int{100, 200, 201, 203, 206, 400, 401, 403, 500, 504}

// MethodOptions returns the method selector entries. The "match any" entry is last.
func MethodOptions() []MethodOption {
	opts := make([]MethodOption, 0, len(selectableMethods)+1)
	for _, m := range selectableMethods {
		opts = append(opts, MethodOption{Key: m, Label: m})
	}
	return append(opts, MethodOption{Key: AnyMethod, Label: AllMethodsLabel})
}

// StatusOptions returns the status selector entries. The "match any" entry is last.
func StatusOptions() []StatusOption {
	opts := make([]StatusOption, 0, len(selectableStatusCodes)+1)
	for _, code := range selectableStatusCodes {
		opts = append(opts, StatusOption{Key: code, Label: strconv.Itoa(code)})
	}
	return append(opts, StatusOption{Key: AnyStatus, Label: AllStatusesLabel})
}

// MethodLabel returns the selector label for a method criterion.
func MethodLabel(method string) string {
	if method == AnyMethod {
		return AllMethodsLabel
	}
	return method
}

// StatusLabel returns the selector label for a status criterion.
func StatusLabel(code int) string {
	if code == AnyStatus {
		return AllStatusesLabel
	}
	return strconv.Itoa(code)
}

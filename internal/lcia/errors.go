package lcia

import "fmt"

// ValidationError rejects a request before any catalog access.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// SchemeNotFoundError rejects a request whose scheme selector matches no
// catalog scheme. Like validation errors, it is raised before the batch fetch.
type SchemeNotFoundError struct {
	Selector string
}

func (e *SchemeNotFoundError) Error() string {
	return "weighting scheme not found: " + e.Selector
}

// InternalError marks a catalog/code disagreement, e.g. a weighted row whose
// category has no grading bounds. These abort the request; the engine never
// substitutes a fabricated number for a detected inconsistency.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string {
	return "internal inconsistency: " + e.Reason
}

func internalf(format string, args ...any) *InternalError {
	return &InternalError{Reason: fmt.Sprintf(format, args...)}
}

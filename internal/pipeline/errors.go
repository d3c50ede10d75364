package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies pipeline failures so transport layers can map them to
// a response code without parsing message text.
type ErrorKind string

const (
	// KindNotFound means the tenant does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindConfiguration means the tenant exists but cannot be scraped.
	KindConfiguration ErrorKind = "configuration"
	// KindUpstream means the scrape vendor call failed.
	KindUpstream ErrorKind = "upstream"
	// KindReconciliation means the payload could not be persisted.
	KindReconciliation ErrorKind = "reconciliation"
	// KindEnrichment means the background analysis stage failed.
	KindEnrichment ErrorKind = "enrichment"
)

// Error is the pipeline failure type surfaced to callers.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pipeline: %s: %v", e.Msg, e.Err)
	}
	return "pipeline: " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP response code.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConfiguration:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain, or empty when the error is
// not a pipeline error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FetchError reports a network, HTTP, or filesystem failure retrieving a
// tabular or geographic source.
type FetchError struct {
	Source     string
	StatusCode int // zero when no HTTP response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a payload that is malformed beyond what the loaders can
// recover from: empty CSV text, no locatable header, invalid JSON, or a
// feature collection without a feature array.
type ParseError struct {
	Source string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse " + e.Source + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptyResultError reports a well-formed payload that produced zero usable
// rows or features after filtering.
type EmptyResultError struct {
	Source string
	What   string // "rows", "features", "paired points", ...
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: no usable %s", e.Source, e.What)
}

// JoinMismatchWarning summarizes features and records that found no partner
// during a join. It is informational and never aborts rendering.
type JoinMismatchWarning struct {
	UnmatchedFeatures []string // feature IDs
	UnmatchedRecords  []string // raw record keys
}

func (w *JoinMismatchWarning) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "join mismatch: %d features without data, %d records without a feature",
		len(w.UnmatchedFeatures), len(w.UnmatchedRecords))
	if n := len(w.UnmatchedRecords); n > 0 {
		shown := w.UnmatchedRecords
		if n > 5 {
			shown = shown[:5]
		}
		fmt.Fprintf(&b, " (e.g. %s)", strings.Join(shown, ", "))
	}
	return b.String()
}

// ErrorKind names the category of a load failure for user-facing display.
func ErrorKind(err error) string {
	var (
		fetchErr *FetchError
		parseErr *ParseError
		emptyErr *EmptyResultError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "FetchError"
	case errors.As(err, &parseErr):
		return "ParseError"
	case errors.As(err, &emptyErr):
		return "EmptyResultError"
	default:
		return "Error"
	}
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	base := errors.New("connection refused")

	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "FetchError", ErrorKind(fmt.Errorf("load: %w", &FetchError{Source: "geo", Err: base})))
	assert.Equal(t, "ParseError", ErrorKind(&ParseError{Source: "csv", Reason: "empty CSV text"}))
	assert.Equal(t, "EmptyResultError", ErrorKind(&EmptyResultError{Source: "geo", What: "features"}))
	assert.Equal(t, "Error", ErrorKind(base))
}

func TestErrorMessages(t *testing.T) {
	base := errors.New("boom")

	fetch := &FetchError{Source: "https://example.com/a.csv", StatusCode: 404, Err: base}
	assert.Equal(t, "fetch https://example.com/a.csv: status 404: boom", fetch.Error())
	assert.ErrorIs(t, fetch, base)

	parse := &ParseError{Source: "a.csv", Reason: "malformed CSV", Err: base}
	assert.Equal(t, "parse a.csv: malformed CSV: boom", parse.Error())
	assert.ErrorIs(t, parse, base)

	empty := &EmptyResultError{Source: "geo", What: "features"}
	assert.Equal(t, "geo: no usable features", empty.Error())
}

func TestJoinMismatchWarning_TruncatesExamples(t *testing.T) {
	w := &JoinMismatchWarning{UnmatchedRecords: []string{"a", "b", "c", "d", "e", "f", "g"}}

	assert.Equal(t, "join mismatch: 0 features without data, 7 records without a feature (e.g. a, b, c, d, e)", w.Error())
}

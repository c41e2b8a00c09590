// Package index writes assembled documents to the search backend with
// idempotent upsert semantics and per-document failure reporting.
package index

import (
	"errors"
	"fmt"

	"najah-search-go/internal/model"
)

// Kind classifies a per-document outcome in a batch report.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindValidation     Kind = "validation_failure"
	KindSchemaMismatch Kind = "schema_mismatch"
	KindTransient      Kind = "transient_backend_error"
	KindFailure        Kind = "failure"
)

// SchemaMismatchError marks a document whose shape disagrees with the active
// index mapping. It is fatal for that document and never silently coerced.
type SchemaMismatchError struct {
	DocID string
	Got   int
	Want  int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("document %s: vector dimension %d does not match schema dimension %d", e.DocID, e.Got, e.Want)
}

// TransientError marks a backend failure that survived every retry attempt.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("backend still failing after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ErrMissingDocID rejects documents that reached the indexing client without
// a stable identity.
var ErrMissingDocID = errors.New("document has no id")

// KindOf maps an error to its outcome kind for batch reports.
func KindOf(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	var validation *model.ValidationError
	if errors.As(err, &validation) {
		return KindValidation
	}
	var mismatch *SchemaMismatchError
	if errors.As(err, &mismatch) {
		return KindSchemaMismatch
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return KindTransient
	}
	if errors.Is(err, ErrMissingDocID) {
		return KindValidation
	}
	return KindFailure
}

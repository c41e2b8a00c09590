package model

import "fmt"

// ValidationError reports an assembled document violating a required
// invariant. It is fatal to that document's assembly and never touches the
// index; sibling documents in a batch are unaffected.
type ValidationError struct {
	SourceUUID string
	Invariant  string
	Field      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %s: invariant %q violated on field %q", e.SourceUUID, e.Invariant, e.Field)
}

package reconcile

import (
	"errors"
	"fmt"
)

// ErrNoFlowchart means the backend holds nothing for the product yet.
// Callers offer template selection rather than reporting a failure.
var ErrNoFlowchart = errors.New("reconcile: no flowchart stored for product")

// IdentifierParseError describes a record left out of the load join because
// one of its ids could not be parsed. It is reported, never fatal.
type IdentifierParseError struct {
	Kind     string `json:"kind"` // "step", "hazard" or "ccp"
	RecordID string `json:"recordId"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Err      error  `json:"-"`
}

func (e IdentifierParseError) Error() string {
	return fmt.Sprintf("reconcile: %s %q: cannot parse %s %q: %v", e.Kind, e.RecordID, e.Field, e.Value, e.Err)
}

func (e IdentifierParseError) Unwrap() error { return e.Err }

// PersistenceError aborts a save. Steps written before the failure stay written.
type PersistenceError struct {
	NodeID     string
	StepNumber int
	Op         string
	Succeeded  int
	Created    int
	Updated    int
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("reconcile: %s failed after %d steps were saved: %v", e.Op, e.Succeeded, e.Err)
	}
	return fmt.Sprintf("reconcile: %s of step %d (%s) failed after %d steps were saved: %v",
		e.Op, e.StepNumber, e.NodeID, e.Succeeded, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

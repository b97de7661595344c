package flowchart

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// ClientIDPrefix marks ids allocated in-session for unsaved nodes.
	ClientIDPrefix = "node_"
	// StepIDPrefix marks ids derived from a persisted process step.
	StepIDPrefix = "step_"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// IDAllocator hands out sequential client ids. It belongs to one Flowchart and
// is seeded from every id the flowchart has seen, loaded ones included.
type IDAllocator struct {
	last int
}

// Observe raises the allocator past the numeric part of id, if it has one.
func (a *IDAllocator) Observe(id string) {
	if n, ok := NumericID(id); ok && n > a.last {
		a.last = n
	}
}

// Next returns a fresh id strictly greater than any observed one.
func (a *IDAllocator) Next() string {
	a.last++
	return ClientIDPrefix + strconv.Itoa(a.last)
}

// Last is the highest number observed or allocated so far.
func (a *IDAllocator) Last() int { return a.last }

// NumericID strips the non-numeric prefix of id ("node_57" -> 57).
func NumericID(id string) (int, bool) {
	m := trailingDigits.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// StepID builds the node id of a persisted process step.
func StepID(stepID int64) string {
	return StepIDPrefix + strconv.FormatInt(stepID, 10)
}

// ParseStepID extracts the persisted step id from a step_<n> node id.
func ParseStepID(nodeID string) (int64, error) {
	rest, ok := strings.CutPrefix(nodeID, StepIDPrefix)
	if !ok {
		return 0, fmt.Errorf("flowchart: %q is not a step id", nodeID)
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("flowchart: %q is not a step id: %w", nodeID, err)
	}
	return n, nil
}

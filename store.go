package flowchart

import (
	"context"
	"errors"
)

var (
	ErrNodeNotFound     = errors.New("flowchart: node not found")
	ErrEdgeNotFound     = errors.New("flowchart: edge not found")
	ErrDuplicateNodeID  = errors.New("flowchart: duplicate node id")
	ErrDuplicateEdgeID  = errors.New("flowchart: duplicate edge id")
	ErrSelfLoop         = errors.New("flowchart: edge source and target are the same node")
	ErrStructuralEdge   = errors.New("flowchart: START cannot have incoming and END cannot have outgoing edges")
	ErrUnknownNodeType  = errors.New("flowchart: unknown node type")
	ErrDanglingEdge     = errors.New("flowchart: edge references a missing node")
	ErrEmptyNodeID      = errors.New("flowchart: node id is empty")
	ErrStepNotPersisted = errors.New("flowchart: process step not found")
	ErrOrphanCCP        = errors.New("flowchart: CCP has no hazard to attach to")
)

// Backend is the relational side of a flowchart: process steps plus the
// hazards and CCPs hanging off them. Implementations talk to whatever
// transport or database holds those records.
type Backend interface {
	// FetchProcessSteps returns the stored steps and edges of a product.
	// Returns nil, nil when the product has no stored flowchart.
	FetchProcessSteps(ctx context.Context, productID int64) (*FlowRecord, error)
	FetchHazards(ctx context.Context, productID int64) ([]HazardRecord, error)
	FetchCCPs(ctx context.Context, productID int64) ([]CCPRecord, error)

	// CreateProcessStep stores a new step and returns its backend id.
	CreateProcessStep(ctx context.Context, productID int64, step *StepWrite) (int64, error)
	// UpdateProcessStep overwrites an existing step.
	// Returns ErrStepNotPersisted if the step doesn't exist.
	UpdateProcessStep(ctx context.Context, stepID int64, step *StepWrite) error
}

// HazardWriter is implemented by backends that also store the hazards and CCP
// of a step. Save calls it right after the step itself was written.
type HazardWriter interface {
	ReplaceStepHazards(ctx context.Context, stepID int64, hazards []Hazard, ccp *CCP) error
}

// EdgeWriter is implemented by backends that store the diagram's edges.
// Node ids in the edges are already rewritten to step_<id> form.
type EdgeWriter interface {
	ReplaceEdges(ctx context.Context, productID int64, edges []EdgeRecord) error
}

// Store is a Backend that also manages its own schema.
type Store interface {
	Backend
	HazardWriter
	EdgeWriter

	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error
}

package flowchart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DataPatch is a shallow update of a node's scalar fields. Nil fields are
// left untouched. Hazards and CCP are never part of a patch; use
// ReplaceHazards and ReplaceCCP for those.
type DataPatch struct {
	Label         *string
	StepNumber    *int
	Description   *string
	Equipment     *string
	Temperature   *TemperatureRange
	Time          *TimeSpec
	PH            *Range
	WaterActivity *Range
}

// IsEmpty reports whether the patch changes nothing.
func (p DataPatch) IsEmpty() bool {
	return p.Label == nil && p.StepNumber == nil && p.Description == nil && p.Equipment == nil &&
		p.Temperature == nil && p.Time == nil && p.PH == nil && p.WaterActivity == nil
}

func (f *Flowchart) indexOf(id string) int {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *Flowchart) edgeIndex(id string) int {
	for i := range f.Edges {
		if f.Edges[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *Flowchart) touch() {
	f.Metadata.UpdatedAt = time.Now().UTC()
}

// Node returns a copy of the node with the given id.
func (f *Flowchart) Node(id string) (Node, bool) {
	i := f.indexOf(id)
	if i < 0 {
		return Node{}, false
	}
	return f.Nodes[i].Clone(), true
}

// Allocator exposes the flowchart's id allocator, mainly for inspection.
func (f *Flowchart) Allocator() *IDAllocator { return &f.ids }

// CreateNode appends a node of type t with a freshly allocated client id.
// The payload is copied; hazards are rescored.
func (f *Flowchart) CreateNode(t NodeType, pos Position, data DomainData) (Node, error) {
	if !t.Valid() {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}
	id := f.ids.Next()
	for f.indexOf(id) >= 0 {
		id = f.ids.Next()
	}
	n := Node{
		ID:       id,
		Type:     t,
		Position: pos,
		Label:    t.Label(),
		Data:     data.Clone(),
	}
	n.Data.rescore()
	f.Nodes = append(f.Nodes, n)
	f.touch()
	return n.Clone(), nil
}

// AddNode appends a node that already has an id, e.g. one rebuilt from the
// backend. The allocator is moved past the id.
func (f *Flowchart) AddNode(n Node) error {
	if n.ID == "" {
		return ErrEmptyNodeID
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, n.Type)
	}
	if f.indexOf(n.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	n = n.Clone()
	n.Data.rescore()
	f.Nodes = append(f.Nodes, n)
	f.ids.Observe(n.ID)
	f.touch()
	return nil
}

// DeleteNode removes the node and every edge that starts or ends at it.
func (f *Flowchart) DeleteNode(id string) error {
	i := f.indexOf(id)
	if i < 0 {
		return ErrNodeNotFound
	}
	f.Nodes = append(f.Nodes[:i], f.Nodes[i+1:]...)

	kept := f.Edges[:0]
	for _, e := range f.Edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	f.Edges = kept
	f.touch()
	return nil
}

// MoveNode records a new canvas position.
func (f *Flowchart) MoveNode(id string, pos Position) error {
	i := f.indexOf(id)
	if i < 0 {
		return ErrNodeNotFound
	}
	f.Nodes[i].Position = pos
	return nil
}

// Connect appends an edge from source to target with a generated id.
// Cycles through several nodes are allowed; self-loops and edges into START
// or out of END are not.
func (f *Flowchart) Connect(source, target, label string) (Edge, error) {
	e := Edge{ID: uuid.NewString(), Source: source, Target: target, Label: label}
	if err := f.AddEdge(e); err != nil {
		return Edge{}, err
	}
	return e, nil
}

// AddEdge appends an edge, keeping its id if it has one.
func (f *Flowchart) AddEdge(e Edge) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if f.edgeIndex(e.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
	}
	src := f.indexOf(e.Source)
	dst := f.indexOf(e.Target)
	if src < 0 || dst < 0 {
		return fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, e.Source, e.Target)
	}
	if e.Source == e.Target {
		return ErrSelfLoop
	}
	if f.Nodes[dst].Type == NodeStart || f.Nodes[src].Type == NodeEnd {
		return ErrStructuralEdge
	}
	f.Edges = append(f.Edges, e)
	f.touch()
	return nil
}

// Disconnect removes one edge by id.
func (f *Flowchart) Disconnect(edgeID string) error {
	i := f.edgeIndex(edgeID)
	if i < 0 {
		return ErrEdgeNotFound
	}
	f.Edges = append(f.Edges[:i], f.Edges[i+1:]...)
	f.touch()
	return nil
}

// EdgesOf returns the edges touching a node, in insertion order.
func (f *Flowchart) EdgesOf(nodeID string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Source == nodeID || e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// UpdateNodeData shallow-merges the set fields of p into the node.
// Hazards and CCP are left as they are.
func (f *Flowchart) UpdateNodeData(id string, p DataPatch) error {
	i := f.indexOf(id)
	if i < 0 {
		return ErrNodeNotFound
	}
	n := &f.Nodes[i]
	if p.Label != nil {
		n.Label = *p.Label
	}
	if p.StepNumber != nil {
		n.Data.StepNumber = Int(*p.StepNumber)
	}
	if p.Description != nil {
		n.Data.Description = *p.Description
	}
	if p.Equipment != nil {
		n.Data.Equipment = *p.Equipment
	}
	if p.Temperature != nil {
		n.Data.Temperature = p.Temperature.Clone()
	}
	if p.Time != nil {
		n.Data.Time = p.Time.Clone()
	}
	if p.PH != nil {
		n.Data.PH = p.PH.Clone()
	}
	if p.WaterActivity != nil {
		n.Data.WaterActivity = p.WaterActivity.Clone()
	}
	f.touch()
	return nil
}

// ReplaceHazards swaps the node's whole hazard list for a rescored copy of hazards.
func (f *Flowchart) ReplaceHazards(id string, hazards []Hazard) error {
	i := f.indexOf(id)
	if i < 0 {
		return ErrNodeNotFound
	}
	f.Nodes[i].Data.Hazards = CloneHazards(hazards)
	f.Nodes[i].Data.rescore()
	f.touch()
	return nil
}

// ReplaceCCP swaps the node's CCP record. A nil ccp clears it.
func (f *Flowchart) ReplaceCCP(id string, ccp *CCP) error {
	i := f.indexOf(id)
	if i < 0 {
		return ErrNodeNotFound
	}
	f.Nodes[i].Data.CCP = ccp.Clone()
	f.touch()
	return nil
}

// ProcessSteps returns copies of the non-structural nodes in diagram order.
func (f *Flowchart) ProcessSteps() []Node {
	var out []Node
	for _, n := range f.Nodes {
		if !n.Type.Structural() {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Check verifies the structural invariants of a flowchart that did not come
// through the graph operations, e.g. one decoded from JSON.
func (f *Flowchart) Check() error {
	types := make(map[string]NodeType, len(f.Nodes))
	for _, n := range f.Nodes {
		if n.ID == "" {
			return ErrEmptyNodeID
		}
		if !n.Type.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownNodeType, n.Type)
		}
		if _, dup := types[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		types[n.ID] = n.Type
	}
	edges := make(map[string]struct{}, len(f.Edges))
	for _, e := range f.Edges {
		if _, dup := edges[e.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
		}
		edges[e.ID] = struct{}{}
		src, okS := types[e.Source]
		dst, okT := types[e.Target]
		if !okS || !okT {
			return fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, e.Source, e.Target)
		}
		if e.Source == e.Target {
			return fmt.Errorf("%w: %s", ErrSelfLoop, e.Source)
		}
		if dst == NodeStart || src == NodeEnd {
			return fmt.Errorf("%w: %s -> %s", ErrStructuralEdge, e.Source, e.Target)
		}
	}
	return nil
}

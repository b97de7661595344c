package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meikuraledutech/flowchart"
)

// Ids of the structural nodes added on load. They are never stored.
const (
	StartNodeID = "start"
	EndNodeID   = "end"
)

const structuralGap = 120

// LoadInput is everything the load join needs; fetching it is the caller's job.
type LoadInput struct {
	ProductID   int64
	ProductName string
	Flow        *flowchart.FlowRecord
	Hazards     []flowchart.HazardRecord
	CCPs        []flowchart.CCPRecord
}

// CCPConflict records a CCP that was not surfaced because its step already
// shows another one.
type CCPConflict struct {
	NodeID   string `json:"nodeId,omitempty"`
	HazardID string `json:"hazardId"`
	Attached string `json:"attached"`
	Ignored  string `json:"ignored"`
}

// SkippedRecord is a step or edge the join could not place in the graph.
type SkippedRecord struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// LoadReport lists what the join left out. A load with issues still succeeds.
type LoadReport struct {
	Issues       []IdentifierParseError `json:"issues,omitempty"`
	Conflicts    []CCPConflict          `json:"conflicts,omitempty"`
	SkippedSteps []SkippedRecord        `json:"skippedSteps,omitempty"`
	SkippedEdges []SkippedRecord        `json:"skippedEdges,omitempty"`
	EdgesDerived bool                   `json:"edgesDerived,omitempty"`
}

// Clean reports whether nothing was excluded or hidden.
func (r *LoadReport) Clean() bool {
	return len(r.Issues) == 0 && len(r.Conflicts) == 0 && len(r.SkippedSteps) == 0 && len(r.SkippedEdges) == 0
}

// Build joins backend steps, hazards and CCPs into a flowchart.
//
// Hazards are grouped by process_step_id and CCPs indexed by hazard_id. A
// record whose id does not parse is reported and left out of the mapping.
// Each step shows at most one CCP: the first match in hazard order. Further
// matches are reported as conflicts.
func Build(in LoadInput) (*flowchart.Flowchart, *LoadReport, error) {
	if in.Flow == nil || len(in.Flow.Steps) == 0 {
		return nil, nil, ErrNoFlowchart
	}
	report := &LoadReport{}
	hazardsByStep := groupHazards(in.Hazards, report)
	ccpByHazard := indexCCPs(in.CCPs, report)

	chart := flowchart.New(in.ProductID, in.ProductName)
	chart.Metadata.Status = flowchart.StatusActive

	var nodes []flowchart.Node
	for _, s := range in.Flow.Steps {
		n := nodeFromStep(s)
		if n.Type.Structural() {
			report.SkippedSteps = append(report.SkippedSteps, SkippedRecord{ID: s.ID, Reason: "structural node types are not stored"})
			continue
		}
		stepID, err := flowchart.ParseStepID(s.ID)
		if err != nil {
			report.Issues = append(report.Issues, IdentifierParseError{
				Kind: "step", RecordID: s.ID, Field: "id", Value: s.ID, Err: err,
			})
		} else {
			n.Data.Hazards, n.Data.CCP = attach(n.ID, hazardsByStep[stepID], ccpByHazard, report)
		}
		nodes = append(nodes, n)
	}

	minY, maxY, x := bounds(nodes)
	if err := chart.AddNode(flowchart.Node{
		ID: StartNodeID, Type: flowchart.NodeStart, Label: "Start",
		Position: flowchart.Position{X: x, Y: minY - structuralGap},
	}); err != nil {
		return nil, nil, err
	}

	var placed []flowchart.Node
	for _, n := range nodes {
		if err := chart.AddNode(n); err != nil {
			report.SkippedSteps = append(report.SkippedSteps, SkippedRecord{ID: n.ID, Reason: err.Error()})
			continue
		}
		placed = append(placed, n)
	}

	if err := chart.AddNode(flowchart.Node{
		ID: EndNodeID, Type: flowchart.NodeEnd, Label: "End",
		Position: flowchart.Position{X: x, Y: maxY + structuralGap},
	}); err != nil {
		return nil, nil, err
	}

	if len(in.Flow.Edges) > 0 {
		for _, e := range in.Flow.Edges {
			err := chart.AddEdge(flowchart.Edge{ID: e.ID, Source: e.Source, Target: e.Target, Label: e.Label})
			if err != nil {
				report.SkippedEdges = append(report.SkippedEdges, SkippedRecord{ID: e.ID, Reason: err.Error()})
			}
		}
	} else {
		if err := chainBySteps(chart, placed); err != nil {
			return nil, nil, err
		}
		report.EdgesDerived = true
	}
	return chart, report, nil
}

func nodeFromStep(s flowchart.StepRecord) flowchart.Node {
	params, _ := flowchart.DecodeStepParameters(s.Parameters)

	typ := s.Type
	if typ == "" {
		typ = string(params.Type)
	}
	n := flowchart.Node{
		ID:       s.ID,
		Type:     flowchart.ParseNodeType(typ),
		Position: flowchart.Position{X: s.X, Y: s.Y},
		Label:    s.Label,
		Data:     domainFromStep(s.Data),
	}
	if s.X == 0 && s.Y == 0 {
		n.Position = params.Position
	}
	if n.Label == "" {
		n.Label = n.Type.Label()
	}
	return n
}

func bounds(nodes []flowchart.Node) (minY, maxY, x float64) {
	if len(nodes) == 0 {
		return 0, 0, 250
	}
	minY, maxY, x = nodes[0].Position.Y, nodes[0].Position.Y, nodes[0].Position.X
	for _, n := range nodes[1:] {
		if n.Position.Y < minY {
			minY = n.Position.Y
		}
		if n.Position.Y > maxY {
			maxY = n.Position.Y
		}
	}
	return minY, maxY, x
}

// chainBySteps links START -> steps by step number -> END. Steps without a
// number keep their relative order after the numbered ones.
func chainBySteps(chart *flowchart.Flowchart, steps []flowchart.Node) error {
	ordered := append([]flowchart.Node(nil), steps...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Data.StepNumber, ordered[j].Data.StepNumber
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	prev := StartNodeID
	for _, n := range ordered {
		if _, err := chart.Connect(prev, n.ID, ""); err != nil {
			return fmt.Errorf("reconcile: link %s -> %s: %w", prev, n.ID, err)
		}
		prev = n.ID
	}
	if _, err := chart.Connect(prev, EndNodeID, ""); err != nil {
		return fmt.Errorf("reconcile: link %s -> %s: %w", prev, EndNodeID, err)
	}
	return nil
}

func groupHazards(records []flowchart.HazardRecord, report *LoadReport) map[int64][]flowchart.HazardRecord {
	out := make(map[int64][]flowchart.HazardRecord)
	for _, h := range records {
		stepID, err := h.ProcessStepID.Int64()
		if err != nil {
			report.Issues = append(report.Issues, IdentifierParseError{
				Kind: "hazard", RecordID: string(h.ID), Field: "process_step_id", Value: string(h.ProcessStepID), Err: err,
			})
			continue
		}
		out[stepID] = append(out[stepID], h)
	}
	return out
}

func indexCCPs(records []flowchart.CCPRecord, report *LoadReport) map[int64]flowchart.CCPRecord {
	out := make(map[int64]flowchart.CCPRecord)
	for _, c := range records {
		hazardID, err := c.HazardID.Int64()
		if err != nil {
			report.Issues = append(report.Issues, IdentifierParseError{
				Kind: "ccp", RecordID: string(c.ID), Field: "hazard_id", Value: string(c.HazardID), Err: err,
			})
			continue
		}
		if first, dup := out[hazardID]; dup {
			report.Conflicts = append(report.Conflicts, CCPConflict{
				HazardID: string(c.HazardID), Attached: first.CCPNumber, Ignored: c.CCPNumber,
			})
			continue
		}
		out[hazardID] = c
	}
	return out
}

func attach(nodeID string, records []flowchart.HazardRecord, ccps map[int64]flowchart.CCPRecord, report *LoadReport) ([]flowchart.Hazard, *flowchart.CCP) {
	if len(records) == 0 {
		return nil, nil
	}
	hazards := make([]flowchart.Hazard, 0, len(records))
	var ccp *flowchart.CCP
	for _, r := range records {
		hazards = append(hazards, hazardFromRecord(r))
		if len(ccps) == 0 {
			continue
		}
		hazardID, err := r.ID.Int64()
		if err != nil {
			report.Issues = append(report.Issues, IdentifierParseError{
				Kind: "hazard", RecordID: string(r.ID), Field: "id", Value: string(r.ID), Err: err,
			})
			continue
		}
		rec, ok := ccps[hazardID]
		if !ok {
			continue
		}
		if ccp != nil {
			report.Conflicts = append(report.Conflicts, CCPConflict{
				NodeID: nodeID, HazardID: string(r.ID), Attached: ccp.Number, Ignored: rec.CCPNumber,
			})
			continue
		}
		c := ccpFromRecord(rec)
		ccp = &c
	}
	return hazards, ccp
}

func hazardFromRecord(r flowchart.HazardRecord) flowchart.Hazard {
	h := flowchart.Hazard{
		ID:              string(r.ID),
		Type:            flowchart.HazardType(strings.ToLower(strings.TrimSpace(r.HazardType))),
		Description:     r.Description,
		Likelihood:      r.Likelihood,
		Severity:        r.Severity,
		ControlMeasures: r.ControlMeasures,
		IsCCP:           r.IsCCP,
		RiskStrategy:    flowchart.RiskStrategy(r.RiskStrategy),
	}
	// The stored risk_level is ignored; it may be stale.
	h.Rescore()
	return h
}

func ccpFromRecord(r flowchart.CCPRecord) flowchart.CCP {
	c := flowchart.CCP{
		Number:              r.CCPNumber,
		MonitoringFrequency: r.MonitoringFrequency,
		MonitoringMethod:    r.MonitoringMethod,
		ResponsiblePerson:   r.MonitoringResponsible,
		CorrectiveActions:   r.CorrectiveActions,
		VerificationMethod:  r.VerificationMethod,
	}
	if len(r.CriticalLimits) > 0 {
		for _, l := range r.CriticalLimits {
			c.CriticalLimits = append(c.CriticalLimits, flowchart.CriticalLimit{
				Parameter: l.Parameter, Min: optional(l.Min), Max: optional(l.Max), Unit: l.Unit,
			})
		}
		return c
	}
	min, max := optional(r.CriticalLimitMin), optional(r.CriticalLimitMax)
	if r.CriticalLimitParameter != "" || min != nil || max != nil {
		c.CriticalLimits = []flowchart.CriticalLimit{{
			Parameter: r.CriticalLimitParameter, Min: min, Max: max, Unit: r.CriticalLimitUnit,
		}}
	}
	return c
}

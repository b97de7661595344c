package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/flowchart"
)

// Draft is the editor's private copy of one node. Nothing reaches the
// flowchart until Commit.
type Draft struct {
	c      *Controller
	nodeID string
	base   flowchart.Node
	patch  flowchart.DataPatch
	closed bool

	hazards        []flowchart.Hazard
	hazardsTouched bool
	ccp            *flowchart.CCP
	ccpTouched     bool
}

// CommitResult reports what a commit changed. Issues are the node's
// validation problems after the merge; they do not block the commit but
// will block a save.
type CommitResult struct {
	NodeID string         `json:"nodeId"`
	Node   flowchart.Node `json:"node"`
	Issues []string       `json:"issues,omitempty"`
}

func (d *Draft) NodeID() string { return d.nodeID }

// Dirty reports whether anything was edited.
func (d *Draft) Dirty() bool {
	return !d.patch.IsEmpty() || d.hazardsTouched || d.ccpTouched
}

func (d *Draft) SetLabel(s string)       { d.patch.Label = &s }
func (d *Draft) SetStepNumber(n int)     { d.patch.StepNumber = &n }
func (d *Draft) SetDescription(s string) { d.patch.Description = &s }
func (d *Draft) SetEquipment(s string)   { d.patch.Equipment = &s }

func (d *Draft) SetTemperature(t flowchart.TemperatureRange) { d.patch.Temperature = t.Clone() }
func (d *Draft) SetTime(t flowchart.TimeSpec)                { d.patch.Time = t.Clone() }
func (d *Draft) SetPH(r flowchart.Range)                     { d.patch.PH = r.Clone() }
func (d *Draft) SetWaterActivity(r flowchart.Range)          { d.patch.WaterActivity = r.Clone() }

// Hazards returns a copy of the draft hazard list.
func (d *Draft) Hazards() []flowchart.Hazard {
	return flowchart.CloneHazards(d.hazards)
}

// AddHazard appends a hazard, giving it an id if it has none. The risk level
// is recomputed.
func (d *Draft) AddHazard(h flowchart.Hazard) flowchart.Hazard {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.Rescore()
	d.hazards = append(d.hazards, h)
	d.hazardsTouched = true
	return h
}

// UpdateHazard edits one hazard in place and rescores it.
func (d *Draft) UpdateHazard(id string, edit func(h *flowchart.Hazard)) error {
	for i := range d.hazards {
		if d.hazards[i].ID == id {
			edit(&d.hazards[i])
			d.hazards[i].ID = id
			d.hazards[i].Rescore()
			d.hazardsTouched = true
			return nil
		}
	}
	return fmt.Errorf("session: hazard %s not in draft", id)
}

// SetHazardScores sets likelihood and severity; the risk level follows.
func (d *Draft) SetHazardScores(id string, likelihood, severity int) error {
	return d.UpdateHazard(id, func(h *flowchart.Hazard) {
		h.Likelihood, h.Severity = likelihood, severity
	})
}

func (d *Draft) RemoveHazard(id string) error {
	for i := range d.hazards {
		if d.hazards[i].ID == id {
			d.hazards = append(d.hazards[:i], d.hazards[i+1:]...)
			d.hazardsTouched = true
			return nil
		}
	}
	return fmt.Errorf("session: hazard %s not in draft", id)
}

// CCP returns a copy of the draft CCP record, or nil.
func (d *Draft) CCP() *flowchart.CCP { return d.ccp.Clone() }

// SetCCP replaces the draft CCP record. Nil clears it.
func (d *Draft) SetCCP(ccp *flowchart.CCP) {
	d.ccp = ccp.Clone()
	d.ccpTouched = true
}

// Preview is the node as it would look after Commit.
func (d *Draft) Preview() flowchart.Node {
	scratch := flowchart.New(0, "")
	_ = scratch.AddNode(d.base)
	d.applyTo(scratch)
	n, _ := scratch.Node(d.nodeID)
	return n
}

// Issues validates the preview.
func (d *Draft) Issues() []string {
	return flowchart.ValidateNode(d.Preview())
}

// Commit merges the edit into the flowchart and closes the draft. Scalar
// fields are shallow-merged. Hazards and CCP are replaced wholesale, and only
// when they were edited: removing every hazard clears the node's hazard list,
// and SetCCP(nil) clears its CCP. A CCP left without hazards is committed but
// reported in the result's Issues.
func (d *Draft) Commit() (CommitResult, error) {
	if d.closed {
		return CommitResult{}, ErrDraftClosed
	}
	chart := d.c.chart
	if _, ok := chart.Node(d.nodeID); !ok {
		d.c.close(d)
		return CommitResult{}, fmt.Errorf("%w: %s", flowchart.ErrNodeNotFound, d.nodeID)
	}
	d.applyTo(chart)
	d.c.close(d)

	n, _ := chart.Node(d.nodeID)
	res := CommitResult{NodeID: d.nodeID, Node: n, Issues: flowchart.ValidateNode(n)}
	d.c.log.Debug("node edit committed", "node_id", d.nodeID, "issues", len(res.Issues))
	return res, nil
}

// Cancel discards the draft. The flowchart is not touched.
func (d *Draft) Cancel() {
	if d.closed {
		return
	}
	d.c.close(d)
	d.c.log.Debug("node edit cancelled", "node_id", d.nodeID)
}

// applyTo writes the draft into chart. The node is known to exist.
func (d *Draft) applyTo(chart *flowchart.Flowchart) {
	if !d.patch.IsEmpty() {
		_ = chart.UpdateNodeData(d.nodeID, d.patch)
	}
	if d.hazardsTouched {
		_ = chart.ReplaceHazards(d.nodeID, d.hazards)
	}
	if d.ccpTouched {
		_ = chart.ReplaceCCP(d.nodeID, d.ccp)
	}
}

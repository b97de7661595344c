package reconcile

import (
	"github.com/meikuraledutech/flowchart"
)

// MatchKey says how a node was linked to a stored step.
type MatchKey string

const (
	MatchNone       MatchKey = ""
	MatchStepID     MatchKey = "step_id"
	MatchEmbeddedID MatchKey = "embedded_id"
	MatchStepNumber MatchKey = "step_number"
)

// Op is the kind of step write.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// Write is one planned step write.
type Write struct {
	Op        Op
	NodeID    string
	StepID    int64 // set for updates
	MatchedBy MatchKey
	Step      flowchart.StepWrite
	Hazards   []flowchart.Hazard
	CCP       *flowchart.CCP
}

// stored indexes previously saved steps by every key a node can match on.
type stored struct {
	ids      map[int64]bool
	byClient map[string]int64
	byNumber map[int]int64
	claimed  map[int64]bool
}

func indexStored(existing []flowchart.StepRecord) (*stored, []IdentifierParseError) {
	s := &stored{
		ids:      make(map[int64]bool),
		byClient: make(map[string]int64),
		byNumber: make(map[int]int64),
		claimed:  make(map[int64]bool),
	}
	var issues []IdentifierParseError
	for _, rec := range existing {
		id, err := flowchart.ParseStepID(rec.ID)
		if err != nil {
			issues = append(issues, IdentifierParseError{
				Kind: "step", RecordID: rec.ID, Field: "id", Value: rec.ID, Err: err,
			})
			continue
		}
		s.ids[id] = true
		if params, err := flowchart.DecodeStepParameters(rec.Parameters); err == nil && params.ID != "" {
			if _, dup := s.byClient[params.ID]; !dup {
				s.byClient[params.ID] = id
			}
		}
		if rec.Data.StepNumber != nil {
			if _, dup := s.byNumber[*rec.Data.StepNumber]; !dup {
				s.byNumber[*rec.Data.StepNumber] = id
			}
		}
	}
	return s, issues
}

// claimOwn links a node through keys that name it: its own step_<n> id,
// then the client id embedded in the stored parameters.
func (s *stored) claimOwn(nodeID string) (int64, MatchKey) {
	if id, err := flowchart.ParseStepID(nodeID); err == nil && s.ids[id] && !s.claimed[id] {
		s.claimed[id] = true
		return id, MatchStepID
	}
	if id, ok := s.byClient[nodeID]; ok && !s.claimed[id] {
		s.claimed[id] = true
		return id, MatchEmbeddedID
	}
	return 0, MatchNone
}

// claimNumber links a node by step number.
func (s *stored) claimNumber(stepNumber int) (int64, MatchKey) {
	if id, ok := s.byNumber[stepNumber]; ok && !s.claimed[id] {
		s.claimed[id] = true
		return id, MatchStepNumber
	}
	return 0, MatchNone
}

// Plan decides, without side effects, which steps to create and which to
// update. START and END are skipped. A step without a number gets its
// 1-based position among the process steps.
//
// Every node gets a chance at the keys that name it before any node falls
// back to its step number, so a new node can never take the record of a
// node that was saved before. Each stored step is handed out once.
func Plan(chart *flowchart.Flowchart, existing []flowchart.StepRecord) ([]Write, []IdentifierParseError) {
	idx, issues := indexStored(existing)

	steps := chart.ProcessSteps()
	writes := make([]Write, 0, len(steps))
	for i, n := range steps {
		number := i + 1
		if n.Data.StepNumber != nil {
			number = *n.Data.StepNumber
		}
		w := Write{
			Op:      OpCreate,
			NodeID:  n.ID,
			Step:    stepWrite(n, number),
			Hazards: n.Data.Hazards,
			CCP:     n.Data.CCP,
		}
		if id, key := idx.claimOwn(n.ID); key != MatchNone {
			w.Op, w.StepID, w.MatchedBy = OpUpdate, id, key
		}
		writes = append(writes, w)
	}
	for i := range writes {
		w := &writes[i]
		if w.Op == OpUpdate {
			continue
		}
		if id, key := idx.claimNumber(w.Step.StepNumber); key != MatchNone {
			w.Op, w.StepID, w.MatchedBy = OpUpdate, id, key
		}
	}
	return writes, issues
}

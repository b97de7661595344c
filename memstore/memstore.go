// Package memstore is an in-memory flowchart.Store. It keeps the same
// record shapes as the postgres store and is meant for tests, demos and
// running the server without a database.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/meikuraledutech/flowchart"
)

var _ flowchart.Store = (*Store)(nil)

type stepRow struct {
	productID int64
	record    flowchart.StepRecord
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	nextStep, nextHazard, nextCCP int64

	steps   map[int64]stepRow
	hazards map[int64][]flowchart.HazardRecord // by step
	ccps    map[int64][]flowchart.CCPRecord    // by step
	edges   map[int64][]flowchart.EdgeRecord   // by product

	creates, updates int
}

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.steps = make(map[int64]stepRow)
	s.hazards = make(map[int64][]flowchart.HazardRecord)
	s.ccps = make(map[int64][]flowchart.CCPRecord)
	s.edges = make(map[int64][]flowchart.EdgeRecord)
}

// CreateSchema is a no-op.
func (s *Store) CreateSchema(context.Context) error { return nil }

// DropSchema forgets everything.
func (s *Store) DropSchema(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// Writes reports how many steps were created and updated so far.
func (s *Store) Writes() (creates, updates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates, s.updates
}

// stepIDs returns the product's step ids ordered by step number, then id.
func (s *Store) stepIDs(productID int64) []int64 {
	var ids []int64
	for id, row := range s.steps {
		if row.productID == productID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.steps[ids[i]].record.Data.StepNumber, s.steps[ids[j]].record.Data.StepNumber
		if *a != *b {
			return *a < *b
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (s *Store) FetchProcessSteps(_ context.Context, productID int64) (*flowchart.FlowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.stepIDs(productID)
	if len(ids) == 0 {
		return nil, nil
	}
	flow := &flowchart.FlowRecord{Edges: append([]flowchart.EdgeRecord(nil), s.edges[productID]...)}
	for _, id := range ids {
		flow.Steps = append(flow.Steps, s.steps[id].record)
	}
	return flow, nil
}

func (s *Store) FetchHazards(_ context.Context, productID int64) ([]flowchart.HazardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []flowchart.HazardRecord
	for _, id := range s.stepIDs(productID) {
		out = append(out, s.hazards[id]...)
	}
	return out, nil
}

func (s *Store) FetchCCPs(_ context.Context, productID int64) ([]flowchart.CCPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []flowchart.CCPRecord
	for _, id := range s.stepIDs(productID) {
		out = append(out, s.ccps[id]...)
	}
	return out, nil
}

func record(id int64, step *flowchart.StepWrite) (flowchart.StepRecord, error) {
	params, err := json.Marshal(step.Parameters)
	if err != nil {
		return flowchart.StepRecord{}, fmt.Errorf("flowchart: encode parameters: %w", err)
	}
	return flowchart.StepRecord{
		ID:    flowchart.StepID(id),
		Type:  string(step.Parameters.Type),
		Label: step.StepName,
		X:     step.Parameters.Position.X,
		Y:     step.Parameters.Position.Y,
		Data: flowchart.StepData{
			StepNumber:  flowchart.Int(step.StepNumber),
			Description: step.Description,
			Equipment:   step.Equipment,
			Temperature: value(step.Temperature),
			TimeMinutes: value(step.TimeMinutes),
			PH:          value(step.PH),
			AW:          value(step.AW),
		},
		Parameters: params,
	}, nil
}

func value(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func (s *Store) CreateProcessStep(_ context.Context, productID int64, step *flowchart.StepWrite) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextStep + 1
	rec, err := record(id, step)
	if err != nil {
		return 0, err
	}
	s.nextStep = id
	s.steps[id] = stepRow{productID: productID, record: rec}
	s.creates++
	return id, nil
}

func (s *Store) UpdateProcessStep(_ context.Context, stepID int64, step *flowchart.StepWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.steps[stepID]
	if !ok {
		return flowchart.ErrStepNotPersisted
	}
	rec, err := record(stepID, step)
	if err != nil {
		return err
	}
	row.record = rec
	s.steps[stepID] = row
	s.updates++
	return nil
}

// ReplaceStepHazards stores the CCP against the first hazard flagged as a
// CCP, or the first hazard.
func (s *Store) ReplaceStepHazards(_ context.Context, stepID int64, hazards []flowchart.Hazard, ccp *flowchart.CCP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.steps[stepID]; !ok {
		return flowchart.ErrStepNotPersisted
	}
	if ccp != nil && len(hazards) == 0 {
		return fmt.Errorf("%w: step %d", flowchart.ErrOrphanCCP, stepID)
	}

	records := make([]flowchart.HazardRecord, 0, len(hazards))
	owner := -1
	for i, h := range hazards {
		s.nextHazard++
		records = append(records, flowchart.HazardRecord{
			ID:              flowchart.RecordIDOf(s.nextHazard),
			ProcessStepID:   flowchart.RecordIDOf(stepID),
			HazardType:      string(h.Type),
			Description:     h.Description,
			Likelihood:      h.Likelihood,
			Severity:        h.Severity,
			RiskLevel:       string(flowchart.RiskLevelFor(h.Likelihood, h.Severity)),
			ControlMeasures: h.ControlMeasures,
			IsCCP:           h.IsCCP,
			RiskStrategy:    string(h.RiskStrategy),
		})
		if owner < 0 && h.IsCCP {
			owner = i
		}
	}
	s.hazards[stepID] = records
	delete(s.ccps, stepID)
	if ccp == nil {
		return nil
	}
	if owner < 0 {
		owner = 0
	}

	s.nextCCP++
	rec := flowchart.CCPRecord{
		ID:                    flowchart.RecordIDOf(s.nextCCP),
		HazardID:              records[owner].ID,
		CCPNumber:             ccp.Number,
		MonitoringFrequency:   ccp.MonitoringFrequency,
		MonitoringMethod:      ccp.MonitoringMethod,
		MonitoringResponsible: ccp.ResponsiblePerson,
		CorrectiveActions:     ccp.CorrectiveActions,
		VerificationMethod:    ccp.VerificationMethod,
	}
	for _, l := range ccp.CriticalLimits {
		rec.CriticalLimits = append(rec.CriticalLimits, flowchart.CriticalLimitRecord{
			Parameter: l.Parameter,
			Min:       value(l.Min),
			Max:       value(l.Max),
			Unit:      l.Unit,
		})
	}
	s.ccps[stepID] = []flowchart.CCPRecord{rec}
	return nil
}

func (s *Store) ReplaceEdges(_ context.Context, productID int64, edges []flowchart.EdgeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[productID] = append([]flowchart.EdgeRecord(nil), edges...)
	return nil
}

// DeleteProduct removes a product's steps, hazards, CCPs and edges.
func (s *Store) DeleteProduct(_ context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.steps {
		if row.productID == productID {
			delete(s.steps, id)
			delete(s.hazards, id)
			delete(s.ccps, id)
		}
	}
	delete(s.edges, productID)
	return nil
}

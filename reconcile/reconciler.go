// Package reconcile moves a flowchart between its in-memory graph form and
// the relational process-step, hazard and CCP records of a backend.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meikuraledutech/flowchart"
	"github.com/meikuraledutech/flowchart/internal/logging"
	"github.com/meikuraledutech/flowchart/internal/metrics"
)

// Reconciler loads and saves flowcharts through a Backend.
type Reconciler struct {
	backend flowchart.Backend
	metrics *metrics.Registry
}

type Option func(*Reconciler)

// WithMetrics records load and save outcomes on m.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// New creates a Reconciler backed by b.
func New(b flowchart.Backend, opts ...Option) *Reconciler {
	r := &Reconciler{backend: b}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SavedStep links a node to the backend step it was written to.
type SavedStep struct {
	NodeID    string   `json:"nodeId"`
	StepID    int64    `json:"stepId"`
	Op        Op       `json:"op"`
	MatchedBy MatchKey `json:"matchedBy,omitempty"`
}

// SaveResult is the outcome of a successful save.
type SaveResult struct {
	Created    int         `json:"created"`
	Updated    int         `json:"updated"`
	Steps      []SavedStep `json:"steps"`
	EdgesSaved int         `json:"edgesSaved"`
}

// Load fetches a product's steps, hazards and CCPs and joins them into a
// flowchart. It returns ErrNoFlowchart when nothing is stored.
func (r *Reconciler) Load(ctx context.Context, productID int64, productName string) (*flowchart.Flowchart, *LoadReport, error) {
	log := logging.FromContext(ctx).With("product_id", productID)

	flow, err := r.backend.FetchProcessSteps(ctx, productID)
	if err != nil {
		r.metrics.ObserveLoad("error")
		return nil, nil, fmt.Errorf("reconcile: fetch steps: %w", err)
	}
	if flow == nil || len(flow.Steps) == 0 {
		r.metrics.ObserveLoad(metrics.ResultNotFound)
		return nil, nil, ErrNoFlowchart
	}
	hazards, err := r.backend.FetchHazards(ctx, productID)
	if err != nil {
		r.metrics.ObserveLoad("error")
		return nil, nil, fmt.Errorf("reconcile: fetch hazards: %w", err)
	}
	ccps, err := r.backend.FetchCCPs(ctx, productID)
	if err != nil {
		r.metrics.ObserveLoad("error")
		return nil, nil, fmt.Errorf("reconcile: fetch ccps: %w", err)
	}

	chart, report, err := Build(LoadInput{
		ProductID:   productID,
		ProductName: productName,
		Flow:        flow,
		Hazards:     hazards,
		CCPs:        ccps,
	})
	if err != nil {
		r.metrics.ObserveLoad("error")
		return nil, nil, err
	}

	for _, issue := range report.Issues {
		r.metrics.ObserveLoadIssue(issue.Kind)
		log.Warn("record left out of flowchart", "kind", issue.Kind, "record_id", issue.RecordID, "field", issue.Field, "error", issue.Err)
	}
	for _, c := range report.Conflicts {
		r.metrics.ObserveLoadIssue("ccp_conflict")
		log.Warn("ccp not shown, step already has one", "node_id", c.NodeID, "hazard_id", c.HazardID, "attached", c.Attached, "ignored", c.Ignored)
	}
	for _, s := range report.SkippedSteps {
		r.metrics.ObserveLoadIssue("step")
		log.Warn("step skipped", "id", s.ID, "reason", s.Reason)
	}
	for _, e := range report.SkippedEdges {
		r.metrics.ObserveLoadIssue("edge")
		log.Warn("edge skipped", "id", e.ID, "reason", e.Reason)
	}
	r.metrics.ObserveLoad(metrics.ResultOK)
	log.Info("flowchart loaded", "nodes", len(chart.Nodes), "edges", len(chart.Edges), "hazards", len(hazards), "ccps", len(ccps))
	return chart, report, nil
}

// Save validates chart and writes its process steps one at a time.
//
// Nothing is written when validation fails. The first failed write stops the
// save and is returned as a *PersistenceError; steps written before it stay
// written. A Backend that is also a HazardWriter gets each step's hazards and
// CCP right after the step; an EdgeWriter gets the edges once every step is in.
func (r *Reconciler) Save(ctx context.Context, chart *flowchart.Flowchart) (*SaveResult, error) {
	if chart == nil {
		return nil, errors.New("reconcile: nil flowchart")
	}
	start := time.Now()
	log := logging.FromContext(ctx).With("product_id", chart.ProductID)

	if err := flowchart.Validate(chart); err != nil {
		var verr *flowchart.ValidationError
		if errors.As(err, &verr) {
			r.metrics.ObserveValidation(len(verr.Messages))
		}
		r.metrics.ObserveSave(metrics.ResultValidationFailed, time.Since(start).Seconds())
		log.Info("save refused", "error", err)
		return nil, err
	}

	var existing []flowchart.StepRecord
	flow, err := r.backend.FetchProcessSteps(ctx, chart.ProductID)
	if err != nil {
		r.metrics.ObserveSave(metrics.ResultPersistenceFailed, time.Since(start).Seconds())
		return nil, &PersistenceError{Op: "fetch", Err: err}
	}
	if flow != nil {
		existing = flow.Steps
	}

	writes, issues := Plan(chart, existing)
	for _, issue := range issues {
		log.Warn("stored step ignored for matching", "record_id", issue.RecordID, "error", issue.Err)
	}

	hazardWriter, _ := r.backend.(flowchart.HazardWriter)
	res := &SaveResult{Steps: make([]SavedStep, 0, len(writes))}
	fail := func(w Write, op string, err error) (*SaveResult, error) {
		r.metrics.ObserveSave(metrics.ResultPersistenceFailed, time.Since(start).Seconds())
		log.Error("save aborted", "node_id", w.NodeID, "op", op, "saved", len(res.Steps), "error", err)
		return nil, &PersistenceError{
			NodeID:     w.NodeID,
			StepNumber: w.Step.StepNumber,
			Op:         op,
			Succeeded:  len(res.Steps),
			Created:    res.Created,
			Updated:    res.Updated,
			Err:        err,
		}
	}

	for _, w := range writes {
		step := w.Step
		stepID := w.StepID
		switch w.Op {
		case OpUpdate:
			err = r.backend.UpdateProcessStep(ctx, stepID, &step)
		default:
			stepID, err = r.backend.CreateProcessStep(ctx, chart.ProductID, &step)
		}
		r.metrics.ObserveStepWrite(string(w.Op), err)
		if err != nil {
			return fail(w, string(w.Op), err)
		}
		if hazardWriter != nil {
			if err := hazardWriter.ReplaceStepHazards(ctx, stepID, w.Hazards, w.CCP); err != nil {
				return fail(w, "hazards", err)
			}
		}

		if w.Op == OpUpdate {
			res.Updated++
		} else {
			res.Created++
		}
		res.Steps = append(res.Steps, SavedStep{NodeID: w.NodeID, StepID: stepID, Op: w.Op, MatchedBy: w.MatchedBy})
		log.Debug("step saved", "node_id", w.NodeID, "step_id", stepID, "op", w.Op, "matched_by", w.MatchedBy)
	}

	if edgeWriter, ok := r.backend.(flowchart.EdgeWriter); ok {
		edges := EdgeRecords(chart, res.Steps)
		if err := edgeWriter.ReplaceEdges(ctx, chart.ProductID, edges); err != nil {
			r.metrics.ObserveSave(metrics.ResultPersistenceFailed, time.Since(start).Seconds())
			log.Error("edges not saved", "error", err)
			return nil, &PersistenceError{Op: "edges", Succeeded: len(res.Steps), Created: res.Created, Updated: res.Updated, Err: err}
		}
		res.EdgesSaved = len(edges)
	}

	r.metrics.ObserveSave(metrics.ResultOK, time.Since(start).Seconds())
	log.Info("flowchart saved", "created", res.Created, "updated", res.Updated, "edges", res.EdgesSaved)
	return res, nil
}

// EdgeRecords rewrites the chart's edges to backend ids. START and END are
// never stored, so their endpoints become the fixed ids the load join uses.
func EdgeRecords(chart *flowchart.Flowchart, saved []SavedStep) []flowchart.EdgeRecord {
	ids := make(map[string]string, len(saved)+2)
	for _, n := range chart.Nodes {
		switch n.Type {
		case flowchart.NodeStart:
			ids[n.ID] = StartNodeID
		case flowchart.NodeEnd:
			ids[n.ID] = EndNodeID
		}
	}
	for _, s := range saved {
		ids[s.NodeID] = flowchart.StepID(s.StepID)
	}
	rewrite := func(id string) string {
		if to, ok := ids[id]; ok {
			return to
		}
		return id
	}
	out := make([]flowchart.EdgeRecord, 0, len(chart.Edges))
	for _, e := range chart.Edges {
		out = append(out, flowchart.EdgeRecord{
			ID:     e.ID,
			Source: rewrite(e.Source),
			Target: rewrite(e.Target),
			Label:  e.Label,
		})
	}
	return out
}

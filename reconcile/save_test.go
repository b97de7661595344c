package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/meikuraledutech/flowchart"
	"github.com/meikuraledutech/flowchart/catalog"
	"github.com/meikuraledutech/flowchart/internal/metrics"
	"github.com/meikuraledutech/flowchart/memstore"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func linearChart(t *testing.T, types ...flowchart.NodeType) *flowchart.Flowchart {
	t.Helper()
	chart := flowchart.New(42, "Test product")
	prev := ""
	all := append([]flowchart.NodeType{flowchart.NodeStart}, types...)
	all = append(all, flowchart.NodeEnd)
	for i, typ := range all {
		n, err := chart.CreateNode(typ, flowchart.Position{X: 250, Y: float64(i * 100)}, flowchart.DomainData{})
		require.NoError(t, err)
		if prev != "" {
			_, err := chart.Connect(prev, n.ID, "")
			require.NoError(t, err)
		}
		prev = n.ID
	}
	return chart
}

func TestPlan_SkipsStructuralAndNumbersSteps(t *testing.T) {
	chart := linearChart(t, flowchart.NodeWashing, flowchart.NodeCutting, flowchart.NodeMixing)
	third := chart.ProcessSteps()[2]
	require.NoError(t, chart.UpdateNodeData(third.ID, flowchart.DataPatch{StepNumber: flowchart.Int(10)}))

	writes, issues := Plan(chart, nil)
	assert.Empty(t, issues)
	require.Len(t, writes, 3)
	for _, w := range writes {
		assert.Equal(t, OpCreate, w.Op)
		assert.NotEqual(t, flowchart.NodeStart, w.Step.Parameters.Type)
		assert.NotEqual(t, flowchart.NodeEnd, w.Step.Parameters.Type)
		assert.Equal(t, w.NodeID, w.Step.Parameters.ID)
	}
	assert.Equal(t, 1, writes[0].Step.StepNumber)
	assert.Equal(t, 2, writes[1].Step.StepNumber)
	assert.Equal(t, 10, writes[2].Step.StepNumber)
	assert.Equal(t, "Washing", writes[0].Step.StepName)
}

func TestPlan_MatchKeysInPriorityOrder(t *testing.T) {
	chart := flowchart.New(1, "p")
	for _, n := range []flowchart.Node{
		{ID: "step_5", Type: flowchart.NodeCooking, Data: flowchart.DomainData{StepNumber: flowchart.Int(1)}},
		{ID: "node_2", Type: flowchart.NodeCooling, Data: flowchart.DomainData{StepNumber: flowchart.Int(2)}},
		{ID: "node_3", Type: flowchart.NodeFilling, Data: flowchart.DomainData{StepNumber: flowchart.Int(3)}},
		{ID: "node_4", Type: flowchart.NodeLabeling, Data: flowchart.DomainData{StepNumber: flowchart.Int(4)}},
	} {
		require.NoError(t, chart.AddNode(n))
	}

	params := func(id string) json.RawMessage {
		raw, _ := json.Marshal(flowchart.StepParameters{ID: id})
		return raw
	}
	existing := []flowchart.StepRecord{
		{ID: "step_5", Data: flowchart.StepData{StepNumber: flowchart.Int(9)}},
		{ID: "step_6", Data: flowchart.StepData{StepNumber: flowchart.Int(1)}, Parameters: params("node_2")},
		{ID: "step_7", Data: flowchart.StepData{StepNumber: flowchart.Int(3)}},
		{ID: "bogus", Data: flowchart.StepData{StepNumber: flowchart.Int(4)}},
	}

	writes, issues := Plan(chart, existing)
	require.Len(t, issues, 1)
	assert.Equal(t, "bogus", issues[0].RecordID)

	require.Len(t, writes, 4)
	assert.Equal(t, Write{Op: OpUpdate, StepID: 5, MatchedBy: MatchStepID}, pick(writes[0]))
	assert.Equal(t, Write{Op: OpUpdate, StepID: 6, MatchedBy: MatchEmbeddedID}, pick(writes[1]))
	assert.Equal(t, Write{Op: OpUpdate, StepID: 7, MatchedBy: MatchStepNumber}, pick(writes[2]))
	assert.Equal(t, Write{Op: OpCreate}, pick(writes[3]))
}

func TestPlan_ClaimsEachRecordOnce(t *testing.T) {
	chart := flowchart.New(1, "p")
	require.NoError(t, chart.AddNode(flowchart.Node{ID: "node_1", Type: flowchart.NodeCooking, Data: flowchart.DomainData{StepNumber: flowchart.Int(1)}}))
	require.NoError(t, chart.AddNode(flowchart.Node{ID: "node_2", Type: flowchart.NodeCooling, Data: flowchart.DomainData{StepNumber: flowchart.Int(1)}}))

	writes, _ := Plan(chart, []flowchart.StepRecord{{ID: "step_3", Data: flowchart.StepData{StepNumber: flowchart.Int(1)}}})
	require.Len(t, writes, 2)
	assert.Equal(t, OpUpdate, writes[0].Op)
	assert.Equal(t, OpCreate, writes[1].Op)
}

func TestPlan_NewNodeAheadOfSavedOnes(t *testing.T) {
	chart := flowchart.New(1, "p")
	for _, n := range []flowchart.Node{
		{ID: "node_3", Type: flowchart.NodeWashing, Data: flowchart.DomainData{StepNumber: flowchart.Int(1)}},
		{ID: "step_1", Type: flowchart.NodeCooking, Data: flowchart.DomainData{StepNumber: flowchart.Int(2)}},
		{ID: "step_2", Type: flowchart.NodeCooling, Data: flowchart.DomainData{StepNumber: flowchart.Int(3)}},
	} {
		require.NoError(t, chart.AddNode(n))
	}
	existing := []flowchart.StepRecord{
		{ID: "step_1", Data: flowchart.StepData{StepNumber: flowchart.Int(1)}},
		{ID: "step_2", Data: flowchart.StepData{StepNumber: flowchart.Int(2)}},
	}

	writes, issues := Plan(chart, existing)
	assert.Empty(t, issues)
	require.Len(t, writes, 3)
	assert.Equal(t, Write{Op: OpCreate}, pick(writes[0]), "renumbered records stay with their nodes")
	assert.Equal(t, Write{Op: OpUpdate, StepID: 1, MatchedBy: MatchStepID}, pick(writes[1]))
	assert.Equal(t, Write{Op: OpUpdate, StepID: 2, MatchedBy: MatchStepID}, pick(writes[2]))
}

func TestPlan_EmbeddedIDBeatsEarlierStepNumber(t *testing.T) {
	chart := flowchart.New(1, "p")
	require.NoError(t, chart.AddNode(flowchart.Node{ID: "node_9", Type: flowchart.NodeWashing, Data: flowchart.DomainData{StepNumber: flowchart.Int(1)}}))
	require.NoError(t, chart.AddNode(flowchart.Node{ID: "node_4", Type: flowchart.NodeCooking, Data: flowchart.DomainData{StepNumber: flowchart.Int(2)}}))

	raw, err := json.Marshal(flowchart.StepParameters{ID: "node_4"})
	require.NoError(t, err)
	writes, _ := Plan(chart, []flowchart.StepRecord{
		{ID: "step_8", Data: flowchart.StepData{StepNumber: flowchart.Int(1)}, Parameters: raw},
	})
	require.Len(t, writes, 2)
	assert.Equal(t, Write{Op: OpCreate}, pick(writes[0]))
	assert.Equal(t, Write{Op: OpUpdate, StepID: 8, MatchedBy: MatchEmbeddedID}, pick(writes[1]))
}

func pick(w Write) Write {
	return Write{Op: w.Op, StepID: w.StepID, MatchedBy: w.MatchedBy}
}

func TestStepWrite_FlattensParameters(t *testing.T) {
	n := flowchart.Node{
		ID:   "node_4",
		Type: flowchart.NodePasteurization,
		Data: flowchart.DomainData{
			Temperature:   &flowchart.TemperatureRange{Min: flowchart.Float(72), Max: flowchart.Float(75), Unit: "C"},
			Time:          &flowchart.TimeSpec{Duration: 30, Unit: "s"},
			PH:            &flowchart.Range{Min: flowchart.Float(6.5)},
			WaterActivity: &flowchart.Range{Target: flowchart.Float(0.98), Max: flowchart.Float(0.99)},
		},
	}
	w := stepWrite(n, 3)
	assert.Equal(t, "Pasteurization", w.StepName)
	assert.Equal(t, 75.0, *w.Temperature)
	assert.Equal(t, 0.5, *w.TimeMinutes)
	assert.Equal(t, 6.5, *w.PH)
	assert.Equal(t, 0.98, *w.AW)

	n.Data.Temperature = &flowchart.TemperatureRange{Target: flowchart.Float(212), Unit: "°F"}
	assert.InDelta(t, 100.0, *stepWrite(n, 3).Temperature, 1e-9)
}

func TestSave_ValidationFailureWritesNothing(t *testing.T) {
	chart := linearChart(t, flowchart.NodeCooking)
	cooking := chart.ProcessSteps()[0]
	require.NoError(t, chart.ReplaceCCP(cooking.ID, &flowchart.CCP{Number: "CCP-1"}))

	backend := new(mockBackend)
	reg := metrics.NewRegistry()
	r := New(backend, WithMetrics(reg))

	res, err := r.Save(context.Background(), chart)
	require.Error(t, err)
	assert.Nil(t, res)

	var verr *flowchart.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Messages, 6)
	backend.AssertNotCalled(t, "FetchProcessSteps", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "CreateProcessStep", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.SavesTotal.WithLabelValues(metrics.ResultValidationFailed)))
	assert.Equal(t, 6.0, testutil.ToFloat64(reg.ValidationIssues))
}

func TestSave_CCPWithoutHazardWritesNothing(t *testing.T) {
	chart := linearChart(t, flowchart.NodeWashing, flowchart.NodeCooling)
	cooling := chart.ProcessSteps()[1]
	require.NoError(t, chart.ReplaceCCP(cooling.ID, &flowchart.CCP{
		Number:              "CCP-9",
		CriticalLimits:      []flowchart.CriticalLimit{{Parameter: "Core temperature", Max: flowchart.Float(5), Unit: "°C"}},
		MonitoringFrequency: "Every batch",
		MonitoringMethod:    "Core thermometer",
		CorrectiveActions:   "Extend cooling",
		VerificationMethod:  "Record review",
	}))

	backend := memstore.New()
	_, err := New(backend).Save(context.Background(), chart)

	var verr *flowchart.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Messages, 1)
	assert.Contains(t, verr.Messages[0], "a CCP needs at least one hazard")
	creates, updates := backend.Writes()
	assert.Zero(t, creates)
	assert.Zero(t, updates)
}

func TestSave_CreatesNewSteps(t *testing.T) {
	ctx := context.Background()
	chart := linearChart(t, flowchart.NodeWashing, flowchart.NodeCutting)
	steps := chart.ProcessSteps()

	backend := new(mockBackend)
	backend.On("FetchProcessSteps", ctx, int64(42)).Return(nil, nil).Once()
	backend.On("CreateProcessStep", ctx, int64(42), mock.MatchedBy(func(s *flowchart.StepWrite) bool {
		return s.Parameters.ID == steps[0].ID && s.StepNumber == 1
	})).Return(int64(100), nil).Once()
	backend.On("CreateProcessStep", ctx, int64(42), mock.MatchedBy(func(s *flowchart.StepWrite) bool {
		return s.Parameters.ID == steps[1].ID && s.StepNumber == 2
	})).Return(int64(101), nil).Once()

	res, err := New(backend).Save(ctx, chart)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, []SavedStep{
		{NodeID: steps[0].ID, StepID: 100, Op: OpCreate},
		{NodeID: steps[1].ID, StepID: 101, Op: OpCreate},
	}, res.Steps)
	assert.Zero(t, res.EdgesSaved, "mock backend has no edge writer")
	backend.AssertExpectations(t)
}

func TestSave_PartialFailureKeepsPrefix(t *testing.T) {
	ctx := context.Background()
	chart := linearChart(t, flowchart.NodeWashing, flowchart.NodeCutting, flowchart.NodeMixing)
	steps := chart.ProcessSteps()
	boom := errors.New("connection reset")

	backend := new(mockBackend)
	backend.On("FetchProcessSteps", ctx, int64(42)).Return(nil, nil)
	backend.On("CreateProcessStep", ctx, int64(42), mock.MatchedBy(func(s *flowchart.StepWrite) bool {
		return s.StepNumber == 1
	})).Return(int64(1), nil).Once()
	backend.On("CreateProcessStep", ctx, int64(42), mock.MatchedBy(func(s *flowchart.StepWrite) bool {
		return s.StepNumber == 2
	})).Return(int64(0), boom).Once()

	reg := metrics.NewRegistry()
	_, err := New(backend, WithMetrics(reg)).Save(ctx, chart)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, steps[1].ID, perr.NodeID)
	assert.Equal(t, 2, perr.StepNumber)
	assert.Equal(t, 1, perr.Succeeded)
	assert.Equal(t, 1, perr.Created)
	assert.Equal(t, string(OpCreate), perr.Op)

	backend.AssertNumberOfCalls(t, "CreateProcessStep", 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StepWritesTotal.WithLabelValues("create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.SavesTotal.WithLabelValues(metrics.ResultPersistenceFailed)))
}

func TestSave_FetchFailureIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	backend := new(mockBackend)
	backend.On("FetchProcessSteps", ctx, int64(42)).Return(nil, errors.New("timeout"))

	_, err := New(backend).Save(ctx, linearChart(t, flowchart.NodeWashing))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "fetch", perr.Op)
	assert.Zero(t, perr.Succeeded)
}

func TestLoad_NotFound(t *testing.T) {
	ctx := context.Background()
	backend := new(mockBackend)
	backend.On("FetchProcessSteps", ctx, int64(9)).Return(nil, nil)

	reg := metrics.NewRegistry()
	_, _, err := New(backend, WithMetrics(reg)).Load(ctx, 9, "Nothing")
	assert.ErrorIs(t, err, ErrNoFlowchart)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.LoadsTotal.WithLabelValues(metrics.ResultNotFound)))
	backend.AssertNotCalled(t, "FetchHazards", mock.Anything, mock.Anything)
}

func TestRoundTrip_SecondSaveOnlyUpdates(t *testing.T) {
	ctx := context.Background()
	chart, err := catalog.NewFromTemplate("dairy-line", 42, "Whole milk")
	require.NoError(t, err)

	backend := memstore.New()
	r := New(backend)

	first, err := r.Save(ctx, chart)
	require.NoError(t, err)
	assert.Equal(t, 9, first.Created)
	assert.Zero(t, first.Updated)
	assert.Equal(t, 10, first.EdgesSaved)

	loaded, report, err := r.Load(ctx, 42, "Whole milk")
	require.NoError(t, err)
	assert.True(t, report.Clean(), "%+v", report)
	assert.False(t, report.EdgesDerived)
	assert.Len(t, loaded.Nodes, 11)
	assert.Len(t, loaded.Edges, 10)
	assert.Equal(t, StartNodeID, loaded.Edges[0].Source)

	var ccps []string
	for _, n := range loaded.Nodes {
		if n.Data.CCP != nil {
			ccps = append(ccps, n.Data.CCP.Number)
		}
	}
	assert.Equal(t, []string{"CCP-1", "CCP-2"}, ccps)

	second, err := r.Save(ctx, loaded)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 9, second.Updated)
	for _, s := range second.Steps {
		assert.Equal(t, MatchStepID, s.MatchedBy)
	}
	creates, updates := backend.Writes()
	assert.Equal(t, 9, creates)
	assert.Equal(t, 9, updates)
}

func TestRoundTrip_OriginalChartMatchesByEmbeddedID(t *testing.T) {
	ctx := context.Background()
	chart, err := catalog.NewFromTemplate("ready-meal", 42, "Lasagne")
	require.NoError(t, err)

	r := New(memstore.New())
	_, err = r.Save(ctx, chart)
	require.NoError(t, err)

	again, err := r.Save(ctx, chart)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	for _, s := range again.Steps {
		assert.Equal(t, MatchEmbeddedID, s.MatchedBy)
	}
}

func TestEdgeRecords_RewritesIDs(t *testing.T) {
	chart := linearChart(t, flowchart.NodeWashing)
	washing := chart.ProcessSteps()[0]
	edges := EdgeRecords(chart, []SavedStep{{NodeID: washing.ID, StepID: 77}})
	require.Len(t, edges, 2)
	assert.Equal(t, StartNodeID, edges[0].Source)
	assert.Equal(t, "step_77", edges[0].Target)
	assert.Equal(t, "step_77", edges[1].Source)
	assert.Equal(t, EndNodeID, edges[1].Target)
}

package session

import (
	"testing"

	"github.com/meikuraledutech/flowchart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *Controller {
	t.Helper()
	return New(flowchart.New(1, "Yoghurt"))
}

func TestDrop_AppliesCatalogDefault(t *testing.T) {
	c := newSession(t)

	n, err := c.Drop(flowchart.NodeColdStorage, flowchart.Position{X: 10, Y: 20}, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, "node_1", n.ID)
	assert.Equal(t, "Cold Storage", n.Label)
	assert.Equal(t, flowchart.Position{X: 10, Y: 20}, n.Position)

	require.Len(t, n.Data.Hazards, 1)
	h := n.Data.Hazards[0]
	assert.Equal(t, flowchart.HazardBiological, h.Type)
	assert.Equal(t, 2, h.Likelihood)
	assert.Equal(t, 4, h.Severity)
	assert.Equal(t, flowchart.RiskMedium, h.RiskLevel)
	assert.True(t, h.IsCCP)

	require.NotNil(t, n.Data.CCP)
	assert.Equal(t, "CCP-1", n.Data.CCP.Number)
	require.Len(t, n.Data.CCP.CriticalLimits, 1)
	assert.Equal(t, 6.0, *n.Data.CCP.CriticalLimits[0].Max)

	assert.Empty(t, flowchart.ValidateNode(n))
	assert.NoError(t, c.Validate())
}

func TestDrop_UnknownTypeLeavesGraphUntouched(t *testing.T) {
	c := newSession(t)
	_, err := c.Drop("NOT_A_TYPE", flowchart.Position{}, Hooks{})
	require.Error(t, err)
	assert.Empty(t, c.Chart().Nodes)
	assert.Zero(t, c.Chart().Allocator().Last())
}

func TestDrop_IDsStayUniqueAfterLoad(t *testing.T) {
	chart := flowchart.New(1, "p")
	require.NoError(t, chart.AddNode(flowchart.Node{ID: "step_57", Type: flowchart.NodeCooking}))
	c := New(chart)

	n, err := c.Drop(flowchart.NodeCooling, flowchart.Position{}, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, "node_58", n.ID)
}

func TestOpen_OneDraftAtATime(t *testing.T) {
	c := newSession(t)
	a, _ := c.Drop(flowchart.NodeWashing, flowchart.Position{}, Hooks{})
	b, _ := c.Drop(flowchart.NodeCutting, flowchart.Position{}, Hooks{})

	d, err := c.Open(a.ID)
	require.NoError(t, err)
	assert.Equal(t, Editing, c.State())
	assert.Same(t, d, c.Current())

	_, err = c.Open(b.ID)
	assert.ErrorIs(t, err, ErrAlreadyEditing)

	d.Cancel()
	assert.Equal(t, Viewing, c.State())
	_, err = c.Open(b.ID)
	assert.NoError(t, err)
}

func TestOpen_MissingNode(t *testing.T) {
	c := newSession(t)
	_, err := c.Open("node_404")
	assert.ErrorIs(t, err, flowchart.ErrNodeNotFound)
	assert.Equal(t, Viewing, c.State())
}

func TestCancel_MutatesNothing(t *testing.T) {
	c := newSession(t)
	n, _ := c.Drop(flowchart.NodePasteurization, flowchart.Position{}, Hooks{})
	before := c.Chart().Clone()

	d, err := c.Open(n.ID)
	require.NoError(t, err)
	d.SetLabel("HTST")
	d.SetTemperature(flowchart.TemperatureRange{Target: flowchart.Float(80), Unit: "C"})
	require.NoError(t, d.RemoveHazard(n.Data.Hazards[0].ID))
	d.SetCCP(nil)
	assert.True(t, d.Dirty())
	d.Cancel()

	after, _ := c.Chart().Node(n.ID)
	orig, _ := before.Node(n.ID)
	assert.Equal(t, orig, after)

	_, err = d.Commit()
	assert.ErrorIs(t, err, ErrDraftClosed)
}

func TestCommit_ScalarEditKeepsHazardsAndCCP(t *testing.T) {
	c := newSession(t)
	n, _ := c.Drop(flowchart.NodeColdStorage, flowchart.Position{}, Hooks{})

	d, _ := c.Open(n.ID)
	d.SetDescription("Walk-in chiller 2")
	d.SetTemperature(flowchart.TemperatureRange{Max: flowchart.Float(5), Unit: "C"})
	res, err := d.Commit()
	require.NoError(t, err)
	assert.Empty(t, res.Issues)

	got, _ := c.Chart().Node(n.ID)
	assert.Equal(t, "Walk-in chiller 2", got.Data.Description)
	assert.Equal(t, 5.0, *got.Data.Temperature.Max)
	assert.Nil(t, got.Data.Temperature.Target)
	assert.Equal(t, n.Data.Hazards, got.Data.Hazards)
	assert.Equal(t, n.Data.CCP, got.Data.CCP)
	assert.Equal(t, Viewing, c.State())
}

func TestCommit_TouchedHazardsReplaceWholesale(t *testing.T) {
	c := newSession(t)
	n, _ := c.Drop(flowchart.NodeRawMaterialReceiving, flowchart.Position{}, Hooks{})
	require.Len(t, n.Data.Hazards, 2)

	d, _ := c.Open(n.ID)
	first := n.Data.Hazards[0].ID
	require.NoError(t, d.SetHazardScores(first, 4, 5))
	require.NoError(t, d.RemoveHazard(n.Data.Hazards[1].ID))
	added := d.AddHazard(flowchart.Hazard{Type: flowchart.HazardPhysical, Likelihood: 3, Severity: 4})
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, flowchart.RiskHigh, added.RiskLevel)

	_, err := d.Commit()
	require.NoError(t, err)

	got, _ := c.Chart().Node(n.ID)
	require.Len(t, got.Data.Hazards, 2)
	assert.Equal(t, first, got.Data.Hazards[0].ID)
	assert.Equal(t, flowchart.RiskCritical, got.Data.Hazards[0].RiskLevel)
	assert.Equal(t, added.ID, got.Data.Hazards[1].ID)
}

func TestCommit_EmptiedHazardsClear(t *testing.T) {
	c := newSession(t)
	n, _ := c.Drop(flowchart.NodeCutting, flowchart.Position{}, Hooks{})
	require.NotEmpty(t, n.Data.Hazards)

	d, _ := c.Open(n.ID)
	for _, h := range d.Hazards() {
		require.NoError(t, d.RemoveHazard(h.ID))
	}
	_, err := d.Commit()
	require.NoError(t, err)

	got, _ := c.Chart().Node(n.ID)
	assert.Empty(t, got.Data.Hazards)
}

func TestCommit_EmptiedHazardsKeepCCP(t *testing.T) {
	c := newSession(t)
	n, _ := c.Drop(flowchart.NodeCooking, flowchart.Position{}, Hooks{})
	require.NotNil(t, n.Data.CCP)

	d, _ := c.Open(n.ID)
	for _, h := range d.Hazards() {
		require.NoError(t, d.RemoveHazard(h.ID))
	}
	res, err := d.Commit()
	require.NoError(t, err)

	got, _ := c.Chart().Node(n.ID)
	assert.Empty(t, got.Data.Hazards)
	assert.Equal(t, n.Data.CCP, got.Data.CCP)
	require.Len(t, res.Issues, 1)
	assert.Contains(t, res.Issues[0], "a CCP needs at least one hazard")
}

func TestCommit_ReportsIncompleteCCP(t *testing.T) {
	c := newSession(t)
	n, _ := c.Drop(flowchart.NodeCooking, flowchart.Position{}, Hooks{})

	d, _ := c.Open(n.ID)
	ccp := d.CCP()
	require.NotNil(t, ccp)
	ccp.MonitoringMethod = ""
	ccp.CriticalLimits = nil
	d.SetCCP(ccp)

	assert.Len(t, d.Issues(), 2)
	preview := d.Preview()
	assert.Empty(t, preview.Data.CCP.CriticalLimits)
	unchanged, _ := c.Chart().Node(n.ID)
	assert.NotEmpty(t, unchanged.Data.CCP.CriticalLimits, "preview does not leak into the graph")

	res, err := d.Commit()
	require.NoError(t, err, "issues do not block the commit")
	assert.Len(t, res.Issues, 2)
	assert.Contains(t, res.Issues[0], "at least one critical limit is required")
	assert.Error(t, c.Validate())
}

func TestHooks(t *testing.T) {
	c := newSession(t)
	var edited, deleted []string
	hooks := Hooks{
		OnEdit:   func(id string) { edited = append(edited, id) },
		OnDelete: func(id string) { deleted = append(deleted, id) },
	}
	a, _ := c.Drop(flowchart.NodeWashing, flowchart.Position{}, hooks)
	b, _ := c.Drop(flowchart.NodeCutting, flowchart.Position{}, hooks)
	_, err := c.Chart().Connect(a.ID, b.ID, "")
	require.NoError(t, err)

	_, err = c.Open(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, edited)

	require.NoError(t, c.Delete(a.ID))
	assert.Equal(t, []string{a.ID}, deleted)
	assert.Equal(t, Viewing, c.State(), "deleting the edited node closes its draft")
	assert.Empty(t, c.Chart().Edges)

	assert.ErrorIs(t, c.Delete(a.ID), flowchart.ErrNodeNotFound)
	assert.Len(t, deleted, 1)
}

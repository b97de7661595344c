// Package session drives interactive editing of a flowchart: dropping nodes
// from the catalog, opening a node in an editor, and committing or cancelling
// the edit.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/meikuraledutech/flowchart"
	"github.com/meikuraledutech/flowchart/catalog"
)

var (
	ErrAlreadyEditing = errors.New("session: another node is being edited")
	ErrDraftClosed    = errors.New("session: draft already committed or cancelled")
)

// State of the controller.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Hooks are attached to a node when it is dropped onto the canvas.
type Hooks struct {
	OnEdit   func(nodeID string)
	OnDelete func(nodeID string)
}

// Controller owns one flowchart for the length of an editing session.
// It is not safe for concurrent use.
type Controller struct {
	chart *flowchart.Flowchart
	hooks map[string]Hooks
	draft *Draft
	log   *slog.Logger
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New starts a session over chart.
func New(chart *flowchart.Flowchart, opts ...Option) *Controller {
	c := &Controller{
		chart: chart,
		hooks: make(map[string]Hooks),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chart returns the flowchart being edited.
func (c *Controller) Chart() *flowchart.Flowchart { return c.chart }

// State reports whether a draft is open.
func (c *Controller) State() State {
	if c.draft != nil {
		return Editing
	}
	return Viewing
}

// Current returns the open draft, or nil.
func (c *Controller) Current() *Draft { return c.draft }

// Drop creates a node of type t at pos with the catalog default payload and
// label, and attaches hooks. Either all of it happens or none of it does.
func (c *Controller) Drop(t flowchart.NodeType, pos flowchart.Position, hooks Hooks) (flowchart.Node, error) {
	data, err := catalog.Instantiate(t)
	if err != nil {
		return flowchart.Node{}, err
	}
	n, err := c.chart.CreateNode(t, pos, data)
	if err != nil {
		return flowchart.Node{}, err
	}
	label := catalog.Label(t)
	if err := c.chart.UpdateNodeData(n.ID, flowchart.DataPatch{Label: &label}); err != nil {
		_ = c.chart.DeleteNode(n.ID)
		return flowchart.Node{}, err
	}
	c.hooks[n.ID] = hooks
	c.log.Debug("node dropped", "node_id", n.ID, "type", t)

	n, _ = c.chart.Node(n.ID)
	return n, nil
}

// Open starts editing a node. Only one node can be edited at a time.
func (c *Controller) Open(nodeID string) (*Draft, error) {
	if c.draft != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyEditing, c.draft.nodeID)
	}
	n, ok := c.chart.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", flowchart.ErrNodeNotFound, nodeID)
	}
	c.draft = &Draft{
		c:       c,
		nodeID:  nodeID,
		base:    n,
		hazards: flowchart.CloneHazards(n.Data.Hazards),
		ccp:     n.Data.CCP.Clone(),
	}
	if h := c.hooks[nodeID].OnEdit; h != nil {
		h(nodeID)
	}
	return c.draft, nil
}

// Delete removes a node and its edges. An open draft of that node is dropped.
func (c *Controller) Delete(nodeID string) error {
	if err := c.chart.DeleteNode(nodeID); err != nil {
		return fmt.Errorf("%w: %s", err, nodeID)
	}
	if c.draft != nil && c.draft.nodeID == nodeID {
		c.draft.closed = true
		c.draft = nil
	}
	hooks := c.hooks[nodeID]
	delete(c.hooks, nodeID)
	if hooks.OnDelete != nil {
		hooks.OnDelete(nodeID)
	}
	c.log.Debug("node deleted", "node_id", nodeID)
	return nil
}

// Validate checks the whole flowchart as a save would.
func (c *Controller) Validate() error {
	return flowchart.Validate(c.chart)
}

func (c *Controller) close(d *Draft) {
	d.closed = true
	if c.draft == d {
		c.draft = nil
	}
}

package catalog

import (
	"errors"
	"fmt"

	"github.com/meikuraledutech/flowchart"
)

var ErrUnknownTemplate = errors.New("catalog: unknown template")

// Template is a ready-made production line a new flowchart can start from.
type Template struct {
	Name        string               `json:"name"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Steps       []flowchart.NodeType `json:"steps"`
}

var templates = []Template{
	{
		Name:        "dairy-line",
		Title:       "Pasteurized milk line",
		Description: "Raw milk intake through pasteurization, filling and chilled dispatch",
		Steps: []flowchart.NodeType{
			flowchart.NodeStart,
			flowchart.NodeRawMaterialReceiving,
			flowchart.NodeColdStorage,
			flowchart.NodeStandardization,
			flowchart.NodeHomogenization,
			flowchart.NodePasteurization,
			flowchart.NodeCooling,
			flowchart.NodeFilling,
			flowchart.NodeLabeling,
			flowchart.NodeDispatch,
			flowchart.NodeEnd,
		},
	},
	{
		Name:        "ready-meal",
		Title:       "Chilled ready meal",
		Description: "Cook-chill line with metal detection before dispatch",
		Steps: []flowchart.NodeType{
			flowchart.NodeStart,
			flowchart.NodeIngredientReceiving,
			flowchart.NodeColdStorage,
			flowchart.NodeCutting,
			flowchart.NodeCooking,
			flowchart.NodeCooling,
			flowchart.NodePackaging,
			flowchart.NodeMetalDetection,
			flowchart.NodeLabeling,
			flowchart.NodeDispatch,
			flowchart.NodeEnd,
		},
	},
	{
		Name:        "blank",
		Title:       "Blank flowchart",
		Description: "Start and end only",
		Steps:       []flowchart.NodeType{flowchart.NodeStart, flowchart.NodeEnd},
	},
}

// Templates lists the available templates.
func Templates() []Template {
	out := make([]Template, len(templates))
	for i, t := range templates {
		t.Steps = append([]flowchart.NodeType(nil), t.Steps...)
		out[i] = t
	}
	return out
}

// stepSpacing is the vertical distance between template nodes on the canvas.
const stepSpacing = 120

// NewFromTemplate builds a flowchart with one node per template step, each
// instantiated from the catalog, numbered in order and chained by edges.
func NewFromTemplate(name string, productID int64, productName string) (*flowchart.Flowchart, error) {
	var tpl *Template
	for i := range templates {
		if templates[i].Name == name {
			tpl = &templates[i]
			break
		}
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	chart := flowchart.New(productID, productName)
	chart.Description = tpl.Description

	var prev string
	number := 0
	for i, t := range tpl.Steps {
		data, err := Instantiate(t)
		if err != nil {
			return nil, err
		}
		if !t.Structural() {
			number++
			data.StepNumber = flowchart.Int(number)
		}
		n, err := chart.CreateNode(t, flowchart.Position{X: 250, Y: float64(i * stepSpacing)}, data)
		if err != nil {
			return nil, err
		}
		label := Label(t)
		if err := chart.UpdateNodeData(n.ID, flowchart.DataPatch{Label: &label}); err != nil {
			return nil, err
		}
		if prev != "" {
			if _, err := chart.Connect(prev, n.ID, ""); err != nil {
				return nil, err
			}
		}
		prev = n.ID
	}
	return chart, nil
}

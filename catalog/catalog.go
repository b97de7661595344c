// Package catalog is the palette of node types a diagram can be built from,
// each with the default HACCP payload a freshly dropped node starts with.
// The catalog is read-only; every accessor hands out copies.
package catalog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/flowchart"
)

var ErrUnknownType = errors.New("catalog: node type not in catalog")

// Entry is one palette item.
type Entry struct {
	Type        flowchart.NodeType   `json:"type"`
	Label       string               `json:"label"`
	Description string               `json:"description"`
	Default     flowchart.DomainData `json:"defaultData"`
}

// Category groups palette entries for display.
type Category struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

func (e Entry) clone() Entry {
	e.Default = e.Default.Clone()
	return e
}

// Categories returns the whole palette in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		entries := make([]Entry, len(c.Entries))
		for j, e := range c.Entries {
			entries[j] = e.clone()
		}
		out[i] = Category{Name: c.Name, Entries: entries}
	}
	return out
}

// Lookup finds the entry of a node type.
func Lookup(t flowchart.NodeType) (Entry, bool) {
	e, ok := index[t]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Label returns the palette label of t, or t's generic label if it is not listed.
func Label(t flowchart.NodeType) string {
	if e, ok := index[t]; ok {
		return e.Label
	}
	return t.Label()
}

// Instantiate returns a deep copy of the default payload of t. Hazards get
// fresh ids and are rescored from their likelihood and severity, so a stale
// risk level in the catalog never leaks into a diagram.
func Instantiate(t flowchart.NodeType) (flowchart.DomainData, error) {
	e, ok := index[t]
	if !ok {
		return flowchart.DomainData{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	data := e.Default.Clone()
	for i := range data.Hazards {
		data.Hazards[i].ID = uuid.NewString()
		data.Hazards[i].Rescore()
	}
	return data, nil
}

var index = func() map[flowchart.NodeType]Entry {
	m := make(map[flowchart.NodeType]Entry)
	for _, c := range categories {
		for _, e := range c.Entries {
			m[e.Type] = e
		}
	}
	return m
}()

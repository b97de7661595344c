package flowchart

import "strings"

// NodeType is the closed set of step kinds a diagram can hold.
type NodeType string

const (
	NodeStart                NodeType = "START"
	NodeEnd                  NodeType = "END"
	NodeRawMaterialReceiving NodeType = "RAW_MATERIAL_RECEIVING"
	NodeIngredientReceiving  NodeType = "INGREDIENT_RECEIVING"
	NodePackagingReceiving   NodeType = "PACKAGING_RECEIVING"
	NodeColdStorage          NodeType = "COLD_STORAGE"
	NodeFrozenStorage        NodeType = "FROZEN_STORAGE"
	NodeDryStorage           NodeType = "DRY_STORAGE"
	NodeThawing              NodeType = "THAWING"
	NodeWashing              NodeType = "WASHING"
	NodeCutting              NodeType = "CUTTING"
	NodeMixing               NodeType = "MIXING"
	NodeStandardization      NodeType = "STANDARDIZATION"
	NodeHomogenization       NodeType = "HOMOGENIZATION"
	NodePasteurization       NodeType = "PASTEURIZATION"
	NodeSterilization        NodeType = "STERILIZATION"
	NodeCooking              NodeType = "COOKING"
	NodeCooling              NodeType = "COOLING"
	NodeFreezing             NodeType = "FREEZING"
	NodeFermentation         NodeType = "FERMENTATION"
	NodeFiltration           NodeType = "FILTRATION"
	NodeMetalDetection       NodeType = "METAL_DETECTION"
	NodeFilling              NodeType = "FILLING"
	NodeSealing              NodeType = "SEALING"
	NodePackaging            NodeType = "PACKAGING"
	NodeLabeling             NodeType = "LABELING"
	NodeInspection           NodeType = "INSPECTION"
	NodeDispatch             NodeType = "DISPATCH"
	NodeDecision             NodeType = "DECISION"
	NodeCustom               NodeType = "CUSTOM"
)

var nodeTypes = map[NodeType]struct{}{
	NodeStart: {}, NodeEnd: {}, NodeRawMaterialReceiving: {}, NodeIngredientReceiving: {},
	NodePackagingReceiving: {}, NodeColdStorage: {}, NodeFrozenStorage: {}, NodeDryStorage: {},
	NodeThawing: {}, NodeWashing: {}, NodeCutting: {}, NodeMixing: {}, NodeStandardization: {},
	NodeHomogenization: {}, NodePasteurization: {}, NodeSterilization: {}, NodeCooking: {},
	NodeCooling: {}, NodeFreezing: {}, NodeFermentation: {}, NodeFiltration: {},
	NodeMetalDetection: {}, NodeFilling: {}, NodeSealing: {}, NodePackaging: {},
	NodeLabeling: {}, NodeInspection: {}, NodeDispatch: {}, NodeDecision: {}, NodeCustom: {},
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	_, ok := nodeTypes[t]
	return ok
}

// Structural reports whether t is START or END. Structural nodes never reach the backend.
func (t NodeType) Structural() bool {
	return t == NodeStart || t == NodeEnd
}

// Label turns COLD_STORAGE into "Cold Storage".
func (t NodeType) Label() string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseNodeType maps a stored type string to a NodeType, falling back to CUSTOM.
func ParseNodeType(s string) NodeType {
	t := NodeType(strings.ToUpper(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return NodeCustom
}

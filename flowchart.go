package flowchart

import (
	"encoding/json"
	"time"
)

// Flowchart is the process-flow diagram of one product. It owns its nodes and
// edges for the length of an editing session; the backend only ever sees the
// process steps, one record per non-structural node.
type Flowchart struct {
	ProductID   int64    `json:"productId"`
	ProductName string   `json:"productName"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version"`
	Nodes       []Node   `json:"nodes"`
	Edges       []Edge   `json:"edges"`
	Metadata    Metadata `json:"metadata"`

	ids IDAllocator
}

// Metadata carries bookkeeping that travels with the diagram.
type Metadata struct {
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Position is a canvas coordinate. The canvas owns it; nothing here validates it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one visual step of the diagram.
// ID is either a client id (node_<n>) or a backend-derived id (step_<n>).
type Node struct {
	ID       string     `json:"id"`
	Type     NodeType   `json:"type"`
	Position Position   `json:"position"`
	Label    string     `json:"label"`
	Data     DomainData `json:"data"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// DomainData is the HACCP payload attached to a node.
type DomainData struct {
	StepNumber    *int              `json:"stepNumber,omitempty"`
	Description   string            `json:"description,omitempty"`
	Equipment     string            `json:"equipment,omitempty"`
	Temperature   *TemperatureRange `json:"temperature,omitempty"`
	Time          *TimeSpec         `json:"time,omitempty"`
	PH            *Range            `json:"ph,omitempty"`
	WaterActivity *Range            `json:"waterActivity,omitempty"`
	Hazards       []Hazard          `json:"hazards,omitempty"`
	CCP           *CCP              `json:"ccp,omitempty"`
}

type TemperatureRange struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Target *float64 `json:"target,omitempty"`
	Unit   string   `json:"unit"`
}

type TimeSpec struct {
	Duration float64 `json:"duration"`
	Unit     string  `json:"unit"`
}

// Range is used for pH and water activity.
type Range struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Target *float64 `json:"target,omitempty"`
}

type HazardType string

const (
	HazardBiological HazardType = "biological"
	HazardChemical   HazardType = "chemical"
	HazardPhysical   HazardType = "physical"
	HazardAllergen   HazardType = "allergen"
)

type RiskStrategy string

const (
	StrategyCCP          RiskStrategy = "ccp"
	StrategyOPRP         RiskStrategy = "oprp"
	StrategyExistingPRPs RiskStrategy = "use_existing_prps"
)

// Hazard is one identified risk at a step. RiskLevel is derived from
// Likelihood and Severity and is recomputed by every operation that stores
// a hazard; see Rescore.
type Hazard struct {
	ID              string       `json:"id"`
	Type            HazardType   `json:"type" validate:"oneof=biological chemical physical allergen"`
	Description     string       `json:"description"`
	Likelihood      int          `json:"likelihood" validate:"min=1,max=5"`
	Severity        int          `json:"severity" validate:"min=1,max=5"`
	RiskLevel       RiskLevel    `json:"riskLevel"`
	ControlMeasures string       `json:"controlMeasures,omitempty"`
	IsCCP           bool         `json:"isCCP"`
	RiskStrategy    RiskStrategy `json:"riskStrategy,omitempty" validate:"omitempty,oneof=ccp oprp use_existing_prps"`
}

// CCP is the critical control point record of a step.
type CCP struct {
	Number              string          `json:"number"`
	CriticalLimits      []CriticalLimit `json:"criticalLimits"`
	MonitoringFrequency string          `json:"monitoringFrequency"`
	MonitoringMethod    string          `json:"monitoringMethod"`
	ResponsiblePerson   string          `json:"responsiblePerson,omitempty"`
	CorrectiveActions   string          `json:"correctiveActions"`
	VerificationMethod  string          `json:"verificationMethod"`
}

type CriticalLimit struct {
	Parameter string   `json:"parameter" validate:"required"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Unit      string   `json:"unit"`
}

// New returns an empty draft flowchart for a product.
func New(productID int64, productName string) *Flowchart {
	now := time.Now().UTC()
	return &Flowchart{
		ProductID:   productID,
		ProductName: productName,
		Title:       productName + " process flow",
		Version:     "1.0",
		Nodes:       []Node{},
		Edges:       []Edge{},
		Metadata: Metadata{
			Status:    StatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// UnmarshalJSON decodes a flowchart and re-seeds the id allocator from the
// decoded nodes so that later CreateNode calls cannot collide.
func (f *Flowchart) UnmarshalJSON(b []byte) error {
	type plain Flowchart
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*f = Flowchart(p)
	if f.Nodes == nil {
		f.Nodes = []Node{}
	}
	if f.Edges == nil {
		f.Edges = []Edge{}
	}
	f.ids = IDAllocator{}
	for i := range f.Nodes {
		f.ids.Observe(f.Nodes[i].ID)
		f.Nodes[i].Data.rescore()
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

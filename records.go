package flowchart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlowRecord is what the backend returns for a product's diagram.
type FlowRecord struct {
	Steps []StepRecord `json:"steps"`
	Edges []EdgeRecord `json:"edges"`
}

// StepRecord is a stored process step as seen by the diagram.
// ID follows the step_<n> convention.
type StepRecord struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Label      string          `json:"label"`
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
	Data       StepData        `json:"data"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// StepData holds the flat backend columns. The numeric parameters are left
// loosely typed; the load join decides what counts as a number.
type StepData struct {
	StepNumber  *int   `json:"step_number,omitempty"`
	Description string `json:"description,omitempty"`
	Equipment   string `json:"equipment,omitempty"`
	Temperature any    `json:"temperature,omitempty"`
	TimeMinutes any    `json:"time_minutes,omitempty"`
	PH          any    `json:"ph,omitempty"`
	AW          any    `json:"aw,omitempty"`
}

type EdgeRecord struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

type HazardRecord struct {
	ID              RecordID `json:"id"`
	ProcessStepID   RecordID `json:"process_step_id"`
	HazardType      string   `json:"hazard_type"`
	Description     string   `json:"description"`
	Likelihood      int      `json:"likelihood"`
	Severity        int      `json:"severity"`
	RiskLevel       string   `json:"risk_level"`
	ControlMeasures string   `json:"control_measures"`
	IsCCP           bool     `json:"is_ccp"`
	RiskStrategy    string   `json:"risk_strategy,omitempty"`
}

type CCPRecord struct {
	ID                     RecordID              `json:"id"`
	HazardID               RecordID              `json:"hazard_id"`
	CCPNumber              string                `json:"ccp_number"`
	CriticalLimitParameter string                `json:"critical_limit_parameter"`
	CriticalLimitMin       any                   `json:"critical_limit_min"`
	CriticalLimitMax       any                   `json:"critical_limit_max"`
	CriticalLimitUnit      string                `json:"critical_limit_unit"`
	CriticalLimits         []CriticalLimitRecord `json:"critical_limits,omitempty"`
	MonitoringFrequency    string                `json:"monitoring_frequency"`
	MonitoringMethod       string                `json:"monitoring_method"`
	MonitoringResponsible  string                `json:"monitoring_responsible,omitempty"`
	CorrectiveActions      string                `json:"corrective_actions"`
	VerificationMethod     string                `json:"verification_method"`
}

// CriticalLimitRecord is one entry of the optional critical_limits list a
// backend may return next to the flat critical_limit_* columns.
type CriticalLimitRecord struct {
	Parameter string `json:"parameter"`
	Min       any    `json:"min,omitempty"`
	Max       any    `json:"max,omitempty"`
	Unit      string `json:"unit"`
}

// StepWrite is the payload of a create or update call.
type StepWrite struct {
	StepNumber  int            `json:"step_number"`
	StepName    string         `json:"step_name"`
	Description string         `json:"description"`
	Equipment   string         `json:"equipment"`
	Temperature *float64       `json:"temperature"`
	TimeMinutes *float64       `json:"time_minutes"`
	PH          *float64       `json:"ph"`
	AW          *float64       `json:"aw"`
	Parameters  StepParameters `json:"parameters"`
}

// StepParameters is the blob stored with each step. ID is the client node id
// at the time of the last save and links a node to its record across sessions.
type StepParameters struct {
	Position Position `json:"position"`
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
}

// DecodeStepParameters reads a stored parameters blob. An empty blob yields
// the zero value.
func DecodeStepParameters(raw json.RawMessage) (StepParameters, error) {
	var p StepParameters
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("flowchart: decode step parameters: %w", err)
	}
	return p, nil
}

// RecordID is a backend identifier that may arrive as a JSON number or string.
type RecordID string

func (r *RecordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RecordID(s)
		return nil
	}
	*r = RecordID(b)
	return nil
}

// Int64 parses the id as a base-10 integer.
func (r RecordID) Int64() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(r)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("flowchart: id %q is not an integer: %w", string(r), err)
	}
	return n, nil
}

// RecordIDOf formats an integer id.
func RecordIDOf(n int64) RecordID {
	return RecordID(strconv.FormatInt(n, 10))
}

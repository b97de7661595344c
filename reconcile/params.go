package reconcile

import (
	"math"
	"strings"

	"github.com/meikuraledutech/flowchart"
	"github.com/spf13/cast"
)

// number reads a loosely typed backend value. Anything that is not a finite
// number, or a string holding one, is treated as absent.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return 0, false
		}
		v = x
	case *float64:
		if x == nil {
			return 0, false
		}
		v = *x
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func optional(v any) *float64 {
	if f, ok := number(v); ok {
		return flowchart.Float(f)
	}
	return nil
}

// domainFromStep maps the flat step columns onto the nested parameter shape.
func domainFromStep(d flowchart.StepData) flowchart.DomainData {
	out := flowchart.DomainData{
		Description: d.Description,
		Equipment:   d.Equipment,
	}
	if d.StepNumber != nil {
		out.StepNumber = flowchart.Int(*d.StepNumber)
	}
	if t := optional(d.Temperature); t != nil {
		out.Temperature = &flowchart.TemperatureRange{Target: t, Unit: "C"}
	}
	if m, ok := number(d.TimeMinutes); ok {
		out.Time = &flowchart.TimeSpec{Duration: m, Unit: "min"}
	}
	if ph := optional(d.PH); ph != nil {
		out.PH = &flowchart.Range{Target: ph}
	}
	if aw := optional(d.AW); aw != nil {
		out.WaterActivity = &flowchart.Range{Target: aw}
	}
	return out
}

// representative picks the value written to a flat column: target, then max, then min.
func representative(min, max, target *float64) *float64 {
	switch {
	case target != nil:
		return flowchart.Float(*target)
	case max != nil:
		return flowchart.Float(*max)
	case min != nil:
		return flowchart.Float(*min)
	}
	return nil
}

func celsius(t *flowchart.TemperatureRange) *float64 {
	if t == nil {
		return nil
	}
	v := representative(t.Min, t.Max, t.Target)
	if v == nil {
		return nil
	}
	switch strings.ToUpper(strings.TrimPrefix(t.Unit, "°")) {
	case "F":
		*v = (*v - 32) * 5 / 9
	case "K":
		*v = *v - 273.15
	}
	return v
}

func minutes(t *flowchart.TimeSpec) *float64 {
	if t == nil {
		return nil
	}
	switch strings.ToLower(t.Unit) {
	case "s", "sec", "seconds":
		return flowchart.Float(t.Duration / 60)
	case "h", "hr", "hours":
		return flowchart.Float(t.Duration * 60)
	default:
		return flowchart.Float(t.Duration)
	}
}

func rangeValue(r *flowchart.Range) *float64 {
	if r == nil {
		return nil
	}
	return representative(r.Min, r.Max, r.Target)
}

// stepWrite builds the create/update payload of a process step node.
func stepWrite(n flowchart.Node, stepNumber int) flowchart.StepWrite {
	name := n.Label
	if name == "" {
		name = n.Type.Label()
	}
	return flowchart.StepWrite{
		StepNumber:  stepNumber,
		StepName:    name,
		Description: n.Data.Description,
		Equipment:   n.Data.Equipment,
		Temperature: celsius(n.Data.Temperature),
		TimeMinutes: minutes(n.Data.Time),
		PH:          rangeValue(n.Data.PH),
		AW:          rangeValue(n.Data.WaterActivity),
		Parameters: flowchart.StepParameters{
			Position: n.Position,
			ID:       n.ID,
			Type:     n.Type,
		},
	}
}

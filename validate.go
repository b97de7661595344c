package flowchart

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator.Validate caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidationError lists every problem found in a flowchart. Save is refused
// while any are present.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 1 {
		return "flowchart: validation failed: " + e.Messages[0]
	}
	return fmt.Sprintf("flowchart: validation failed with %d problems: %s",
		len(e.Messages), strings.Join(e.Messages, "; "))
}

// Validate checks every node and returns a *ValidationError carrying all
// messages, or nil.
func Validate(f *Flowchart) error {
	var msgs []string
	for _, n := range f.Nodes {
		msgs = append(msgs, ValidateNode(n)...)
	}
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

// ValidateNode returns the problems of a single node: hazard field ranges
// and, when the node has a CCP, completeness of the CCP record and at least
// one hazard for it to belong to.
func ValidateNode(n Node) []string {
	name := describeNode(n)
	var msgs []string

	for i, h := range n.Data.Hazards {
		for _, m := range fieldErrors(validate.Struct(h)) {
			msgs = append(msgs, fmt.Sprintf("%s: hazard %d %s", name, i+1, m))
		}
	}

	if !n.Data.HasCCP() {
		return msgs
	}
	ccp := n.Data.CCP
	if ccp == nil {
		ccp = &CCP{}
	}
	if len(ccp.CriticalLimits) == 0 {
		msgs = append(msgs, name+": at least one critical limit is required")
	} else {
		for i, l := range ccp.CriticalLimits {
			for _, m := range fieldErrors(validate.Struct(l)) {
				msgs = append(msgs, fmt.Sprintf("%s: critical limit %d %s", name, i+1, m))
			}
		}
	}
	if strings.TrimSpace(ccp.MonitoringFrequency) == "" {
		msgs = append(msgs, name+": monitoring frequency is required")
	}
	if strings.TrimSpace(ccp.MonitoringMethod) == "" {
		msgs = append(msgs, name+": monitoring method is required")
	}
	if strings.TrimSpace(ccp.CorrectiveActions) == "" {
		msgs = append(msgs, name+": corrective actions are required")
	}
	if strings.TrimSpace(ccp.VerificationMethod) == "" {
		msgs = append(msgs, name+": verification method is required")
	}
	// Stored CCPs hang off a hazard row.
	if n.Data.CCP != nil && len(n.Data.Hazards) == 0 {
		msgs = append(msgs, name+": a CCP needs at least one hazard to attach to")
	}
	return msgs
}

func describeNode(n Node) string {
	label := n.Label
	if label == "" {
		label = n.Type.Label()
	}
	if n.Data.StepNumber != nil {
		return fmt.Sprintf("step %d %q (%s)", *n.Data.StepNumber, label, n.ID)
	}
	return fmt.Sprintf("%q (%s)", label, n.ID)
}

// fieldErrors turns validator output into short human messages.
func fieldErrors(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if field == "" {
			field = "value"
		}
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", field))
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		default:
			out = append(out, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return out
}

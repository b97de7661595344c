package flowchart

// RiskLevel is the bucket of a hazard's likelihood × severity score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Score is likelihood × severity.
func Score(likelihood, severity int) int {
	return likelihood * severity
}

// RiskLevelFor buckets a score: critical >= 20, high >= 12, medium >= 6, else low.
func RiskLevelFor(likelihood, severity int) RiskLevel {
	switch s := Score(likelihood, severity); {
	case s >= 20:
		return RiskCritical
	case s >= 12:
		return RiskHigh
	case s >= 6:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Rescore recomputes RiskLevel from the current Likelihood and Severity.
func (h *Hazard) Rescore() {
	h.RiskLevel = RiskLevelFor(h.Likelihood, h.Severity)
}

// SetScores changes likelihood and severity and rescores in one step.
func (h *Hazard) SetScores(likelihood, severity int) {
	h.Likelihood = likelihood
	h.Severity = severity
	h.Rescore()
}

func (d *DomainData) rescore() {
	for i := range d.Hazards {
		d.Hazards[i].Rescore()
	}
}

// HasCCP reports whether the step carries a CCP: either a CCP number is set
// or one of its hazards is flagged as CCP.
func (d DomainData) HasCCP() bool {
	if d.CCP != nil && d.CCP.Number != "" {
		return true
	}
	for _, h := range d.Hazards {
		if h.IsCCP {
			return true
		}
	}
	return false
}

package flowchart

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (t *TemperatureRange) Clone() *TemperatureRange {
	if t == nil {
		return nil
	}
	return &TemperatureRange{Min: cloneFloat(t.Min), Max: cloneFloat(t.Max), Target: cloneFloat(t.Target), Unit: t.Unit}
}

func (t *TimeSpec) Clone() *TimeSpec {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (r *Range) Clone() *Range {
	if r == nil {
		return nil
	}
	return &Range{Min: cloneFloat(r.Min), Max: cloneFloat(r.Max), Target: cloneFloat(r.Target)}
}

func (c *CCP) Clone() *CCP {
	if c == nil {
		return nil
	}
	out := *c
	out.CriticalLimits = CloneLimits(c.CriticalLimits)
	return &out
}

// CloneLimits deep-copies a critical limit list. nil stays nil.
func CloneLimits(limits []CriticalLimit) []CriticalLimit {
	if limits == nil {
		return nil
	}
	out := make([]CriticalLimit, len(limits))
	for i, l := range limits {
		out[i] = CriticalLimit{Parameter: l.Parameter, Min: cloneFloat(l.Min), Max: cloneFloat(l.Max), Unit: l.Unit}
	}
	return out
}

// CloneHazards copies a hazard list. Hazards hold no pointers, so a slice copy is deep.
func CloneHazards(hazards []Hazard) []Hazard {
	if hazards == nil {
		return nil
	}
	out := make([]Hazard, len(hazards))
	copy(out, hazards)
	return out
}

// Clone returns a deep copy of d; nothing in the copy aliases d.
func (d DomainData) Clone() DomainData {
	out := d
	if d.StepNumber != nil {
		n := *d.StepNumber
		out.StepNumber = &n
	}
	out.Temperature = d.Temperature.Clone()
	out.Time = d.Time.Clone()
	out.PH = d.PH.Clone()
	out.WaterActivity = d.WaterActivity.Clone()
	out.Hazards = CloneHazards(d.Hazards)
	out.CCP = d.CCP.Clone()
	return out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// Clone returns a deep copy of the flowchart, allocator state included.
func (f *Flowchart) Clone() *Flowchart {
	out := *f
	out.Nodes = make([]Node, len(f.Nodes))
	for i, n := range f.Nodes {
		out.Nodes[i] = n.Clone()
	}
	out.Edges = append([]Edge(nil), f.Edges...)
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return &out
}

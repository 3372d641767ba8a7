package assess

// PriorityTiers partitions mapped controls by how much validation attention
// they need. The tiers are disjoint and together cover every mapping, in
// the mappings' original order.
type PriorityTiers struct {
	Critical []string `json:"critical"` // severe gaps, validated individually
	Standard []string `json:"standard"` // lesser gaps, batch validated
	Passing  []string `json:"passing"`  // no gap, skippable
}

// Prioritizer categorizes controls into processing tiers from their gap
// severity.
type Prioritizer struct {
	triggers map[RiskLevel]struct{}
}

// NewPrioritizer builds a prioritizer that escalates gaps at the given risk
// levels to the critical tier. With no arguments it escalates high and
// critical gaps.
func NewPrioritizer(triggers ...RiskLevel) *Prioritizer {
	if len(triggers) == 0 {
		triggers = []RiskLevel{RiskHigh, RiskCritical}
	}
	set := make(map[RiskLevel]struct{}, len(triggers))
	for _, level := range triggers {
		set[level] = struct{}{}
	}
	return &Prioritizer{triggers: set}
}

// Prioritize assigns each mapped control to a tier: no recorded gap means
// passing, a gap at an escalation level means critical, anything else means
// standard. When gaps repeat a control id, the last one wins. The function
// is pure; empty input yields three empty tiers.
func (p *Prioritizer) Prioritize(mappings []ControlMapping, gaps []ControlGap) PriorityTiers {
	tiers := PriorityTiers{
		Critical: []string{},
		Standard: []string{},
		Passing:  []string{},
	}

	gapsByControl := make(map[string]ControlGap, len(gaps))
	for _, gap := range gaps {
		gapsByControl[gap.ControlID] = gap
	}

	for _, mapping := range mappings {
		gap, found := gapsByControl[mapping.ControlID]
		switch {
		case !found:
			tiers.Passing = append(tiers.Passing, mapping.ControlID)
		case p.escalates(gap.RiskLevel):
			tiers.Critical = append(tiers.Critical, mapping.ControlID)
		default:
			tiers.Standard = append(tiers.Standard, mapping.ControlID)
		}
	}

	return tiers
}

func (p *Prioritizer) escalates(level RiskLevel) bool {
	_, ok := p.triggers[level]
	return ok
}

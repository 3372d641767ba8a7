package scope

import "github.com/nca-tools/nca-cli/internal/catalog"

// Preset is a predefined scope for a common assessment scenario, pairing a
// baseline with a family filter.
type Preset struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Families    []string      `json:"families"`
	Icon        string        `json:"icon"`
	Baseline    catalog.Level `json:"baseline"`
}

var presets = []Preset{
	{
		ID:          "cloud_security",
		Name:        "Cloud Security Focus",
		Description: "Essential controls for cloud environments",
		Families:    []string{"AC", "IA", "SC", "AU", "CM"},
		Icon:        "☁️",
		Baseline:    catalog.LevelModerate,
	},
	{
		ID:          "identity_access",
		Name:        "Identity & Access Management",
		Description: "IAM and authentication controls",
		Families:    []string{"AC", "IA", "AU"},
		Icon:        "🔐",
		Baseline:    catalog.LevelModerate,
	},
	{
		ID:          "audit_logging",
		Name:        "Audit & Logging",
		Description: "Comprehensive audit and accountability",
		Families:    []string{"AU", "SI", "IR"},
		Icon:        "📊",
		Baseline:    catalog.LevelModerate,
	},
	{
		ID:          "data_protection",
		Name:        "Data Protection",
		Description: "Data security and encryption",
		Families:    []string{"SC", "MP", "PE"},
		Icon:        "🛡️",
		Baseline:    catalog.LevelModerate,
	},
	{
		ID:          "incident_response",
		Name:        "Incident Response",
		Description: "IR and contingency planning",
		Families:    []string{"IR", "CP", "AU"},
		Icon:        "🚨",
		Baseline:    catalog.LevelModerate,
	},
	{
		ID:          "technical_only",
		Name:        "Technical Controls Only",
		Description: "Automated/technical controls (no policies)",
		Families:    []string{"AC", "AU", "IA", "SC", "SI", "CM", "CP", "MA", "SR"},
		Icon:        "⚙️",
		Baseline:    catalog.LevelModerate,
	},
}

// Presets returns a copy of the predefined scope list.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	for i := range out {
		out[i].Families = append([]string(nil), presets[i].Families...)
	}
	return out
}

// PresetByID returns the preset with the given id, or nil.
func PresetByID(id string) *Preset {
	for _, p := range presets {
		if p.ID == id {
			found := p
			found.Families = append([]string(nil), p.Families...)
			return &found
		}
	}
	return nil
}

// Scope builds a normalized Scope from the preset with the given mode.
func (p *Preset) Scope(mode Mode) Scope {
	return New(p.Baseline, p.Families, nil, mode)
}

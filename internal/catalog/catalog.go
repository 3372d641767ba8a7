package catalog

import (
	"fmt"

	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// Catalog is the read-only lookup object for baselines and the control
// universe. Build it once at startup and inject it wherever scope
// resolution or estimation happens; it is safe for concurrent use because
// nothing mutates it after construction.
type Catalog struct {
	baselines map[Level]*BaselineProfile
	custom    *BaselineProfile
	universe  []string
}

// Options configures catalog construction.
type Options struct {
	// Universe overrides the built-in control universe, typically with the
	// ids loaded from an OSCAL catalog file.
	Universe []string
	// CustomProfile backs the "custom" baseline level when present.
	CustomProfile *BaselineProfile
}

// New builds a catalog with the compiled-in SP 800-53B baselines and the
// built-in control universe (High baseline plus the PT family).
func New() *Catalog {
	return NewWithOptions(Options{})
}

// NewWithOptions builds a catalog honoring the given options.
func NewWithOptions(opts Options) *Catalog {
	c := &Catalog{
		baselines: buildBaselines(),
		custom:    opts.CustomProfile,
	}

	if len(opts.Universe) > 0 {
		c.universe = SortControlIDs(dedupe(opts.Universe))
	} else {
		builtin := toSet(lowControls, moderateAdditional, highAdditional, privacyControls)
		ids := make([]string, 0, len(builtin))
		for id := range builtin {
			ids = append(ids, id)
		}
		c.universe = SortControlIDs(ids)
	}

	return c
}

// Baseline returns the profile for the given level, or nil when the level
// has no stored profile. LevelAll deliberately has none (it means "no
// baseline filtering"); LevelCustom resolves only when a custom profile was
// supplied at construction.
func (c *Catalog) Baseline(level Level) *BaselineProfile {
	if level == LevelCustom {
		return c.custom
	}
	return c.baselines[level]
}

// AllControlIDs returns a sorted copy of the control universe.
func (c *Catalog) AllControlIDs() []string {
	out := make([]string, len(c.universe))
	copy(out, c.universe)
	return out
}

// UniverseSize returns the number of controls in the universe.
func (c *Catalog) UniverseSize() int {
	return len(c.universe)
}

// BaselineInfo is the catalog metadata exposed by listings and the API.
type BaselineInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ControlCount int    `json:"control_count"`
	Description  string `json:"description"`
}

// Baselines returns the documented baseline listing. Control counts here
// are the published SP 800-53B figures, kept stable for API consumers even
// where they differ from the compiled-in set sizes.
func (c *Catalog) Baselines() []BaselineInfo {
	infos := []BaselineInfo{
		{ID: "low", Name: "NIST 800-53 Rev 5 Low Baseline", ControlCount: 53, Description: "For low-impact systems"},
		{ID: "moderate", Name: "NIST 800-53 Rev 5 Moderate Baseline", ControlCount: 325, Description: "For moderate-impact systems (recommended)"},
		{ID: "high", Name: "NIST 800-53 Rev 5 High Baseline", ControlCount: 421, Description: "For high-impact systems and classified data"},
		{ID: "all", Name: "Full NIST 800-53 Catalog", ControlCount: 1191, Description: "All controls (not recommended for initial assessment)"},
	}

	if c.custom != nil {
		infos = append(infos, BaselineInfo{
			ID:           "custom",
			Name:         c.custom.Name(),
			ControlCount: c.custom.Size(),
			Description:  c.custom.Description(),
		})
	}

	return infos
}

// NewCustomProfile builds a user-defined baseline profile. Every id must be
// a well-formed control identifier; inherit, when non-empty, unions one of
// the built-in baselines into the set.
func NewCustomProfile(name, description string, ids []string, inherit Level) (*BaselineProfile, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: profile name cannot be empty", sharedErrors.ErrProfileInvalid)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !IsValidControlID(id) {
			return nil, fmt.Errorf("%w: control %q", sharedErrors.ErrProfileInvalid, id)
		}
		set[id] = struct{}{}
	}

	if inherit != "" {
		base := buildBaselines()[inherit]
		if base == nil {
			return nil, fmt.Errorf("%w: cannot inherit from %q", sharedErrors.ErrProfileInvalid, inherit)
		}
		for id := range base.controlIDs {
			set[id] = struct{}{}
		}
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("%w: profile has no controls", sharedErrors.ErrProfileInvalid)
	}

	return &BaselineProfile{
		name:         name,
		level:        LevelCustom,
		controlIDs:   set,
		description:  description,
		controlCount: len(set),
	}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package scope

import (
	"github.com/nca-tools/nca-cli/internal/catalog"
)

// Resolver computes the final in-scope control list from a Scope and the
// full control universe. It never errors: an empty result is a valid
// outcome that callers translate into a user-facing rejection.
type Resolver struct {
	catalog *catalog.Catalog
}

// NewResolver builds a resolver over the given catalog.
func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// FilterControls applies the baseline, family, and specific-control filters
// in sequence and returns a sorted, deduplicated control-id list.
//
// An unknown baseline level skips the baseline step rather than failing
// closed. CLI and API input cannot reach that path (levels are parsed at
// the edges); it is kept for programmatic callers so a bad level never
// silently empties a scope.
func (r *Resolver) FilterControls(allControlIDs []string, s Scope) []string {
	filtered := make(map[string]struct{}, len(allControlIDs))
	for _, id := range allControlIDs {
		filtered[id] = struct{}{}
	}

	if s.Baseline != catalog.LevelAll {
		if baseline := r.catalog.Baseline(s.Baseline); baseline != nil {
			for id := range filtered {
				if !baseline.Contains(id) {
					delete(filtered, id)
				}
			}
		}
	}

	if len(s.ControlFamilies) > 0 {
		families := make(map[string]struct{}, len(s.ControlFamilies))
		for _, code := range s.ControlFamilies {
			families[code] = struct{}{}
		}
		for id := range filtered {
			if _, ok := families[catalog.FamilyOf(id)]; !ok {
				delete(filtered, id)
			}
		}
	}

	if len(s.SpecificControls) > 0 {
		wanted := make(map[string]struct{}, len(s.SpecificControls))
		for _, id := range s.SpecificControls {
			wanted[id] = struct{}{}
		}
		for id := range filtered {
			if _, ok := wanted[id]; !ok {
				delete(filtered, id)
			}
		}
	}

	result := make([]string, 0, len(filtered))
	for id := range filtered {
		result = append(result, id)
	}
	return catalog.SortControlIDs(result)
}

// Resolve filters the catalog's own control universe through the scope.
func (r *Resolver) Resolve(s Scope) []string {
	return r.FilterControls(r.catalog.AllControlIDs(), s)
}

// Package oscal loads NIST SP 800-53 catalog content from OSCAL JSON
// files and serves control lookups, family listings, keyword search, and
// the requirement statements the validation pipeline consumes.
package oscal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nca-tools/nca-cli/internal/assess"
	"github.com/nca-tools/nca-cli/internal/catalog"
	"github.com/nca-tools/nca-cli/internal/shared/constants"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// Control is a fully parsed catalog control.
type Control struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Family       string        `json:"family"`
	Label        string        `json:"label,omitempty"`
	Statement    string        `json:"statement"`
	Guidance     string        `json:"guidance,omitempty"`
	Related      []string      `json:"related_controls,omitempty"`
	Enhancements []Enhancement `json:"enhancements,omitempty"`
}

// Enhancement is a control enhancement, e.g. AC-2(1).
type Enhancement struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Statement string   `json:"statement"`
	Guidance  string   `json:"guidance,omitempty"`
	Related   []string `json:"related_controls,omitempty"`
}

// Family groups the controls that share a family code.
type Family struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Controls []string `json:"controls"`
}

// ControlSummary is the listing shape for family browsing.
type ControlSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	FamilyCode string `json:"family_code"`
}

// Catalog is an immutable view over a loaded OSCAL catalog file. Lookups
// are safe for concurrent use; requirement reads go through a bounded LRU
// cache shared by the validation workers.
type Catalog struct {
	path      string
	controls  map[string]*Control
	families  map[string]*Family
	familyIDs []string
	ids       []string
	reqCache  *lru.Cache[string, assess.Requirements]
}

// OSCAL JSON wire structures. Only the fields the parser reads are
// declared; the catalog file carries far more.

type oscalFile struct {
	Catalog oscalCatalog `json:"catalog"`
}

type oscalCatalog struct {
	Groups []oscalGroup `json:"groups"`
}

type oscalGroup struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Controls []oscalControl `json:"controls"`
}

type oscalControl struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Props    []oscalProp    `json:"props"`
	Links    []oscalLink    `json:"links"`
	Parts    []oscalPart    `json:"parts"`
	Controls []oscalControl `json:"controls"`
}

type oscalProp struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type oscalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type oscalPart struct {
	Name  string      `json:"name"`
	Prose string      `json:"prose"`
	Parts []oscalPart `json:"parts"`
}

// Load reads and parses an OSCAL catalog JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file oscalFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	return build(path, file)
}

func build(path string, file oscalFile) (*Catalog, error) {
	c := &Catalog{
		path:     path,
		controls: make(map[string]*Control),
		families: make(map[string]*Family),
	}

	for _, group := range file.Catalog.Groups {
		familyID := strings.ToUpper(group.ID)
		family := &Family{
			ID:    familyID,
			Title: group.Title,
		}

		for _, raw := range group.Controls {
			ctrl := parseControl(raw, familyID)
			c.controls[ctrl.ID] = ctrl
			family.Controls = append(family.Controls, ctrl.ID)
			c.ids = append(c.ids, ctrl.ID)
		}

		family.Controls = catalog.SortControlIDs(family.Controls)
		c.families[familyID] = family
		c.familyIDs = append(c.familyIDs, familyID)
	}

	if len(c.controls) == 0 {
		return nil, fmt.Errorf("catalog %s contains no controls", path)
	}

	c.ids = catalog.SortControlIDs(c.ids)

	cache, err := lru.New[string, assess.Requirements](constants.DefaultRequirementsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create requirements cache: %w", err)
	}
	c.reqCache = cache

	return c, nil
}

func parseControl(raw oscalControl, familyID string) *Control {
	ctrl := &Control{
		ID:        strings.ToUpper(raw.ID),
		Title:     raw.Title,
		Family:    familyID,
		Statement: extractStatement(raw.Parts),
		Guidance:  extractGuidance(raw.Parts),
		Related:   extractRelated(raw.Links),
	}

	for _, prop := range raw.Props {
		if prop.Name == "label" {
			ctrl.Label = prop.Value
			break
		}
	}

	for _, sub := range raw.Controls {
		ctrl.Enhancements = append(ctrl.Enhancements, Enhancement{
			ID:        strings.ToUpper(sub.ID),
			Title:     sub.Title,
			Statement: extractStatement(sub.Parts),
			Guidance:  extractGuidance(sub.Parts),
			Related:   extractRelated(sub.Links),
		})
	}

	return ctrl
}

// extractStatement joins the prose of each statement part with the prose
// of its immediate sub-parts. Deeper nesting is not flattened.
func extractStatement(parts []oscalPart) string {
	var statements []string
	for _, part := range parts {
		if part.Name != "statement" {
			continue
		}
		if part.Prose != "" {
			statements = append(statements, part.Prose)
		}
		for _, sub := range part.Parts {
			if sub.Prose != "" {
				statements = append(statements, sub.Prose)
			}
		}
	}
	return strings.Join(statements, " ")
}

func extractGuidance(parts []oscalPart) string {
	for _, part := range parts {
		if part.Name == "guidance" {
			return part.Prose
		}
	}
	return ""
}

func extractRelated(links []oscalLink) []string {
	var related []string
	for _, link := range links {
		if link.Rel != "related" {
			continue
		}
		id := strings.TrimPrefix(link.Href, "#")
		related = append(related, strings.ToUpper(id))
	}
	return related
}

// Path reports the file the catalog was loaded from.
func (c *Catalog) Path() string {
	return c.path
}

// ControlIDs returns every control ID in lexicographic order.
func (c *Catalog) ControlIDs() []string {
	ids := make([]string, len(c.ids))
	copy(ids, c.ids)
	return ids
}

// Len reports how many controls the catalog holds.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Control looks up a control by ID.
func (c *Catalog) Control(id string) (*Control, bool) {
	ctrl, ok := c.controls[strings.ToUpper(id)]
	return ctrl, ok
}

// Family looks up a control family by code.
func (c *Catalog) Family(code string) (*Family, bool) {
	family, ok := c.families[strings.ToUpper(code)]
	return family, ok
}

// Families returns all control families in catalog order.
func (c *Catalog) Families() []*Family {
	families := make([]*Family, 0, len(c.familyIDs))
	for _, id := range c.familyIDs {
		families = append(families, c.families[id])
	}
	return families
}

// ControlsByFamily lists the controls of one family in lexicographic order.
// Unknown families yield an empty list.
func (c *Catalog) ControlsByFamily(code string) []ControlSummary {
	family, ok := c.Family(code)
	if !ok {
		return []ControlSummary{}
	}

	summaries := make([]ControlSummary, 0, len(family.Controls))
	for _, id := range family.Controls {
		ctrl := c.controls[id]
		summaries = append(summaries, ControlSummary{
			ID:         ctrl.ID,
			Title:      ctrl.Title,
			FamilyCode: ctrl.Family,
		})
	}
	return summaries
}

// Search finds controls whose title, statement, or guidance contains the
// query, case-insensitively. A non-empty family restricts the search to
// that family.
func (c *Catalog) Search(query, family string) []*Control {
	q := strings.ToLower(query)
	fam := strings.ToUpper(family)

	var results []*Control
	for _, id := range c.ids {
		ctrl := c.controls[id]
		if fam != "" && ctrl.Family != fam {
			continue
		}
		if strings.Contains(strings.ToLower(ctrl.Title), q) ||
			strings.Contains(strings.ToLower(ctrl.Statement), q) ||
			strings.Contains(strings.ToLower(ctrl.Guidance), q) {
			results = append(results, ctrl)
		}
	}
	return results
}

// ControlRequirements serves the requirement text for one control,
// satisfying the validation pipeline's source interface.
func (c *Catalog) ControlRequirements(controlID string) (assess.Requirements, error) {
	key := strings.ToUpper(controlID)
	if req, ok := c.reqCache.Get(key); ok {
		return req, nil
	}

	ctrl, ok := c.controls[key]
	if !ok {
		return assess.Requirements{}, fmt.Errorf("%w: %s", sharedErrors.ErrInvalidControlID, controlID)
	}

	req := assess.Requirements{
		ControlID: ctrl.ID,
		Title:     ctrl.Title,
		Family:    ctrl.Family,
		Statement: ctrl.Statement,
		Guidance:  ctrl.Guidance,
		Related:   append([]string(nil), ctrl.Related...),
	}
	c.reqCache.Add(key, req)

	return req, nil
}

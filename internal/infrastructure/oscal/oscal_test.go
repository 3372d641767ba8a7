package oscal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

const testCatalogJSON = `{
  "catalog": {
    "uuid": "test",
    "groups": [
      {
        "id": "ac",
        "title": "Access Control",
        "controls": [
          {
            "id": "ac-1",
            "title": "Policy and Procedures",
            "props": [{"name": "label", "value": "AC-1"}],
            "parts": [
              {"name": "statement", "prose": "Develop and document access control policy."},
              {"name": "guidance", "prose": "Access control policy addresses purpose and scope."}
            ]
          },
          {
            "id": "ac-2",
            "title": "Account Management",
            "props": [{"name": "label", "value": "AC-2"}],
            "links": [
              {"href": "#ac-3", "rel": "related"},
              {"href": "#au-6", "rel": "related"},
              {"href": "#ref-citation", "rel": "reference"}
            ],
            "parts": [
              {
                "name": "statement",
                "parts": [
                  {"name": "item", "prose": "Define account types."},
                  {"name": "item", "prose": "Assign account managers."}
                ]
              },
              {"name": "guidance", "prose": "Account management includes the identification of account types."}
            ],
            "controls": [
              {
                "id": "ac-2.1",
                "title": "Automated System Account Management",
                "parts": [
                  {"name": "statement", "prose": "Support the management of system accounts using automation."}
                ]
              }
            ]
          },
          {
            "id": "ac-10",
            "title": "Concurrent Session Control",
            "parts": [
              {"name": "statement", "prose": "Limit the number of concurrent sessions."}
            ]
          }
        ]
      },
      {
        "id": "au",
        "title": "Audit and Accountability",
        "controls": [
          {
            "id": "au-6",
            "title": "Audit Record Review, Analysis, and Reporting",
            "parts": [
              {"name": "statement", "prose": "Review and analyze system audit records."}
            ]
          }
        ]
      }
    ]
  }
}`

func testCatalog(t *testing.T) *Catalog {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(testCatalogJSON), 0644); err != nil {
		t.Fatalf("failed to write catalog fixture: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	return cat
}

func TestLoadParsesControls(t *testing.T) {
	cat := testCatalog(t)

	if got := cat.Len(); got != 4 {
		t.Fatalf("expected 4 controls, got %d", got)
	}

	ctrl, ok := cat.Control("ac-2")
	if !ok {
		t.Fatal("expected AC-2 to be present")
	}
	if ctrl.ID != "AC-2" {
		t.Errorf("expected uppercased id AC-2, got %s", ctrl.ID)
	}
	if ctrl.Family != "AC" {
		t.Errorf("expected family AC, got %s", ctrl.Family)
	}
	if ctrl.Label != "AC-2" {
		t.Errorf("expected label AC-2, got %s", ctrl.Label)
	}
	if ctrl.Title != "Account Management" {
		t.Errorf("unexpected title %q", ctrl.Title)
	}
}

func TestLoadJoinsStatementParts(t *testing.T) {
	cat := testCatalog(t)

	ctrl, _ := cat.Control("AC-2")
	want := "Define account types. Assign account managers."
	if ctrl.Statement != want {
		t.Errorf("expected statement %q, got %q", want, ctrl.Statement)
	}

	// Single-prose statements come through unchanged
	ctrl, _ = cat.Control("AC-1")
	if ctrl.Statement != "Develop and document access control policy." {
		t.Errorf("unexpected statement %q", ctrl.Statement)
	}
	if ctrl.Guidance != "Access control policy addresses purpose and scope." {
		t.Errorf("unexpected guidance %q", ctrl.Guidance)
	}
}

func TestLoadExtractsRelatedControls(t *testing.T) {
	cat := testCatalog(t)

	ctrl, _ := cat.Control("AC-2")
	if len(ctrl.Related) != 2 {
		t.Fatalf("expected 2 related controls, got %v", ctrl.Related)
	}
	if ctrl.Related[0] != "AC-3" || ctrl.Related[1] != "AU-6" {
		t.Errorf("expected [AC-3 AU-6], got %v", ctrl.Related)
	}
}

func TestLoadParsesEnhancements(t *testing.T) {
	cat := testCatalog(t)

	ctrl, _ := cat.Control("AC-2")
	if len(ctrl.Enhancements) != 1 {
		t.Fatalf("expected 1 enhancement, got %d", len(ctrl.Enhancements))
	}

	enh := ctrl.Enhancements[0]
	if enh.ID != "AC-2.1" {
		t.Errorf("expected enhancement id AC-2.1, got %s", enh.ID)
	}
	if enh.Statement != "Support the management of system accounts using automation." {
		t.Errorf("unexpected enhancement statement %q", enh.Statement)
	}

	// Enhancements are not top-level controls
	if _, ok := cat.Control("AC-2.1"); ok {
		t.Error("enhancement AC-2.1 should not resolve as a control")
	}
}

func TestControlIDsLexicographicOrder(t *testing.T) {
	cat := testCatalog(t)

	// Lexicographic, matching the rest of the module: AC-10 before AC-2.
	want := []string{"AC-1", "AC-10", "AC-2", "AU-6"}
	got := cat.ControlIDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	// Mutating the returned slice must not affect the catalog
	got[0] = "XX-1"
	if cat.ControlIDs()[0] != "AC-1" {
		t.Error("ControlIDs() should return a copy")
	}
}

func TestFamilies(t *testing.T) {
	cat := testCatalog(t)

	families := cat.Families()
	if len(families) != 2 {
		t.Fatalf("expected 2 families, got %d", len(families))
	}
	if families[0].ID != "AC" || families[1].ID != "AU" {
		t.Errorf("expected file order [AC AU], got [%s %s]", families[0].ID, families[1].ID)
	}
	if families[0].Title != "Access Control" {
		t.Errorf("unexpected family title %q", families[0].Title)
	}
	if len(families[0].Controls) != 3 {
		t.Errorf("expected 3 AC controls, got %v", families[0].Controls)
	}

	if _, ok := cat.Family("ac"); !ok {
		t.Error("family lookup should be case-insensitive")
	}
	if _, ok := cat.Family("XX"); ok {
		t.Error("unknown family should not resolve")
	}
}

func TestControlsByFamily(t *testing.T) {
	cat := testCatalog(t)

	controls := cat.ControlsByFamily("AC")
	if len(controls) != 3 {
		t.Fatalf("expected 3 controls, got %d", len(controls))
	}

	if controls[0].ID != "AC-1" || controls[1].ID != "AC-10" || controls[2].ID != "AC-2" {
		t.Errorf("unexpected order: %v", controls)
	}
	if controls[2].Title != "Account Management" || controls[2].FamilyCode != "AC" {
		t.Errorf("unexpected summary: %+v", controls[2])
	}

	if got := cat.ControlsByFamily("XX"); len(got) != 0 {
		t.Errorf("expected empty list for unknown family, got %v", got)
	}
}

func TestSearch(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name   string
		query  string
		family string
		want   []string
	}{
		{name: "title match", query: "account management", want: []string{"AC-2"}},
		{name: "statement match", query: "concurrent sessions", want: []string{"AC-10"}},
		{name: "guidance match", query: "identification of account types", want: []string{"AC-2"}},
		{name: "case insensitive", query: "AUDIT RECORDS", want: []string{"AU-6"}},
		{name: "family filter", query: "a", family: "AU", want: []string{"AU-6"}},
		{name: "no match", query: "quantum cryptography", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := cat.Search(tt.query, tt.family)
			if len(results) != len(tt.want) {
				t.Fatalf("expected %d results, got %d", len(tt.want), len(results))
			}
			for i, ctrl := range results {
				if ctrl.ID != tt.want[i] {
					t.Errorf("expected %s at index %d, got %s", tt.want[i], i, ctrl.ID)
				}
			}
		})
	}
}

func TestControlRequirements(t *testing.T) {
	cat := testCatalog(t)

	req, err := cat.ControlRequirements("ac-2")
	if err != nil {
		t.Fatalf("ControlRequirements() returned error: %v", err)
	}
	if req.ControlID != "AC-2" {
		t.Errorf("expected control id AC-2, got %s", req.ControlID)
	}
	if req.Title != "Account Management" {
		t.Errorf("unexpected title %q", req.Title)
	}
	if req.Family != "AC" {
		t.Errorf("unexpected family %q", req.Family)
	}
	if req.Statement != "Define account types. Assign account managers." {
		t.Errorf("unexpected statement %q", req.Statement)
	}
	if len(req.Related) != 2 {
		t.Errorf("unexpected related controls %v", req.Related)
	}

	// Second read is served from cache and must match
	cached, err := cat.ControlRequirements("AC-2")
	if err != nil {
		t.Fatalf("cached read returned error: %v", err)
	}
	if cached.Statement != req.Statement || cached.ControlID != req.ControlID {
		t.Error("cached requirements differ from first read")
	}
}

func TestControlRequirementsUnknownControl(t *testing.T) {
	cat := testCatalog(t)

	_, err := cat.ControlRequirements("ZZ-99")
	if !errors.Is(err, sharedErrors.ErrInvalidControlID) {
		t.Fatalf("expected ErrInvalidControlID, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	badPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(badPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := Load(badPath); err == nil {
		t.Error("expected error for malformed JSON")
	}

	emptyPath := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(emptyPath, []byte(`{"catalog":{"groups":[]}}`), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := Load(emptyPath); err == nil {
		t.Error("expected error for catalog with no controls")
	}
}

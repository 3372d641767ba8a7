package scope

import (
	"testing"

	"github.com/nca-tools/nca-cli/internal/catalog"
)

func TestPresetsListing(t *testing.T) {
	got := Presets()
	if len(got) != 6 {
		t.Fatalf("expected 6 presets, got %d", len(got))
	}

	wantIDs := []string{
		"cloud_security", "identity_access", "audit_logging",
		"data_protection", "incident_response", "technical_only",
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("preset[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}

	for _, p := range got {
		if p.Name == "" || p.Description == "" || p.Icon == "" {
			t.Errorf("preset %s missing display fields: %+v", p.ID, p)
		}
		if p.Baseline != catalog.LevelModerate {
			t.Errorf("preset %s baseline = %q, want moderate", p.ID, p.Baseline)
		}
		if len(p.Families) == 0 {
			t.Errorf("preset %s has no families", p.ID)
		}
		for _, code := range p.Families {
			if !catalog.IsValidFamilyCode(code) {
				t.Errorf("preset %s names unknown family %q", p.ID, code)
			}
		}
	}
}

func TestPresetsReturnsCopies(t *testing.T) {
	first := Presets()
	first[0].Families[0] = "ZZ"
	first[0].ID = "mutated"

	second := Presets()
	if second[0].ID != "cloud_security" || second[0].Families[0] != "AC" {
		t.Fatal("mutating a returned preset must not affect later calls")
	}
}

func TestPresetByID(t *testing.T) {
	p := PresetByID("identity_access")
	if p == nil {
		t.Fatal("identity_access should exist")
	}
	if p.Name != "Identity & Access Management" {
		t.Errorf("Name = %q", p.Name)
	}

	p.Families[0] = "ZZ"
	again := PresetByID("identity_access")
	if again.Families[0] != "AC" {
		t.Fatal("PresetByID must return an independent copy")
	}

	if PresetByID("nonexistent") != nil {
		t.Fatal("unknown id should return nil")
	}
}

func TestPresetScope(t *testing.T) {
	p := PresetByID("audit_logging")
	s := p.Scope(ModeQuick)

	if s.Baseline != catalog.LevelModerate {
		t.Errorf("Baseline = %q", s.Baseline)
	}
	if s.Mode != ModeQuick {
		t.Errorf("Mode = %q", s.Mode)
	}
	if len(s.ControlFamilies) != 3 {
		t.Errorf("ControlFamilies = %v", s.ControlFamilies)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("preset scope must validate: %v", err)
	}
}

func TestPresetScopesResolveNonEmpty(t *testing.T) {
	r := NewResolver(catalog.New())
	for _, p := range Presets() {
		ids := r.Resolve(p.Scope(ModeSmart))
		if len(ids) == 0 {
			t.Errorf("preset %s resolves to an empty scope", p.ID)
		}
	}
}

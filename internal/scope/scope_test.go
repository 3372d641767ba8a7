package scope

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nca-tools/nca-cli/internal/catalog"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"quick", ModeQuick, false},
		{"smart", ModeSmart, false},
		{"deep", ModeDeep, false},
		{"Deep", "", true},
		{"thorough", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) expected error", tt.input)
				}
				if !errors.Is(err, sharedErrors.ErrUnknownMode) {
					t.Fatalf("error %v is not ErrUnknownMode", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewNormalizesEmptyFilters(t *testing.T) {
	s := New(catalog.LevelLow, []string{}, []string{}, "")
	if s.ControlFamilies != nil {
		t.Error("empty families must become nil")
	}
	if s.SpecificControls != nil {
		t.Error("empty controls must become nil")
	}
	if s.Mode != DefaultMode {
		t.Errorf("mode = %q, want default %q", s.Mode, DefaultMode)
	}
}

func TestNewCopiesFilterSlices(t *testing.T) {
	families := []string{"AC"}
	s := New(catalog.LevelLow, families, nil, ModeSmart)
	families[0] = "ZZ"
	if s.ControlFamilies[0] != "AC" {
		t.Fatal("Scope must not alias caller slices")
	}
}

func TestNormalize(t *testing.T) {
	s := Scope{Baseline: catalog.LevelLow, ControlFamilies: []string{}, SpecificControls: []string{}}.Normalize()
	if s.ControlFamilies != nil || s.SpecificControls != nil {
		t.Fatal("empty slices must normalize to nil")
	}
	if s.Mode != DefaultMode {
		t.Fatalf("mode defaulted to %q, want %q", s.Mode, DefaultMode)
	}
}

func TestScopeValidate(t *testing.T) {
	tests := []struct {
		name    string
		scope   Scope
		wantErr error
	}{
		{
			name:  "valid",
			scope: New(catalog.LevelModerate, []string{"AC", "SC"}, []string{"AC-2", "SC-7(3)"}, ModeSmart),
		},
		{
			name:    "bad family code",
			scope:   New(catalog.LevelModerate, []string{"XX"}, nil, ModeSmart),
			wantErr: sharedErrors.ErrInvalidFamilyCode,
		},
		{
			name:    "lowercase family code",
			scope:   New(catalog.LevelModerate, []string{"ac"}, nil, ModeSmart),
			wantErr: sharedErrors.ErrInvalidFamilyCode,
		},
		{
			name:    "bad control id",
			scope:   New(catalog.LevelModerate, nil, []string{"ac2"}, ModeSmart),
			wantErr: sharedErrors.ErrInvalidControlID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scope.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScopeValidateListsValidCodes(t *testing.T) {
	err := New(catalog.LevelModerate, []string{"QQ"}, nil, ModeSmart).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	// the message names the valid codes so API consumers can self-correct
	if !strings.Contains(err.Error(), "AC") || !strings.Contains(err.Error(), "SR") {
		t.Fatalf("error should list valid codes, got: %v", err)
	}
}

func TestScopeJSONShape(t *testing.T) {
	s := New(catalog.LevelModerate, []string{"AC"}, nil, ModeDeep)
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"baseline":"moderate"`, `"control_families":["AC"]`, `"mode":"deep"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("payload missing %s: %s", key, raw)
		}
	}
	if strings.Contains(string(raw), "specific_controls") {
		t.Errorf("unset specific_controls must be omitted: %s", raw)
	}
}

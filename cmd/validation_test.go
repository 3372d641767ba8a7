package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

func writeEvidenceFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadEvidenceFile_Array(t *testing.T) {
	path := writeEvidenceFixture(t, "evidence.json", `[
		{"id": "doc-1", "source": "policy.pdf", "text": "Access is reviewed quarterly."},
		{"text": "Firewalls deny by default."}
	]`)

	items, err := loadEvidenceFile(path)
	if err != nil {
		t.Fatalf("loadEvidenceFile returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "doc-1" || items[0].Source != "policy.pdf" {
		t.Errorf("expected explicit fields preserved, got %+v", items[0])
	}
	if items[1].ID != "ev-2" {
		t.Errorf("expected generated id ev-2, got %s", items[1].ID)
	}
	if items[1].Source != "evidence.json" {
		t.Errorf("expected source to default to file name, got %s", items[1].Source)
	}
}

func TestLoadEvidenceFile_Wrapper(t *testing.T) {
	path := writeEvidenceFixture(t, "evidence.json", `{
		"evidence": [{"text": "MFA is enforced for all remote access."}]
	}`)

	items, err := loadEvidenceFile(path)
	if err != nil {
		t.Fatalf("loadEvidenceFile returned error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "ev-1" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestLoadEvidenceFile_MissingFile(t *testing.T) {
	if _, err := loadEvidenceFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEvidenceFile_InvalidJSON(t *testing.T) {
	path := writeEvidenceFixture(t, "evidence.json", `{not json`)
	if _, err := loadEvidenceFile(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadEvidenceFile_Empty(t *testing.T) {
	path := writeEvidenceFixture(t, "evidence.json", `[]`)
	_, err := loadEvidenceFile(path)
	if !errors.Is(err, sharedErrors.ErrNoEvidence) {
		t.Fatalf("expected ErrNoEvidence, got %v", err)
	}
}

func TestLoadEvidenceFile_EmptyText(t *testing.T) {
	path := writeEvidenceFixture(t, "evidence.json", `[{"text": "   "}]`)
	_, err := loadEvidenceFile(path)
	if !errors.Is(err, sharedErrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank text, got %v", err)
	}
}

func TestLoadEvidenceFile_OversizedText(t *testing.T) {
	oversized := strings.Repeat("a", consts.MaxEvidenceBytes+1)
	path := writeEvidenceFixture(t, "evidence.json", `[{"text": "`+oversized+`"}]`)
	_, err := loadEvidenceFile(path)
	if !errors.Is(err, sharedErrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized item, got %v", err)
	}
}

func TestParseHashAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    HashAlgorithm
		wantErr bool
	}{
		{name: "empty defaults to sha256", input: "", want: HashAlgorithmSHA256},
		{name: "sha256", input: "sha256", want: HashAlgorithmSHA256},
		{name: "sha512", input: "sha512", want: HashAlgorithmSHA512},
		{name: "uppercase", input: "SHA512", want: HashAlgorithmSHA512},
		{name: "padded", input: "  sha256  ", want: HashAlgorithmSHA256},
		{name: "unknown", input: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHashAlgorithm(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseHashAlgorithm(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashAlgorithmHelpers(t *testing.T) {
	if got := HashAlgorithmSHA256.FileExtension(); got != ".sha256" {
		t.Fatalf("unexpected extension: %s", got)
	}
	if got := HashAlgorithmSHA512.DisplayName(); got != "SHA-512" {
		t.Fatalf("unexpected display name: %s", got)
	}
	if got := HashAlgorithmSHA256.DisplayName(); got != "SHA-256" {
		t.Fatalf("unexpected display name: %s", got)
	}
}

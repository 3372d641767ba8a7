package catalog

import "sort"

// Family describes one SP 800-53 control family.
type Family struct {
	Code         string `json:"code"`          // Two-letter abbreviation (e.g., "AC")
	Name         string `json:"name"`          // Display name (e.g., "Access Control")
	ControlCount int    `json:"control_count"` // Base controls in the family
	Technical    bool   `json:"technical"`     // Primarily technical vs policy-based
}

// controlFamilies is the full Rev 5 family table. Control counts are base
// controls per family; Technical marks families whose controls are mostly
// automatable rather than policy-driven.
var controlFamilies = []Family{
	{Code: "AC", Name: "Access Control", ControlCount: 25, Technical: true},
	{Code: "AT", Name: "Awareness and Training", ControlCount: 5, Technical: false},
	{Code: "AU", Name: "Audit and Accountability", ControlCount: 16, Technical: true},
	{Code: "CA", Name: "Assessment, Authorization, and Monitoring", ControlCount: 9, Technical: false},
	{Code: "CM", Name: "Configuration Management", ControlCount: 14, Technical: true},
	{Code: "CP", Name: "Contingency Planning", ControlCount: 13, Technical: true},
	{Code: "IA", Name: "Identification and Authentication", ControlCount: 12, Technical: true},
	{Code: "IR", Name: "Incident Response", ControlCount: 10, Technical: false},
	{Code: "MA", Name: "Maintenance", ControlCount: 7, Technical: true},
	{Code: "MP", Name: "Media Protection", ControlCount: 8, Technical: false},
	{Code: "PE", Name: "Physical and Environmental Protection", ControlCount: 23, Technical: false},
	{Code: "PL", Name: "Planning", ControlCount: 11, Technical: false},
	{Code: "PM", Name: "Program Management", ControlCount: 32, Technical: false},
	{Code: "PS", Name: "Personnel Security", ControlCount: 9, Technical: false},
	{Code: "PT", Name: "PII Processing and Transparency", ControlCount: 8, Technical: false},
	{Code: "RA", Name: "Risk Assessment", ControlCount: 10, Technical: false},
	{Code: "SA", Name: "System and Services Acquisition", ControlCount: 23, Technical: false},
	{Code: "SC", Name: "System and Communications Protection", ControlCount: 52, Technical: true},
	{Code: "SI", Name: "System and Information Integrity", ControlCount: 23, Technical: true},
	{Code: "SR", Name: "Supply Chain Risk Management", ControlCount: 12, Technical: true},
}

// Families returns a copy of the control family table.
func Families() []Family {
	out := make([]Family, len(controlFamilies))
	copy(out, controlFamilies)
	return out
}

// FamilyByCode returns the family with the given code, or nil.
func FamilyByCode(code string) *Family {
	for _, f := range controlFamilies {
		if f.Code == code {
			fam := f
			return &fam
		}
	}
	return nil
}

// ValidFamilyCodes returns the sorted list of recognized family codes.
func ValidFamilyCodes() []string {
	codes := make([]string, 0, len(controlFamilies))
	for _, f := range controlFamilies {
		codes = append(codes, f.Code)
	}
	sort.Strings(codes)
	return codes
}

// IsValidFamilyCode reports whether code names a known control family.
func IsValidFamilyCode(code string) bool {
	return FamilyByCode(code) != nil
}

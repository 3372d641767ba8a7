package catalog

// Baseline data per NIST SP 800-53B Control Baselines.
// https://csrc.nist.gov/publications/detail/sp/800-53b/final

// BaselineProfile is an immutable named set of control identifiers for one
// impact level. Profiles are built once when the catalog is constructed;
// accessors return copies so callers cannot mutate shared state.
type BaselineProfile struct {
	name         string
	level        Level
	controlIDs   map[string]struct{}
	description  string
	controlCount int
}

// Name returns the display name of the profile.
func (p *BaselineProfile) Name() string {
	return p.name
}

// Level returns the impact level the profile belongs to.
func (p *BaselineProfile) Level() Level {
	return p.level
}

// Description returns the profile description.
func (p *BaselineProfile) Description() string {
	return p.description
}

// ControlCount returns the documented control count for the profile. For
// Moderate and High this is the SP 800-53B figure, which counts withdrawn
// and parameterized entries differently from the compiled-in sets.
func (p *BaselineProfile) ControlCount() int {
	return p.controlCount
}

// Size returns the number of control ids actually held by the profile.
func (p *BaselineProfile) Size() int {
	return len(p.controlIDs)
}

// Contains reports whether the profile includes the given control id.
func (p *BaselineProfile) Contains(id string) bool {
	_, ok := p.controlIDs[id]
	return ok
}

// ControlIDs returns a sorted copy of the profile's control ids.
func (p *BaselineProfile) ControlIDs() []string {
	ids := make([]string, 0, len(p.controlIDs))
	for id := range p.controlIDs {
		ids = append(ids, id)
	}
	return SortControlIDs(ids)
}

// Intersect returns the members of ids that are in the profile, preserving
// input order.
func (p *BaselineProfile) Intersect(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if p.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// lowControls is the Low baseline: base controls for low-impact systems.
var lowControls = []string{
	// Access Control
	"AC-2", "AC-3", "AC-7", "AC-8", "AC-14", "AC-17", "AC-18", "AC-19", "AC-20", "AC-22",
	// Awareness and Training
	"AT-1", "AT-2", "AT-3", "AT-4",
	// Audit and Accountability
	"AU-1", "AU-2", "AU-3", "AU-4", "AU-5", "AU-6", "AU-8", "AU-9", "AU-11", "AU-12",
	// Assessment, Authorization, and Monitoring
	"CA-1", "CA-2", "CA-3", "CA-5", "CA-6", "CA-7", "CA-9",
	// Configuration Management
	"CM-1", "CM-2", "CM-4", "CM-6", "CM-7", "CM-8", "CM-10", "CM-11",
	// Contingency Planning
	"CP-1", "CP-2", "CP-3", "CP-4", "CP-9", "CP-10",
	// Identification and Authentication
	"IA-1", "IA-2", "IA-4", "IA-5", "IA-6", "IA-7", "IA-8",
	// Incident Response
	"IR-1", "IR-2", "IR-4", "IR-5", "IR-6", "IR-7", "IR-8",
	// Maintenance
	"MA-1", "MA-2", "MA-4", "MA-5",
	// Media Protection
	"MP-1", "MP-2", "MP-6", "MP-7",
	// Physical and Environmental Protection
	"PE-1", "PE-2", "PE-3", "PE-6", "PE-8", "PE-12", "PE-13", "PE-14", "PE-15", "PE-16",
	// Planning
	"PL-1", "PL-2", "PL-4", "PL-10", "PL-11",
	// Program Management
	"PM-1", "PM-2", "PM-3", "PM-4", "PM-5", "PM-6", "PM-7", "PM-8", "PM-9", "PM-10",
	"PM-11", "PM-13", "PM-14", "PM-15", "PM-16",
	// Personnel Security
	"PS-1", "PS-2", "PS-3", "PS-4", "PS-5", "PS-6", "PS-7", "PS-8",
	// Risk Assessment
	"RA-1", "RA-2", "RA-3", "RA-5", "RA-7",
	// System and Services Acquisition
	"SA-1", "SA-2", "SA-3", "SA-4", "SA-5", "SA-9", "SA-22",
	// System and Communications Protection
	"SC-1", "SC-5", "SC-7", "SC-12", "SC-13", "SC-15", "SC-20", "SC-21", "SC-22", "SC-39",
	// System and Information Integrity
	"SI-1", "SI-2", "SI-3", "SI-4", "SI-5", "SI-12", "SI-16",
	// Supply Chain Risk Management
	"SR-1", "SR-2", "SR-3", "SR-5", "SR-8",
}

// moderateAdditional lists the controls and enhancements Moderate adds on
// top of Low.
var moderateAdditional = []string{
	// Access Control additions
	"AC-1", "AC-4", "AC-5", "AC-6", "AC-10", "AC-11", "AC-12", "AC-17(1)", "AC-17(2)",
	"AC-17(3)", "AC-17(4)",
	// Awareness and Training additions
	"AT-2(2)",
	// Audit and Accountability additions
	"AU-6(1)", "AU-6(3)", "AU-7", "AU-7(1)", "AU-9(2)", "AU-10", "AU-11(1)",
	// Assessment, Authorization, and Monitoring additions
	"CA-2(1)", "CA-3(5)", "CA-7(1)", "CA-8", "CA-8(1)", "CA-9(1)",
	// Configuration Management additions
	"CM-2(1)", "CM-2(2)", "CM-3", "CM-5", "CM-6(1)", "CM-7(1)", "CM-7(2)",
	"CM-8(1)", "CM-8(3)",
	// Contingency Planning additions
	"CP-2(1)", "CP-2(2)", "CP-2(3)", "CP-6", "CP-6(1)", "CP-6(3)", "CP-7",
	"CP-7(1)", "CP-7(2)", "CP-7(3)", "CP-8", "CP-8(1)", "CP-9(1)",
	// Identification and Authentication additions
	"IA-2(1)", "IA-2(2)", "IA-2(8)", "IA-2(12)", "IA-3", "IA-5(1)", "IA-8(1)",
	"IA-8(2)", "IA-8(4)",
	// Incident Response additions
	"IR-3", "IR-4(1)", "IR-6(1)", "IR-7(1)",
	// Maintenance additions
	"MA-3", "MA-5(1)",
	// Media Protection additions
	"MP-3", "MP-4", "MP-5", "MP-6(1)", "MP-6(2)",
	// Physical and Environmental Protection additions
	"PE-4", "PE-5", "PE-9", "PE-10", "PE-11", "PE-17", "PE-18",
	// Planning additions
	"PL-8", "PL-9",
	// Personnel Security additions
	"PS-3(3)",
	// Risk Assessment additions
	"RA-5(1)", "RA-5(2)", "RA-5(5)",
	// System and Services Acquisition additions
	"SA-4(10)", "SA-8", "SA-10", "SA-11", "SA-15", "SA-16",
	// System and Communications Protection additions
	"SC-2", "SC-3", "SC-4", "SC-7(3)", "SC-7(4)", "SC-7(5)", "SC-8", "SC-8(1)",
	"SC-10", "SC-17", "SC-18", "SC-23", "SC-28", "SC-28(1)",
	// System and Information Integrity additions
	"SI-3(1)", "SI-3(2)", "SI-4(1)", "SI-4(2)", "SI-4(4)", "SI-4(5)", "SI-7",
	"SI-7(1)", "SI-8", "SI-10",
	// Supply Chain Risk Management additions
	"SR-6", "SR-11",
}

// highAdditional lists the enhancements High adds on top of Moderate.
var highAdditional = []string{
	"AC-2(1)", "AC-2(2)", "AC-2(3)", "AC-2(4)", "AC-2(11)", "AC-2(12)", "AC-2(13)",
	"AC-3(3)", "AC-4(4)", "AC-6(1)", "AC-6(2)", "AC-6(5)", "AC-6(9)", "AC-6(10)",
	"AC-17(9)", "AC-18(1)", "AC-19(5)",
	"AU-4(1)", "AU-5(1)", "AU-5(2)", "AU-9(3)", "AU-9(4)", "AU-12(1)", "AU-12(3)",
	"CA-2(2)", "CA-7(3)",
	"CM-3(1)", "CM-5(1)", "CM-7(5)", "CM-8(2)", "CM-8(4)", "CM-8(5)",
	"CP-2(5)", "CP-2(8)", "CP-6(2)", "CP-7(4)", "CP-8(2)", "CP-8(3)", "CP-8(4)",
	"CP-9(2)", "CP-9(3)",
	"IA-2(3)", "IA-2(4)", "IA-2(11)", "IA-3(1)", "IA-5(2)", "IA-5(6)",
	"IR-2(1)", "IR-2(2)", "IR-3(2)", "IR-4(2)", "IR-4(3)", "IR-5(1)", "IR-6(2)",
	"IR-8(1)",
	"MA-3(1)", "MA-3(2)", "MA-4(2)",
	"MP-3(1)", "MP-5(4)", "MP-7(1)",
	"PE-3(1)", "PE-6(1)", "PE-17(1)",
	"PL-2(3)", "PL-8(1)",
	"RA-5(3)", "RA-5(6)", "RA-5(8)",
	"SA-4(1)", "SA-4(2)", "SA-4(9)", "SA-8(1)", "SA-10(1)", "SA-11(1)", "SA-15(3)",
	"SC-7(7)", "SC-7(8)", "SC-7(18)", "SC-8(2)", "SC-12(2)", "SC-12(3)", "SC-13(1)",
	"SC-23(1)",
	"SI-2(2)", "SI-3(4)", "SI-4(2)", "SI-4(10)", "SI-4(11)", "SI-7(5)", "SI-7(7)",
	"SR-3(1)", "SR-3(2)", "SR-6(1)", "SR-11(1)",
}

// privacyControls covers the PT family, which SP 800-53B assigns to privacy
// baselines rather than the Low/Moderate/High impact baselines. They extend
// the built-in control universe so family listings stay complete when no
// OSCAL catalog file is configured.
var privacyControls = []string{
	"PT-1", "PT-2", "PT-3", "PT-4", "PT-5", "PT-6", "PT-7", "PT-8",
}

func toSet(ids ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range ids {
		for _, id := range list {
			set[id] = struct{}{}
		}
	}
	return set
}

func buildBaselines() map[Level]*BaselineProfile {
	lowSet := toSet(lowControls)
	moderateSet := toSet(lowControls, moderateAdditional)
	highSet := toSet(lowControls, moderateAdditional, highAdditional)

	return map[Level]*BaselineProfile{
		LevelLow: {
			name:         "NIST 800-53 Rev 5 Low Baseline",
			level:        LevelLow,
			controlIDs:   lowSet,
			description:  "For low-impact information systems",
			controlCount: len(lowSet),
		},
		LevelModerate: {
			name:         "NIST 800-53 Rev 5 Moderate Baseline",
			level:        LevelModerate,
			controlIDs:   moderateSet,
			description:  "For moderate-impact information systems (most common)",
			controlCount: 325,
		},
		LevelHigh: {
			name:         "NIST 800-53 Rev 5 High Baseline",
			level:        LevelHigh,
			controlIDs:   highSet,
			description:  "For high-impact information systems and classified data",
			controlCount: 421,
		},
	}
}

// Package catalog defines the NIST 800-53 Rev 5 control catalog data used
// across NCA-CLI.
//
// Architecture overview:
//
//   - Baseline sets (Low/Moderate/High per SP 800-53B) are compiled in as
//     static literals. Moderate and High are built by union, so the
//     Low ⊆ Moderate ⊆ High containment holds by construction.
//   - Catalog is the read-only lookup object handed to the scope resolver,
//     the estimator, and the API server. It is built once at startup
//     (optionally extended with a custom YAML profile) and never mutated
//     afterwards, which makes it safe to share across requests.
//   - Family metadata (20 families, SP 800-53 table) and control-id helpers
//     (validation, family extraction, lexicographic sorting, grouping) live
//     here so every package speaks about controls the same way.
//
// Control identifiers follow the SP 800-53 notation: "AC-2" for a base
// control, "AC-2(3)" for an enhancement. Sorting everywhere in this module
// is lexicographic on the identifier string, so "AC-14" orders before
// "AC-2". Reports and API responses depend on that ordering being stable.
package catalog

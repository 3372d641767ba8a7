// Package scope implements assessment scoping: the value object describing
// what a run covers, the resolver that turns it into a concrete control
// list, the predefined scope presets, and the processing estimator.
//
// Everything here is pure and deterministic. A Scope is built per request
// and never shared; the resolver and estimator only read the injected
// catalog, so they are safe for concurrent use.
package scope

import (
	"fmt"

	"github.com/nca-tools/nca-cli/internal/catalog"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// Mode selects the processing depth for an assessment run.
type Mode string

const (
	// ModeDeep validates every control individually with full reasoning.
	ModeDeep Mode = "deep"
	// ModeSmart batches everything, then re-validates high-risk controls
	// individually.
	ModeSmart Mode = "smart"
	// ModeQuick batches everything with minimal per-control depth.
	ModeQuick Mode = "quick"
)

// DefaultMode is used when a request does not name a mode.
const DefaultMode = ModeSmart

// ParseMode converts a user-supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDeep, ModeSmart, ModeQuick:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q (use deep|smart|quick)", sharedErrors.ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Scope describes which controls an assessment run covers. It is a
// request-scoped value object: construct it, validate it, hand it to the
// resolver, and discard it.
type Scope struct {
	Baseline         catalog.Level `json:"baseline"`
	ControlFamilies  []string      `json:"control_families,omitempty"`
	SpecificControls []string      `json:"specific_controls,omitempty"`
	Mode             Mode          `json:"mode"`
}

// New builds a normalized Scope. Empty filter slices become nil: "no
// filter", never "match nothing".
func New(baseline catalog.Level, families, controls []string, mode Mode) Scope {
	if mode == "" {
		mode = DefaultMode
	}
	s := Scope{Baseline: baseline, Mode: mode}
	if len(families) > 0 {
		s.ControlFamilies = append([]string(nil), families...)
	}
	if len(controls) > 0 {
		s.SpecificControls = append([]string(nil), controls...)
	}
	return s
}

// Normalize applies the empty-means-unset rule to a literal-constructed
// Scope and fills in the default mode.
func (s Scope) Normalize() Scope {
	return New(s.Baseline, s.ControlFamilies, s.SpecificControls, s.Mode)
}

// Validate checks family codes against the known family table and control
// ids against the SP 800-53 notation. The baseline level and mode are
// validated where they are parsed; Validate guards the two free-form lists.
func (s Scope) Validate() error {
	for _, code := range s.ControlFamilies {
		if !catalog.IsValidFamilyCode(code) {
			return fmt.Errorf("%w: %q (valid codes: %v)",
				sharedErrors.ErrInvalidFamilyCode, code, catalog.ValidFamilyCodes())
		}
	}
	for _, id := range s.SpecificControls {
		if err := catalog.ValidateControlID(id); err != nil {
			return err
		}
	}
	return nil
}

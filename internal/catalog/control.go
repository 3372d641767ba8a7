package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// controlIDPattern matches SP 800-53 identifiers such as "AC-2" or "AC-2(3)".
var controlIDPattern = regexp.MustCompile(`^[A-Z]{2,3}-\d+(\(\d+\))?$`)

// IsValidControlID reports whether id follows the SP 800-53 notation.
func IsValidControlID(id string) bool {
	return controlIDPattern.MatchString(id)
}

// ValidateControlID returns a wrapped sentinel error for malformed ids.
func ValidateControlID(id string) error {
	if !IsValidControlID(id) {
		return fmt.Errorf("%w: %q", sharedErrors.ErrInvalidControlID, id)
	}
	return nil
}

// FamilyOf extracts the family code from a control id: the substring before
// the first hyphen ("AC" from "AC-2(3)"). Returns the input unchanged when
// no hyphen is present.
func FamilyOf(id string) string {
	if idx := strings.Index(id, "-"); idx >= 0 {
		return id[:idx]
	}
	return id
}

// SortControlIDs sorts ids lexicographically in place and returns the slice.
// Lexicographic, not numeric: "AC-14" sorts before "AC-2".
func SortControlIDs(ids []string) []string {
	sort.Strings(ids)
	return ids
}

// FamilyControls returns the ids from the given list that belong to family,
// preserving input order.
func FamilyControls(family string, ids []string) []string {
	prefix := family + "-"
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out
}

// GroupByFamily buckets control ids by family code for batch processing.
// Order within each bucket preserves input order.
func GroupByFamily(ids []string) map[string][]string {
	groups := make(map[string][]string)
	for _, id := range ids {
		family := FamilyOf(id)
		groups[family] = append(groups[family], id)
	}
	return groups
}

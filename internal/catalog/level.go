package catalog

import (
	"fmt"

	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// Level identifies a NIST 800-53 baseline impact level.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelCustom   Level = "custom"
	LevelAll      Level = "all"
)

// ParseLevel converts a user-supplied string into a Level. Unknown values
// are rejected here so the fail-open path inside the resolver can never be
// reached from CLI or API input.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelLow, LevelModerate, LevelHigh, LevelCustom, LevelAll:
		return Level(s), nil
	default:
		return "", fmt.Errorf("%w: %q (use low|moderate|high|custom|all)", sharedErrors.ErrUnknownBaseline, s)
	}
}

func (l Level) String() string {
	return string(l)
}

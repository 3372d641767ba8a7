package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nca-tools/nca-cli/internal/application"
)

// AppContext carries the initialized runtime shared by every command:
// logger, operator identity, storage locations, merged configuration,
// and the wired application services.
type AppContext struct {
	Logger     *zap.SugaredLogger
	Operator   string
	ResultsDir string
	DataDir    string
	Config     *CLIConfig
	Services   *application.Container
}

type contextKey string

const appContextKey contextKey = "nca-app-context"

// globalAppContext is the fallback used when a command was built outside the
// root command tree (tests, plugin-registered commands).
var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if cmd != nil {
		if ctx := cmd.Context(); ctx != nil {
			if appCtx, ok := ctx.Value(appContextKey).(*AppContext); ok && appCtx != nil {
				return appCtx
			}
		}
	}
	return globalAppContext
}

// JSON indentation used by every command that prints machine-readable output.
const (
	jsonPrefix = ""
	jsonIndent = "  "
)

// HashAlgorithm names a digest used to seal audit trails.
type HashAlgorithm string

const (
	HashAlgorithmSHA256 HashAlgorithm = "sha256"
	HashAlgorithmSHA512 HashAlgorithm = "sha512"
)

func (h HashAlgorithm) String() string {
	return string(h)
}

// FileExtension is the suffix of the companion hash file, e.g. ".sha256".
func (h HashAlgorithm) FileExtension() string {
	return "." + string(h)
}

func (h HashAlgorithm) DisplayName() string {
	switch h {
	case HashAlgorithmSHA512:
		return "SHA-512"
	default:
		return "SHA-256"
	}
}

// ParseHashAlgorithm normalizes a user-supplied algorithm name.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(HashAlgorithmSHA256):
		return HashAlgorithmSHA256, nil
	case string(HashAlgorithmSHA512):
		return HashAlgorithmSHA512, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q (use sha256 or sha512)", s)
	}
}

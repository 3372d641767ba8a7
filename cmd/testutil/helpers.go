// Package testutil provides shared fixtures for command-level tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
	"github.com/nca-tools/nca-cli/internal/shared/security"
)

const defaultOperator = "test-operator"

// AppContext mirrors the application-context fields that tests interact
// with. Declared locally so this package does not import cmd.
type AppContext struct {
	Logger     *zap.SugaredLogger
	Operator   string
	ResultsDir string
}

// TestEnv is a disposable workspace for a single test: a temp directory,
// a session-scoped results directory, and an AppContext pointed at both.
type TestEnv struct {
	TmpDir    string
	SessionID string
	Operator  string
	AppCtx    *AppContext

	t        *testing.T
	cleanups []func()
}

// NewTestEnv builds a fresh environment rooted in t.TempDir. Callers
// should defer env.Cleanup().
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	env := &TestEnv{
		TmpDir:    tmpDir,
		SessionID: "test-session-" + sanitizeTestName(t.Name()),
		Operator:  defaultOperator,
		t:         t,
		AppCtx: &AppContext{
			Operator:   defaultOperator,
			ResultsDir: filepath.Join(tmpDir, "results"),
		},
	}
	env.mkResultsDir(env.SessionID)
	return env
}

// sanitizeTestName flattens subtest names so they stay usable as a single
// directory component.
func sanitizeTestName(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}

func (e *TestEnv) mkResultsDir(sessionID string) {
	e.t.Helper()
	if err := os.MkdirAll(filepath.Join(e.AppCtx.ResultsDir, sessionID), consts.DefaultDirPerm); err != nil {
		e.t.Fatalf("create results directory for %s: %v", sessionID, err)
	}
}

// WithSessionID switches the environment to a caller-chosen session ID
// and creates its results directory.
func (e *TestEnv) WithSessionID(id string) *TestEnv {
	e.t.Helper()
	e.SessionID = id
	e.mkResultsDir(id)
	return e
}

// WithOperator overrides the operator on both the env and its AppContext.
func (e *TestEnv) WithOperator(operator string) *TestEnv {
	e.Operator = operator
	e.AppCtx.Operator = operator
	return e
}

// AddCleanup registers fn to run on Cleanup.
func (e *TestEnv) AddCleanup(fn func()) {
	e.cleanups = append(e.cleanups, fn)
}

// Cleanup runs registered cleanup functions in reverse registration order.
// Safe to call more than once.
func (e *TestEnv) Cleanup() {
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		e.cleanups[i]()
	}
	e.cleanups = nil
}

// ResultsPath returns the session's directory under the results root.
func (e *TestEnv) ResultsPath() string {
	return filepath.Join(e.AppCtx.ResultsDir, e.SessionID)
}

// CreateFile writes content at a path relative to TmpDir, creating parent
// directories as needed, and returns the absolute path.
func (e *TestEnv) CreateFile(relativePath string, content []byte) string {
	e.t.Helper()

	path := e.resolve(relativePath)
	if err := os.MkdirAll(filepath.Dir(path), consts.DefaultDirPerm); err != nil {
		e.t.Fatalf("create parent directory for %s: %v", relativePath, err)
	}
	if err := os.WriteFile(path, content, consts.DefaultFilePerm); err != nil {
		e.t.Fatalf("write %s: %v", relativePath, err)
	}
	return path
}

// ReadFile returns the content of a file relative to TmpDir.
func (e *TestEnv) ReadFile(relativePath string) []byte {
	e.t.Helper()

	data, err := os.ReadFile(e.resolve(relativePath)) // #nosec G304 -- resolve anchors the path inside the test temp dir.
	if err != nil {
		e.t.Fatalf("read %s: %v", relativePath, err)
	}
	return data
}

// FileExists reports whether a path relative to TmpDir exists.
func (e *TestEnv) FileExists(relativePath string) bool {
	_, err := os.Stat(e.resolve(relativePath))
	return err == nil
}

// MustExist fails the test unless the file is present.
func (e *TestEnv) MustExist(relativePath string) {
	e.t.Helper()
	if !e.FileExists(relativePath) {
		e.t.Fatalf("expected %s to exist", relativePath)
	}
}

// MustNotExist fails the test if the file is present.
func (e *TestEnv) MustNotExist(relativePath string) {
	e.t.Helper()
	if e.FileExists(relativePath) {
		e.t.Fatalf("expected %s to be absent", relativePath)
	}
}

// resolve anchors relativePath inside TmpDir, failing the test on traversal.
func (e *TestEnv) resolve(relativePath string) string {
	e.t.Helper()
	path, err := security.ResolveWithin(e.TmpDir, relativePath)
	if err != nil {
		e.t.Fatalf("invalid test path %s: %v", relativePath, err)
	}
	return path
}

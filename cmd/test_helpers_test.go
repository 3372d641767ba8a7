package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nca-tools/nca-cli/internal/application"
	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
)

// captureStdout redirects os.Stdout while fn runs and returns what was printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	_ = w.Close()
	os.Stdout = original
	return <-done
}

// ensureTestDataDir returns the data directory for the current test,
// honoring an env override set earlier in the test and creating the
// directory either way.
func ensureTestDataDir(t *testing.T) string {
	t.Helper()

	dataDir := os.Getenv(dataDirEnvVar)
	if dataDir == "" {
		dataDir = t.TempDir()
		t.Setenv(dataDirEnvVar, dataDir)
		return dataDir
	}
	if err := os.MkdirAll(dataDir, consts.DefaultDirPerm); err != nil {
		t.Fatalf("create data directory: %v", err)
	}
	return dataDir
}

// setupTestAppContext swaps in a minimal global AppContext. The returned
// func restores the previous one; callers defer it.
func setupTestAppContext(t *testing.T) func() {
	t.Helper()
	return setupTestAppContextWithOptions(t, false)
}

// setupTestAppContextWithServices also wires a real service container.
func setupTestAppContextWithServices(t *testing.T) func() {
	t.Helper()
	return setupTestAppContextWithOptions(t, true)
}

func setupTestAppContextWithOptions(t *testing.T, includeServices bool) func() {
	t.Helper()

	original := globalAppContext

	dataDir := ensureTestDataDir(t)
	resultsDir := filepath.Join(dataDir, "results")
	if err := os.MkdirAll(resultsDir, consts.DefaultDirPerm); err != nil {
		t.Fatalf("create results directory: %v", err)
	}

	appCtx := &AppContext{
		Operator:   "test-operator",
		ResultsDir: resultsDir,
		DataDir:    dataDir,
		Config:     newCLIConfig(),
	}

	if includeServices {
		services, err := application.NewContainer(application.Config{
			DataDir:        dataDir,
			ResultsDir:     resultsDir,
			RatePerMillion: consts.DefaultCostPerMillionTokens,
		})
		if err != nil {
			t.Fatalf("initialize services: %v", err)
		}
		appCtx.Services = services
	}

	globalAppContext = appCtx
	return func() { globalAppContext = original }
}

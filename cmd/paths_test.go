package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nca-tools/nca-cli/cmd/testutil"
	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
)

func TestGetDataDir_EnvOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "nca-data")
	t.Setenv(dataDirEnvVar, override)

	dataDir, err := getDataDir()
	if err != nil {
		t.Fatalf("getDataDir() failed: %v", err)
	}

	if dataDir != override {
		t.Errorf("expected override %s, got %s", override, dataDir)
	}

	// Verify directory was created
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
}

func TestGetDataDir_PlatformLayout(t *testing.T) {
	t.Setenv(dataDirEnvVar, "")

	dataDir, err := getDataDir()
	if err != nil {
		t.Fatalf("getDataDir() failed: %v", err)
	}

	if dataDir == "" {
		t.Error("Expected non-empty data directory")
	}

	// Verify it contains "nca-cli"
	if !strings.Contains(dataDir, "nca-cli") {
		t.Errorf("Expected data directory to contain 'nca-cli', got: %s", dataDir)
	}

	// Verify OS-specific path
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(dataDir, "nca-cli") {
			t.Errorf("Windows: Expected path to contain nca-cli, got: %s", dataDir)
		}
	case "darwin":
		if !strings.Contains(dataDir, "Library") {
			t.Errorf("macOS: Expected path to contain Library, got: %s", dataDir)
		}
	default: // Linux/Unix
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			if !strings.HasPrefix(dataDir, xdg) {
				t.Errorf("Linux: Expected path to start with %s, got: %s", xdg, dataDir)
			}
		} else {
			homeDir, _ := os.UserHomeDir()
			expectedPrefix := filepath.Join(homeDir, ".local", "share")
			if !strings.HasPrefix(dataDir, expectedPrefix) {
				t.Errorf("Linux: Expected path to start with %s, got: %s", expectedPrefix, dataDir)
			}
		}
	}
}

func TestGetSessionsFilePath(t *testing.T) {
	t.Setenv(dataDirEnvVar, t.TempDir())

	filePath, err := getSessionsFilePath()
	if err != nil {
		t.Fatalf("getSessionsFilePath() failed: %v", err)
	}

	if filePath == "" {
		t.Error("Expected non-empty sessions file path")
	}

	if !strings.HasSuffix(filePath, "sessions.json") {
		t.Errorf("Expected path to end with sessions.json, got: %s", filePath)
	}

	// Verify parent directory exists
	dir := filepath.Dir(filePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("Parent directory does not exist: %s", dir)
	}
}

func TestGetResultsDir(t *testing.T) {
	t.Setenv(dataDirEnvVar, t.TempDir())

	resultsDir, err := getResultsDir()
	if err != nil {
		t.Fatalf("getResultsDir() failed: %v", err)
	}

	if resultsDir == "" {
		t.Error("Expected non-empty results directory")
	}

	// Verify directory was created
	if _, err := os.Stat(resultsDir); os.IsNotExist(err) {
		t.Errorf("Results directory was not created: %s", resultsDir)
	}

	if !strings.HasSuffix(resultsDir, "results") {
		t.Errorf("Expected path to end with results, got: %s", resultsDir)
	}
}

func TestMigrateSessionsFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	oldPath := filepath.Join(env.TmpDir, "old_sessions.json")
	newPath := filepath.Join(env.TmpDir, "new_sessions.json")

	// Create old file with test data
	testData := []byte(`[{"id":"123","name":"Test"}]`)
	env.CreateFile("old_sessions.json", testData)

	// Migrate
	if err := migrateSessionsFile(oldPath, newPath); err != nil {
		t.Fatalf("migrateSessionsFile() failed: %v", err)
	}

	// Verify new file exists
	env.MustExist("new_sessions.json")

	// Verify content
	newData := env.ReadFile("new_sessions.json")
	if string(newData) != string(testData) {
		t.Errorf("Data mismatch: expected %s, got %s", testData, newData)
	}

	// Verify old file was backed up
	backupPath := oldPath + ".backup"
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		// Old file might be deleted if backup fails, that's ok
		if _, err := os.Stat(oldPath); err == nil {
			t.Error("Old file should have been removed or backed up")
		}
	}
}

func TestMigrateSessionsFile_NonExistent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	oldPath := filepath.Join(env.TmpDir, "nonexistent.json")
	newPath := filepath.Join(env.TmpDir, "new.json")

	// Try to migrate non-existent file
	err := migrateSessionsFile(oldPath, newPath)
	if err == nil {
		t.Error("Expected error when migrating non-existent file")
	}
}

func TestDataDirCreation(t *testing.T) {
	t.Setenv(dataDirEnvVar, filepath.Join(t.TempDir(), "data"))

	// Get data dir (which creates it)
	dataDir, err := getDataDir()
	if err != nil {
		t.Fatalf("getDataDir() failed: %v", err)
	}

	// Verify it exists and is a directory
	info, err := os.Stat(dataDir)
	if err != nil {
		t.Fatalf("Data directory does not exist: %v", err)
	}

	if !info.IsDir() {
		t.Error("Data directory path is not a directory")
	}

	// Verify permissions (should be readable/writable)
	testFile := filepath.Join(dataDir, "test_write.txt")
	if err := os.WriteFile(testFile, []byte("test"), consts.DefaultFilePerm); err != nil {
		t.Errorf("Cannot write to data directory: %v", err)
	} else {
		_ = os.Remove(testFile) // Clean up
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func runVersionCommand(t *testing.T, flags map[string]string) string {
	t.Helper()

	for name, value := range flags {
		if err := versionCmd.Flags().Set(name, value); err != nil {
			t.Fatalf("failed to set --%s: %v", name, err)
		}
	}
	t.Cleanup(func() {
		for name := range flags {
			_ = versionCmd.Flags().Set(name, "false")
		}
	})

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.SetErr(&buf)

	if err := versionCmd.RunE(versionCmd, []string{}); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	return buf.String()
}

func TestVersionCommandPlain(t *testing.T) {
	output := runVersionCommand(t, nil)

	if !strings.HasPrefix(output, "nca-cli version ") {
		t.Errorf("Expected plain version line, got:\n%s", output)
	}
	if !strings.Contains(output, Version) {
		t.Errorf("Expected version %q in output, got:\n%s", Version, output)
	}
	if strings.Contains(output, "commit:") {
		t.Errorf("Plain output should not include build metadata, got:\n%s", output)
	}
}

func TestVersionCommandVerbose(t *testing.T) {
	output := runVersionCommand(t, map[string]string{"verbose": "true"})

	for _, want := range []string{
		"nca-cli " + Version,
		"commit:",
		"built:",
		"go version: " + runtime.Version(),
		"platform:",
		runtime.GOOS + "/" + runtime.GOARCH,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected verbose output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestVersionCommandJSON(t *testing.T) {
	output := runVersionCommand(t, map[string]string{"json": "true"})

	var info versionInfo
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		t.Fatalf("failed to parse JSON output: %v\noutput:\n%s", err, output)
	}

	if info.Version != Version {
		t.Errorf("Expected version %q, got %q", Version, info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("Expected go version %q, got %q", runtime.Version(), info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Expected platform %q, got %q", runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	}
}

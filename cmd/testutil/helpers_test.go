package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewTestEnvProvisionsWorkspace(t *testing.T) {
	env := NewTestEnv(t)
	defer env.Cleanup()

	if env.TmpDir == "" || env.SessionID == "" {
		t.Fatalf("incomplete env: TmpDir=%q SessionID=%q", env.TmpDir, env.SessionID)
	}
	if env.AppCtx == nil {
		t.Fatal("AppCtx must be initialized")
	}
	if env.Operator != env.AppCtx.Operator {
		t.Fatalf("operator mismatch: env %q vs AppCtx %q", env.Operator, env.AppCtx.Operator)
	}
	if !strings.HasPrefix(env.AppCtx.ResultsDir, env.TmpDir) {
		t.Fatalf("results dir %q not rooted in %q", env.AppCtx.ResultsDir, env.TmpDir)
	}

	info, err := os.Stat(env.ResultsPath())
	if err != nil {
		t.Fatalf("stat results path: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("results path %s is not a directory", env.ResultsPath())
	}
}

func TestWithSessionIDCreatesDirectory(t *testing.T) {
	env := NewTestEnv(t).WithSessionID("sess-override")
	defer env.Cleanup()

	if env.SessionID != "sess-override" {
		t.Fatalf("SessionID = %q, want sess-override", env.SessionID)
	}
	if _, err := os.Stat(filepath.Join(env.AppCtx.ResultsDir, "sess-override")); err != nil {
		t.Fatalf("expected override directory: %v", err)
	}
	if got, want := env.ResultsPath(), filepath.Join(env.AppCtx.ResultsDir, "sess-override"); got != want {
		t.Fatalf("ResultsPath = %q, want %q", got, want)
	}
}

func TestWithOperatorPropagates(t *testing.T) {
	env := NewTestEnv(t).WithOperator("auditor@example.com")
	defer env.Cleanup()

	if env.Operator != "auditor@example.com" || env.AppCtx.Operator != "auditor@example.com" {
		t.Fatalf("operator not propagated: env %q, AppCtx %q", env.Operator, env.AppCtx.Operator)
	}
}

func TestCreateReadAndProbeFiles(t *testing.T) {
	env := NewTestEnv(t)
	defer env.Cleanup()

	path := env.CreateFile("nested/dir/report.json", []byte(`{"ok":true}`))
	if want := filepath.Join(env.TmpDir, "nested", "dir", "report.json"); path != want {
		t.Fatalf("CreateFile returned %q, want %q", path, want)
	}

	if got := string(env.ReadFile("nested/dir/report.json")); got != `{"ok":true}` {
		t.Fatalf("ReadFile = %q", got)
	}

	env.MustExist("nested/dir/report.json")
	env.MustNotExist("nested/dir/missing.json")

	if env.FileExists("unrelated.txt") {
		t.Fatal("FileExists reported a file that was never written")
	}
}

func TestCleanupRunsInReverseOrder(t *testing.T) {
	env := NewTestEnv(t)

	var order []string
	env.AddCleanup(func() { order = append(order, "first") })
	env.AddCleanup(func() { order = append(order, "second") })
	env.AddCleanup(func() { order = append(order, "third") })

	env.Cleanup()

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("cleanup calls = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("cleanup order = %v, want %v", order, want)
		}
	}

	env.Cleanup()
	if len(order) != 3 {
		t.Fatalf("second Cleanup re-ran functions: %v", order)
	}
}

func TestSanitizeTestName(t *testing.T) {
	if got := sanitizeTestName("TestX/sub_case"); got != "TestX_sub_case" {
		t.Fatalf("sanitizeTestName = %q", got)
	}
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	rootDir    string
	dbPath     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", base)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		rootDir:    filepath.Join(base, "ensembles"),
		dbPath:     filepath.Join(base, "cases.db"),
	}

	content := fmt.Sprintf(`[paths]
root_dir = %q
log_dir = %q
database_path = %q

[ensemble]
name = "cli"
size = 2
`,
		env.rootDir,
		filepath.Join(base, "logs"),
		env.dbPath,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got %q", needle, haystack)
	}
}

func TestCLIWriteAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"write", "--rows", "6", "--cols", "6", "--sim-hours", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	requireContains(t, out, "Wrote 2 case(s)")

	for _, id := range []string{"0", "1"} {
		caseDir := filepath.Join(env.rootDir, "cases", id)
		if _, err := os.Stat(caseDir); err != nil {
			t.Fatalf("expected case dir %s: %v", caseDir, err)
		}
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "written")
	requireContains(t, out, "Summary")
}

func TestCLIWriteSubset(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"write", "--rows", "6", "--cols", "6", "--sim-hours", "2", "--cases", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("write --cases: %v", err)
	}
	requireContains(t, out, "Wrote 1 case(s)")

	if _, err := os.Stat(filepath.Join(env.rootDir, "cases", "1")); err != nil {
		t.Fatalf("expected case 1 dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.rootDir, "cases", "0")); !os.IsNotExist(err) {
		t.Fatalf("case 0 should not exist, stat err = %v", err)
	}
}

func TestCLIStatusEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No cases tracked yet")
}

func TestCLIRejectsBadCaseSelection(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"write", "--cases", "2-x"}, env.configPath); err == nil {
		t.Fatal("expected malformed case range to fail")
	}
}

func TestParseIndices(t *testing.T) {
	tests := []struct {
		selection string
		want      []int
		wantErr   bool
	}{
		{selection: "", want: nil},
		{selection: "3", want: []int{3}},
		{selection: "0,2,1", want: []int{0, 1, 2}},
		{selection: "1-4", want: []int{1, 2, 3, 4}},
		{selection: "0,2-4,2", want: []int{0, 2, 3, 4}},
		{selection: "4-1", wantErr: true},
		{selection: "a", wantErr: true},
		{selection: "-1", wantErr: true},
	}
	for _, tc := range tests {
		got, err := parseIndices(tc.selection)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseIndices(%q) = %v, want error", tc.selection, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseIndices(%q): %v", tc.selection, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("parseIndices(%q) mismatch (-want +got):\n%s", tc.selection, diff)
		}
	}
}

package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/harrison/outcmp/internal/classfile/classfiletest"
	"github.com/harrison/outcmp/internal/config"
	"github.com/harrison/outcmp/internal/dircmp"
	"github.com/harrison/outcmp/internal/report"
)

// setupProject points OUTCMP_HOME at a fresh project and returns the
// project directory.
func setupProject(t *testing.T) string {
	t.Helper()
	project := t.TempDir()
	t.Setenv(config.HomeEnv, filepath.Join(project, ".outcmp"))

	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
	return project
}

func writeTree(t *testing.T, root string, files map[string]string) string {
	t.Helper()
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompareCommand_Identical(t *testing.T) {
	project := setupProject(t)
	files := map[string]string{"a.txt": "x", "demo/b.txt": "y"}
	expected := writeTree(t, filepath.Join(project, "golden"), files)
	actual := writeTree(t, filepath.Join(project, "out"), files)

	output, err := runCLI(t, "compare", expected, actual)
	if err != nil {
		t.Fatalf("compare returned error: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Comparing "+actual+" against "+expected) {
		t.Errorf("missing start line:\n%s", output)
	}
	if !strings.Contains(output, "PASS "+actual+" (changed: 0") {
		t.Errorf("missing PASS summary:\n%s", output)
	}
	if _, err := os.Stat(filepath.Join(project, ".outcmp", "history.db")); err != nil {
		t.Errorf("history database not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(project, ".outcmp", "reports")); !os.IsNotExist(err) {
		t.Error("no report should be written for a passing comparison")
	}
}

func TestCompareCommand_Mismatch(t *testing.T) {
	project := setupProject(t)
	expected := writeTree(t, filepath.Join(project, "golden"), map[string]string{"a.txt": "x\n", "same.txt": "s"})
	actual := writeTree(t, filepath.Join(project, "out"), map[string]string{"a.txt": "y\n", "same.txt": "s"})

	output, err := runCLI(t, "compare", expected, actual)
	if err == nil {
		t.Fatalf("expected mismatch error, output:\n%s", output)
	}
	if !errors.Is(err, dircmp.ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
	for _, want := range []string{"FAIL " + actual + " (changed: 1", "  - a.txt\n", "Report: ", "--- expected", "+y"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q:\n%s", want, output)
		}
	}

	latest := filepath.Join(project, ".outcmp", "reports", report.LatestLink)
	for _, name := range []string{report.ExpectedFile, report.ActualFile, report.DiffFile, report.SummaryFile, report.HTMLFile} {
		if _, err := os.Stat(filepath.Join(latest, name)); err != nil {
			t.Errorf("report file %s missing: %v", name, err)
		}
	}
}

func TestCompareCommand_NoReport(t *testing.T) {
	project := setupProject(t)
	expected := writeTree(t, filepath.Join(project, "golden"), map[string]string{"a.txt": "x"})
	actual := writeTree(t, filepath.Join(project, "out"), map[string]string{"a.txt": "y"})

	if _, err := runCLI(t, "compare", "--no-report", "--no-history", expected, actual); err == nil {
		t.Fatal("expected mismatch error")
	}
	if _, err := os.Stat(filepath.Join(project, ".outcmp", "reports")); !os.IsNotExist(err) {
		t.Error("reports written despite --no-report")
	}
	if _, err := os.Stat(filepath.Join(project, ".outcmp", "history.db")); !os.IsNotExist(err) {
		t.Error("history written despite --no-history")
	}
}

func TestCompareCommand_ForgiveExtra(t *testing.T) {
	project := setupProject(t)
	expected := writeTree(t, filepath.Join(project, "golden"), map[string]string{"a.txt": "x"})
	actual := writeTree(t, filepath.Join(project, "out"), map[string]string{"a.txt": "x", "extra.txt": "e"})

	if _, err := runCLI(t, "compare", "--no-history", expected, actual); err == nil {
		t.Fatal("extra files must fail without --forgive-extra")
	}

	output, err := runCLI(t, "compare", "--no-history", "--forgive-extra", expected, actual)
	if err != nil {
		t.Fatalf("compare --forgive-extra returned error: %v\n%s", err, output)
	}
	if !strings.Contains(output, "extra files forgiven") {
		t.Errorf("summary should note forgiven files:\n%s", output)
	}
}

func TestCompareCommand_Normalize(t *testing.T) {
	project := setupProject(t)
	expected := writeTree(t, filepath.Join(project, "golden"), map[string]string{"build.txt": "build 123"})
	actual := writeTree(t, filepath.Join(project, "out"), map[string]string{"build.txt": "build 456"})

	output, err := runCLI(t, "compare", "--no-history", "--normalize", `\d+=N`, expected, actual)
	if err != nil {
		t.Fatalf("normalized compare returned error: %v\n%s", err, output)
	}
	if !strings.Contains(output, "normalized") {
		t.Errorf("summary should note normalization:\n%s", output)
	}
}

func TestCompareCommand_Errors(t *testing.T) {
	project := setupProject(t)
	expected := writeTree(t, filepath.Join(project, "golden"), map[string]string{"a.txt": "x"})

	_, err := runCLI(t, "compare", "--no-history", expected, filepath.Join(project, "missing"))
	if err == nil || errors.Is(err, dircmp.ErrMismatch) {
		t.Errorf("missing directory should be a plain error, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("unexpected error %v", err)
	}

	if _, err := runCLI(t, "compare", "--normalize", "no-separator", expected, expected); err == nil {
		t.Error("expected error for malformed --normalize")
	}
	if _, err := runCLI(t, "compare", "--disassembler", "objdump", expected, expected); err == nil {
		t.Error("expected error for unknown disassembler")
	}
	if _, err := runCLI(t, "compare", expected); err == nil {
		t.Error("expected error for missing argument")
	}
}

func TestCompareCommand_ConfigFile(t *testing.T) {
	project := setupProject(t)
	home := filepath.Join(project, ".outcmp")
	writeTree(t, home, map[string]string{"config.yaml": "log_dir: logs\nlog_level: debug\nexclude_dirs: [tmp]\n"})

	expected := writeTree(t, filepath.Join(project, "golden"), map[string]string{"a.txt": "x"})
	actual := writeTree(t, filepath.Join(project, "out"), map[string]string{"a.txt": "x", "tmp/scratch": "z"})

	output, err := runCLI(t, "compare", "--no-history", expected, actual)
	if err != nil {
		t.Fatalf("excluded directory should not fail the comparison: %v\n%s", err, output)
	}

	data, err := os.ReadFile(filepath.Join(project, "logs", "latest.log"))
	if err != nil {
		t.Fatalf("run log missing: %v", err)
	}
	if !strings.Contains(string(data), "=== COMPARISON ===") {
		t.Errorf("run log lacks the comparison block:\n%s", data)
	}
}

func TestTreeCommand(t *testing.T) {
	project := setupProject(t)
	dir := writeTree(t, filepath.Join(project, "out"), map[string]string{"a.txt": "hello\n", "demo/b.txt": ""})

	output, err := runCLI(t, "tree", dir, "a.txt")
	if err != nil {
		t.Fatalf("tree returned error: %v", err)
	}
	want := ".\n    demo\n        b.txt 0\n    a.txt 909783072\n" +
		"================ a.txt ================\nhello\n\n\n"
	if output != want {
		t.Errorf("tree output = %q, want %q", output, want)
	}

	if _, err := runCLI(t, "tree", filepath.Join(project, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRenderCommand(t *testing.T) {
	project := setupProject(t)
	classBytes := string(classfiletest.New("demo/Plain").DefaultConstructor().Bytes())
	dir := writeTree(t, filepath.Join(project, "out"), map[string]string{
		"demo/Plain.class": classBytes,
		"META-INF/x.txt":   "ignored",
	})

	output, err := runCLI(t, "render", filepath.Join(dir, "demo", "Plain.class"))
	if err != nil {
		t.Fatalf("render returned error: %v", err)
	}
	if !strings.Contains(output, "demo/Plain") {
		t.Errorf("listing should name the class:\n%s", output)
	}

	output, err = runCLI(t, "render", dir)
	if err != nil {
		t.Fatalf("render of directory returned error: %v", err)
	}
	if !strings.Contains(output, "================ demo/Plain.class ================\n") {
		t.Errorf("missing class header:\n%s", output)
	}
	if strings.Contains(output, "x.txt") {
		t.Errorf("non-class files should be skipped:\n%s", output)
	}
}

func TestAcceptCommand(t *testing.T) {
	project := setupProject(t)
	expected := writeTree(t, filepath.Join(project, "golden"), map[string]string{"a.txt": "old", "stale.txt": "s"})
	actual := writeTree(t, filepath.Join(project, "out"), map[string]string{"a.txt": "new"})

	output, err := runCLI(t, "accept", expected, actual)
	if err != nil {
		t.Fatalf("accept returned error: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Accepted") {
		t.Errorf("missing confirmation:\n%s", output)
	}

	data, err := os.ReadFile(filepath.Join(expected, "a.txt"))
	if err != nil || string(data) != "new" {
		t.Errorf("a.txt = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(expected, "stale.txt")); !os.IsNotExist(err) {
		t.Error("stale.txt should be removed")
	}

	if _, err := runCLI(t, "compare", "--no-history", expected, actual); err != nil {
		t.Errorf("accepted directory should compare equal: %v", err)
	}
}

func TestAcceptLockPath(t *testing.T) {
	got := acceptLockPath(filepath.Join("testData", "golden") + string(filepath.Separator))
	want := filepath.Join("testData", ".golden.lock")
	if got != want {
		t.Errorf("acceptLockPath() = %s, want %s", got, want)
	}
}

func TestHistoryCommand(t *testing.T) {
	project := setupProject(t)

	output, err := runCLI(t, "history")
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	if !strings.Contains(output, "No comparison history found") {
		t.Errorf("unexpected output for empty history:\n%s", output)
	}

	golden := writeTree(t, filepath.Join(project, "golden"), map[string]string{"a.txt": "x"})
	same := writeTree(t, filepath.Join(project, "same"), map[string]string{"a.txt": "x"})
	changed := writeTree(t, filepath.Join(project, "changed"), map[string]string{"a.txt": "y"})
	other := writeTree(t, filepath.Join(project, "other"), map[string]string{"a.txt": "x"})

	if _, err := runCLI(t, "compare", golden, same); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "compare", "--no-report", golden, changed); err == nil {
		t.Fatal("expected mismatch")
	}
	if _, err := runCLI(t, "compare", other, same); err != nil {
		t.Fatal(err)
	}

	output, err = runCLI(t, "history")
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 runs, got:\n%s", output)
	}
	if !strings.Contains(lines[0], "PASS "+same) || !strings.HasSuffix(lines[0], "vs "+other) {
		t.Errorf("most recent run first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "FAIL "+changed+" (changed: 1") {
		t.Errorf("unexpected second line %q", lines[1])
	}

	output, err = runCLI(t, "history", "--limit", "1")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(strings.Split(strings.TrimSpace(output), "\n")); got != 1 {
		t.Errorf("--limit 1 listed %d runs", got)
	}

	output, err = runCLI(t, "history", golden)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(output, "vs "+other) {
		t.Errorf("filtered history lists other golden dirs:\n%s", output)
	}
	if got := len(strings.Split(strings.TrimSpace(output), "\n")); got != 2 {
		t.Errorf("expected 2 runs for %s, got:\n%s", golden, output)
	}
}

func TestParseNormalizeRules(t *testing.T) {
	rules, err := parseNormalizeRules([]string{`\d+=N`, `a=b=c`, `x=`})
	if err != nil {
		t.Fatalf("parseNormalizeRules() error = %v", err)
	}
	want := []config.NormalizeRule{{Pattern: `\d+`, Replace: "N"}, {Pattern: "a", Replace: "b=c"}, {Pattern: "x", Replace: ""}}
	if len(rules) != len(want) {
		t.Fatalf("got %d rules, want %d", len(rules), len(want))
	}
	for i := range want {
		if rules[i] != want[i] {
			t.Errorf("rule %d = %+v, want %+v", i, rules[i], want[i])
		}
	}

	for _, bad := range []string{"nothing", "=replace"} {
		if _, err := parseNormalizeRules([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestNewRenderer(t *testing.T) {
	cfg := config.DefaultConfig()
	r, err := newRenderer(cfg)
	if err != nil {
		t.Fatalf("newRenderer() error = %v", err)
	}
	if !r.IsClassFile("A.class") || r.IsClassFile("A.txt") {
		t.Error("default class extensions not applied")
	}

	cfg.Disassembler = "javap"
	cfg.JavapPath = "/opt/jdk/bin/javap"
	r, err = newRenderer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if r.Disassembler == nil {
		t.Fatal("javap disassembler not set")
	}

	cfg.MetadataVersion = "not-a-version"
	if _, err := newRenderer(cfg); err == nil {
		t.Error("expected error for bad metadata version")
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestLoadConfigLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("complexity: 3\ncoupling: [0.5, 0.5, 0.5]\nmax_population: 50\nfps: 30\n"), 0644); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	if err := root.ParseFlags([]string{"--config", path, "--coupling", "1,1.5,2", "--seed", "9"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Complexity != 3 {
		t.Errorf("complexity from file: got %d", cfg.Complexity)
	}
	if cfg.Coupling != [3]float64{1, 1.5, 2} {
		t.Errorf("coupling flag should win: got %v", cfg.Coupling)
	}
	if cfg.FPS != 30 || cfg.Seed != 9 {
		t.Errorf("fps %d seed %d", cfg.FPS, cfg.Seed)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	cases := [][]string{
		{"--preset", "nope"},
		{"--complexity", "9"},
		{"--coupling", "1,1"},
		{"--modes", "gravity"},
	}
	for _, args := range cases {
		root := newRootCmd()
		if err := root.ParseFlags(args); err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfig(root); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestPresetsCommand(t *testing.T) {
	out := execute(t, "presets")
	for _, name := range []string{"quiet", "critical", "feedback-lock"} {
		if !strings.Contains(out, name) {
			t.Errorf("missing preset %s in %q", name, out)
		}
	}
}

func TestRunListExport(t *testing.T) {
	dir := t.TempDir()
	out := execute(t, "run", "--data", dir, "--ticks", "120", "--seed", "3", "--modes", "emergence", "--log-level", "error")
	if !strings.HasPrefix(out, "run: run_") {
		t.Fatalf("unexpected run output %q", out)
	}
	runID := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(out, "run: "), "\n", 2)[0])

	list := execute(t, "list", "--data", dir)
	if !strings.Contains(list, runID) {
		t.Errorf("list missing %s:\n%s", runID, list)
	}

	csvOut := execute(t, "export-csv", runID, "--data", dir)
	if lines := strings.Count(csvOut, "\n"); lines != 121 {
		t.Errorf("csv lines: got %d, want 121", lines)
	}

	jsonPath := filepath.Join(dir, "run.json")
	execute(t, "export-json", runID, "--data", dir, "-o", jsonPath)
	if data, err := os.ReadFile(jsonPath); err != nil || !bytes.Contains(data, []byte(`"population"`)) {
		t.Errorf("json export: %v", err)
	}

	analysis := execute(t, "analyze", runID, "--data", dir)
	if !strings.Contains(analysis, "mean population") {
		t.Errorf("analyze output:\n%s", analysis)
	}
}

func TestSVGCommand(t *testing.T) {
	out := execute(t, "svg", "--ticks", "30", "--seed", "1", "--modes", "feedback", "--log-level", "error")
	if !strings.HasPrefix(strings.TrimSpace(out), "<svg") {
		t.Errorf("expected svg, got %.60q", out)
	}
}

func TestSweepCommand(t *testing.T) {
	out := execute(t, "sweep", "--pair", "1", "--from", "0.5", "--to", "1.0", "--step", "0.5",
		"--runs", "2", "--ticks", "20", "--seed", "5", "--log-level", "error")
	if !strings.Contains(out, "0.50") || !strings.Contains(out, "1.00") {
		t.Errorf("sweep output:\n%s", out)
	}
}

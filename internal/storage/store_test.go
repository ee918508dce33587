package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/levelflow/internal/dynamo"
)

func sampleResult() *dynamo.Result {
	return &dynamo.Result{
		Samples: []dynamo.Sample{
			{Tick: 1, Population: 1, Spawned: true},
			{Tick: 2, Population: 2, Spawned: true, Upward: 2},
			{Tick: 3, Population: 1, Expired: 1, Recorded: 1, Critical: true, Intensity: 0.25, Upward: 1},
		},
		Metrics:       map[string]float64{"population": 1.5},
		MemoryEntries: 1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Name: "critical", Seed: 42, Complexity: 4, Coupling: [3]float64{1, 1, 1}}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "critical_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 || meta.Ticks != 3 || meta.MemoryEntries != 1 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["population"] != 1.5 {
		t.Errorf("expected population 1.5, got %f", meta.Metrics["population"])
	}
	if meta.Age() == "" {
		t.Error("expected humanized age")
	}

	result, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	want := sampleResult().Samples
	if len(result.Samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(result.Samples))
	}
	for i := range want {
		if result.Samples[i] != want[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, result.Samples[i], want[i])
		}
	}
	if result.Metrics["population"] != 1.5 {
		t.Error("metrics not restored from metadata")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(RunMetadata{Name: "test"}, sampleResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID == runs[1].ID {
		t.Error("run ids collide")
	}
	if !strings.Contains(runs[0].Summary(), runs[0].ID) {
		t.Error("summary should include run id")
	}
}

func TestStoreMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(RunMetadata{Name: "test"}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "series.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestLoadSeriesEmpty(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Name: "empty"}, &dynamo.Result{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadSeries(runID); !errors.Is(err, dynamo.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, RunMetadata{ID: "x"}, sampleResult()); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Steps != 3 {
		t.Errorf("expected 3 steps, got %d", data.Steps)
	}
	if got := data.Series["population"]; len(got) != 3 || got[1] != 2 {
		t.Errorf("unexpected population series %v", got)
	}
}

func TestExportFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	jsonPath := filepath.Join(dir, "out.json")

	if err := ExportCSV(csvPath, sampleResult()); err != nil {
		t.Fatal(err)
	}
	if err := ExportJSON(jsonPath, RunMetadata{}, sampleResult()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "tick,population,") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/san-kum/levelflow/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Ticks         int                `json:"ticks"`
	Complexity    int                `json:"complexity"`
	Coupling      [3]float64         `json:"coupling"`
	Modes         []string           `json:"modes"`
	MaxPopulation int                `json:"max_population"`
	MemoryEntries int                `json:"memory_entries"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Age is the humanized time since the run was saved.
func (m RunMetadata) Age() string {
	return humanize.Time(m.Timestamp)
}

// Summary is a one-line listing of the run.
func (m RunMetadata) Summary() string {
	return fmt.Sprintf("%-32s %-14s %8s ticks  complexity %d  coupling %v  %s",
		m.ID, m.Name, humanize.Comma(int64(m.Ticks)), m.Complexity, m.Coupling, m.Age())
}

// Save writes metadata.json and series.csv under a fresh run directory.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if meta.Name == "" {
		meta.Name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d_%s", meta.Name, now.Unix(), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Ticks = len(result.Samples)
	meta.MemoryEntries = result.MemoryEntries
	meta.Metrics = result.Metrics

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads the per-tick samples of a run back into a Result.
func (s *Store) LoadSeries(runID string) (*dynamo.Result, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("run %s: %w", runID, dynamo.ErrNoData)
	}

	result := &dynamo.Result{Samples: make([]dynamo.Sample, 0, len(records)-1)}
	for _, record := range records[1:] {
		sample, err := parseSample(record)
		if err != nil {
			continue
		}
		result.Samples = append(result.Samples, sample)
	}
	if len(result.Samples) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, dynamo.ErrNoData)
	}

	if meta, err := s.Load(runID); err == nil {
		result.Metrics = meta.Metrics
		result.MemoryEntries = meta.MemoryEntries
	}
	return result, nil
}

// WriteCSV writes one row per sample with a tick column followed by
// dynamo.Columns.
func WriteCSV(w io.Writer, result *dynamo.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{"tick"}, dynamo.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range result.Samples {
		row := []string{strconv.FormatUint(s.Tick, 10)}
		for _, col := range dynamo.Columns {
			v, _ := s.Value(col)
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func parseSample(record []string) (dynamo.Sample, error) {
	var s dynamo.Sample
	if len(record) < len(dynamo.Columns)+1 {
		return s, fmt.Errorf("short record: %d fields", len(record))
	}
	tick, err := strconv.ParseUint(record[0], 10, 64)
	if err != nil {
		return s, err
	}
	vals := make([]float64, len(dynamo.Columns))
	for i := range dynamo.Columns {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return s, err
		}
		vals[i] = v
	}
	s.Tick = tick
	s.Population = int(vals[0])
	s.Spawned = vals[1] != 0
	s.Expired = int(vals[2])
	s.Recorded = int(vals[3])
	s.Critical = vals[4] != 0
	s.Intensity = vals[5]
	s.Upward = int(vals[6])
	s.Downward = int(vals[7])
	return s, nil
}

package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/levelflow/internal/dynamo"
)

type ExportData struct {
	Run     RunMetadata          `json:"run"`
	Steps   int                  `json:"steps"`
	Columns []string             `json:"columns"`
	Series  map[string][]float64 `json:"series"`
	Metrics map[string]float64   `json:"metrics"`
}

func newExportData(meta RunMetadata, result *dynamo.Result) ExportData {
	data := ExportData{
		Run:     meta,
		Steps:   len(result.Samples),
		Columns: dynamo.Columns,
		Series:  make(map[string][]float64, len(dynamo.Columns)),
		Metrics: result.Metrics,
	}
	for _, col := range dynamo.Columns {
		vals, err := result.Column(col)
		if err != nil {
			vals = []float64{}
		}
		data.Series[col] = vals
	}
	return data
}

// WriteJSON encodes the run as indented JSON.
func WriteJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, result))
}

func ExportJSON(path string, meta RunMetadata, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, result)
}

func ExportCSV(path string, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, result)
}

package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/harmony/internal/metrics"
)

type ExportData struct {
	Run   RunMetadata      `json:"run"`
	Steps int              `json:"steps"`
	Trace []metrics.Sample `json:"trace"`
}

func ExportJSON(w io.Writer, meta RunMetadata, trace []metrics.Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Steps: len(trace), Trace: trace})
}

func ExportJSONFile(path string, meta RunMetadata, trace []metrics.Sample) error {
	return writeFile(path, func(w io.Writer) error {
		return ExportJSON(w, meta, trace)
	})
}

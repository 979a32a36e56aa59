package export

import (
	"encoding/json"
	"io"
)

// JSONExporter exports reports to JSON format.
type JSONExporter struct {
	Pretty bool // Whether to pretty-print the JSON
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{
		Pretty: true,
	}
}

// Export writes the report as JSON to the writer.
func (e *JSONExporter) Export(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	if e.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(r)
}

package exporter

import (
	"encoding/json"
	"io"

	"udderwatch/internal/inference"
)

// WriteReport encodes a run report as indented JSON.
func WriteReport(w io.Writer, report *inference.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

// FileSummary is the processing outcome of one input file.
type FileSummary struct {
	File    string `json:"file"`
	Entity  string `json:"entity_id"`
	Success bool   `json:"success"`
	Rows    int    `json:"rows,omitempty"`
	Columns int    `json:"columns,omitempty"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteSummaries encodes per-file summaries as indented JSON.
func WriteSummaries(w io.Writer, summaries []FileSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(summaries)
}

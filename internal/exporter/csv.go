package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"

	"udderwatch/internal/files"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes whole CSV files under a root directory.
type CSVWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewCSVWriter creates a writer resolving relative paths against root.
func NewCSVWriter(root string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		files:  files.NewManager(root),
		logger: logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteOptions is the content of one CSV file.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // spreadsheet tools need it to read the accents
}

// WriteCSV encodes the table and replaces filePath with it in one rename.
// It returns the resolved path.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	var buf bytes.Buffer
	if options.BOMPrefix {
		buf.Write(utf8BOM)
	}
	cw := csv.NewWriter(&buf)
	if len(options.Headers) > 0 {
		if err := cw.Write(options.Headers); err != nil {
			return "", fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}

	path, err := w.files.WriteFile(filePath, buf.Bytes())
	if err != nil {
		return "", err
	}
	w.logger.Debug("csv written",
		slog.String("path", path),
		slog.Int("records", len(options.Records)))
	return path, nil
}

package exporter

import (
	"fmt"

	"udderwatch/internal/frame"
)

// Leading columns of a feature file.
const (
	EntityColumn = "vaca"
	DateColumn   = "fecha"
)

// FeatureFileName is the per-entity feature file name.
func FeatureFileName(entity string) string {
	return fmt.Sprintf("vaca_%s_features.csv", entity)
}

// FeatureTable flattens f to CSV cells: entity, date, text columns, then
// numeric columns in frame order. Dates of invalid timestamps are empty.
func FeatureTable(f *frame.Frame) ([]string, [][]string) {
	textNames := f.TextNames()
	numNames := f.Names()

	headers := make([]string, 0, 2+len(textNames)+len(numNames))
	headers = append(headers, EntityColumn, DateColumn)
	headers = append(headers, textNames...)
	headers = append(headers, numNames...)

	text := make([][]string, len(textNames))
	for j, n := range textNames {
		text[j], _ = f.Text(n)
	}
	nums := make([][]float64, len(numNames))
	for j, n := range numNames {
		nums[j], _ = f.Column(n)
	}

	records := make([][]string, f.Len())
	for i := range records {
		row := make([]string, 0, len(headers))
		ts := f.Time(i)
		date := ""
		if ts.Valid {
			date = ts.Time.Format("2006-01-02 15:04:05")
		}
		row = append(row, f.Entity(i), date)
		for _, c := range text {
			row = append(row, c[i])
		}
		for _, c := range nums {
			row = append(row, formatFloat(c[i]))
		}
		records[i] = row
	}
	return headers, records
}

// FeatureExporter writes entity feature tables.
type FeatureExporter struct {
	csv *CSVWriter
}

// NewFeatureExporter creates an exporter on w.
func NewFeatureExporter(w *CSVWriter) *FeatureExporter {
	return &FeatureExporter{csv: w}
}

// Export writes f as FeatureFileName(entity) and returns the written path.
func (e *FeatureExporter) Export(entity string, f *frame.Frame) (string, error) {
	if f == nil {
		return "", fmt.Errorf("no feature table for entity %s", entity)
	}
	headers, records := FeatureTable(f)
	return e.csv.WriteCSV(FeatureFileName(entity), WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

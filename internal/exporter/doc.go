// Package exporter writes pipeline results.
//
// CSVWriter is the shared CSV sink, with streaming and an optional UTF-8 BOM
// for spreadsheet compatibility. FeatureExporter writes one feature table
// per entity. WriteReport encodes a run report as JSON, and
// ThresholdReport writes the per-record threshold alert workbook.
//
// Example usage:
//
//	csvw := exporter.NewCSVWriter("out", logger)
//	fx := exporter.NewFeatureExporter(csvw)
//	path, err := fx.Export(result.Entity, result.Features)
package exporter

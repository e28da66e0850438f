package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"udderwatch/internal/alarm"
	"udderwatch/internal/inference"
)

// ThresholdSheet is the worksheet of the threshold report.
const ThresholdSheet = "Alertas"

// Threshold report columns besides the per-threshold flags.
const (
	ProbabilityColumn = "Probabilidad_Modelo"
	TotalAlertsColumn = "total_alertas"
	AlarmLevelColumn  = "nivel_alarma"
)

// ThresholdReport writes one row per record with its threshold crossings.
type ThresholdReport struct {
	counter *alarm.ThresholdCounter
	logger  *slog.Logger
}

// NewThresholdReport creates a report over the given cut-points.
func NewThresholdReport(thresholds []float64, logger *slog.Logger) *ThresholdReport {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThresholdReport{
		counter: alarm.NewThresholdCounter(thresholds),
		logger:  logger.With(slog.String("component", "threshold_report")),
	}
}

// Headers lists the report columns.
func (t *ThresholdReport) Headers() []string {
	h := []string{EntityColumn, DateColumn, ProbabilityColumn}
	h = append(h, t.counter.Columns()...)
	return append(h, TotalAlertsColumn, AlarmLevelColumn)
}

// Rows evaluates every record of every successful entity.
func (t *ThresholdReport) Rows(report *inference.Report) [][]interface{} {
	var rows [][]interface{}
	for _, r := range report.Entities {
		if r.Failed() {
			continue
		}
		for i, p := range r.Probabilities {
			c := t.counter.Evaluate(p)
			row := make([]interface{}, 0, len(c.Flags)+5)
			date := ""
			if i < len(r.Dates) {
				date = r.Dates[i]
			}
			row = append(row, r.Entity, date, formatProbability(p))
			for _, flag := range c.Flags {
				row = append(row, flag)
			}
			rows = append(rows, append(row, c.Total, c.Level))
		}
	}
	return rows
}

// Write saves the report workbook to path.
func (t *ThresholdReport) Write(path string, report *inference.Report) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), ThresholdSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := wb.NewStreamWriter(ThresholdSheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	headers := t.Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rows := t.Rows(report)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	t.logger.Info("threshold report written",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
	)
	return nil
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"udderwatch/internal/exporter"
	"udderwatch/internal/shared/testutil"
)

func sessions(t *testing.T) string {
	t.Helper()
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "vaca 10.csv"), []byte(testutil.SessionCSV(1, 2, 3)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "11.csv"), []byte(testutil.SessionCSV(2)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "12.csv"), []byte("no sessions here"), 0o644))
	return in
}

func descriptionLog(t *testing.T) string {
	t.Helper()
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]interface{}{
		{"Archivo_origen", "Descripción", "Fecha del evento"},
		{"vaca_10", "Mastitis clínica DI", "02/01/2024"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "descripciones.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

func TestRun(t *testing.T) {
	tests := []struct {
		name      string
		labels    bool
		wantLabel bool
	}{
		{name: "unlabeled"},
		{name: "labeled", labels: true, wantLabel: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, out := sessions(t), t.TempDir()
			args := []string{"-in", in, "-out", out}
			if tt.labels {
				args = append(args, "-labels", descriptionLog(t))
			}

			var stdout, stderr bytes.Buffer
			require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())

			var summaries []exporter.FileSummary
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &summaries))
			require.Len(t, summaries, 3)

			written := 0
			for _, s := range summaries {
				if s.Success {
					written++
				}
			}
			assert.Equal(t, 2, written)
			assert.Contains(t, stderr.String(), "feature export completed")

			data, err := os.ReadFile(filepath.Join(out, "vaca_10_features.csv"))
			require.NoError(t, err)
			header := strings.SplitN(string(data), "\n", 2)[0]
			assert.Equal(t, tt.wantLabel, strings.Contains(header, "Mastitis"))
		})
	}
}

func TestRun_SummaryFile(t *testing.T) {
	in := sessions(t)
	summary := filepath.Join(t.TempDir(), "summary.json")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-in", in, "-out", t.TempDir(), "-summary", summary}, &stdout, &stderr))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entity_id": "10"`)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "empty input directory", args: []string{"-in", t.TempDir(), "-out", t.TempDir()}},
		{name: "missing description log", args: []string{"-in", sessions(t), "-out", t.TempDir(), "-labels", "missing.xlsx"}},
		{name: "bad flag", args: []string{"-mode", "cascade"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, run(context.Background(), tt.args, &stdout, &stderr))
		})
	}
}

package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "udderwatch/internal/errors"
	"udderwatch/internal/shared/testutil"
)

var (
	groupRow  = []string{"", "", "Flujo medio", "", "", "", "Sangre", "", "", "", "Conductividad", "", "", "", "Flujo max", "", "", "", "Produccion", "", "", "", "", "", ""}
	headerRow = []string{
		"Hora de inicio", "EO/PO",
		"DI", "DD", "TI", "TD",
		"DI", "DD", "TI", "TD",
		"DI", "DD", "TI", "TD",
		"DI", "DD", "TI", "TD",
		"DI", "DD", "TI", "TD",
		"Ubre", "Usuario", "Producción (kg)",
	}
)

// sessionRow fills quadrant q of family fam with 1.<fam><q>.
func sessionRow(start, shift, usuario string) []string {
	row := []string{start, shift}
	for fam := 0; fam < 5; fam++ {
		for q := 1; q <= 4; q++ {
			row = append(row, fmt.Sprintf("1.%d%d", fam, q))
		}
	}
	return append(row, "OK", usuario, "12.5")
}

func csvBytes(rows ...[]string) []byte {
	var b bytes.Buffer
	for _, r := range rows {
		b.WriteString(strings.Join(r, ","))
		b.WriteString("\n")
	}
	return b.Bytes()
}

func newReader(t *testing.T) *Reader {
	logger, _ := testutil.NewTestLogger(t)
	return NewReader("", logger)
}

func TestRead_CSVHeaderFlatteningAndCleaning(t *testing.T) {
	data := csvBytes(
		groupRow,
		headerRow,
		sessionRow("05/03/2024 06:15 a. m.", "EO", ""),
		sessionRow("05/03/2024 05:40 p. m.", "PO", "ana"),
		sessionRow("not a date", "EO", "luis"),
		sessionRow("06/03/2024 07:00 a. m.", "PO", "ana"),
	)
	data = append([]byte{0xEF, 0xBB, 0xBF}, data...)

	src, err := newReader(t).Read(context.Background(), "Vaca 1234 Ordeños.csv", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "1234", src.Entity)
	assert.Equal(t, 4, src.RowsRead)
	assert.Equal(t, 0, src.RowsDropped, "Usuario is dropped before incomplete rows")

	f := src.Frame
	require.Equal(t, 4, f.Len())
	for _, name := range []string{
		"FlujoMedio_DI", "Sangre_DD", "Conductividad_TI", "FlujoMax_TD", "Produccion_DI",
		"Producción (kg)", ShiftIDColumn,
	} {
		assert.True(t, f.Has(name), name)
	}
	assert.False(t, f.Has("Usuario"))
	assert.False(t, f.HasText("Usuario"))
	assert.True(t, f.HasText("Estado_Ubre"))
	assert.True(t, f.HasText(StartTimeColumn))

	assert.InDelta(t, 1.01, f.Value("FlujoMedio_DI", 0), 1e-12)
	assert.InDelta(t, 1.12, f.Value("Sangre_DD", 0), 1e-12)
	assert.InDelta(t, 1.44, f.Value("Produccion_TD", 0), 1e-12)

	shift, _ := f.Column(ShiftIDColumn)
	assert.Equal(t, []float64{1, 2, 1, 2}, shift)

	origin, ok := f.Text(SourceColumn)
	require.True(t, ok)
	assert.Equal(t, "Vaca 1234 Ordeños", origin[0])

	assert.True(t, f.Time(0).Valid)
	assert.Equal(t, 17, f.Time(1).Time.Hour())
	assert.False(t, f.Time(2).Valid)
	assert.Equal(t, "not a date", f.Time(2).Raw)
}

func TestRead_DropsIncompleteRows(t *testing.T) {
	header := []string{"Hora de inicio", "DI", "Acción"}
	data := csvBytes(
		[]string{"", "Flujo", ""},
		header,
		[]string{"01/01/2024 06:00", "2.5", ""},
		[]string{"01/01/2024 18:00", "", "x"},
		[]string{"", "", ""},
		[]string{"02/01/2024 06:00", "3", "y"},
	)
	src, err := newReader(t).Read(context.Background(), "77.csv", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 3, src.RowsRead)
	assert.Equal(t, 1, src.RowsDropped)
	col, _ := src.Frame.Column("FlujoMedio_DI")
	assert.Equal(t, []float64{2.5, 3}, col)
	eopo, _ := src.Frame.Column(ShiftIDColumn)
	assert.Equal(t, []float64{0, 0}, eopo)
}

func TestRead_XLSX(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]string{
		{"Ordeños", "", ""},
		{"Hora de inicio", "DI", "DI"},
		{"10/02/2024 09:30", "4", "0"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]interface{}, len(r))
		for j, v := range r {
			vals[j] = v
		}
		require.NoError(t, wb.SetSheetRow(sheet, cell, &vals))
	}
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	src, err := newReader(t).Read(context.Background(), "cow_88.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, "88", src.Entity)
	assert.True(t, src.Frame.Has("FlujoMedio_DI"))
	assert.True(t, src.Frame.Has("Sangre_DI"))
	assert.True(t, src.Frame.Time(0).Valid)
}

func TestRead_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     []byte
		wantType apperrors.ErrorType
	}{
		{name: "unsupported extension", file: "a.txt", data: []byte("x"), wantType: apperrors.ErrTypeValidation},
		{name: "missing column header", file: "a.csv", data: []byte("only one row\n"), wantType: apperrors.ErrTypeParsing},
		{name: "corrupt workbook", file: "a.xlsx", data: []byte("not a zip"), wantType: apperrors.ErrTypeParsing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newReader(t).Read(context.Background(), tt.file, bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), err.Error())
		})
	}
}

func TestReadDir(t *testing.T) {
	t.Run("empty directory is fatal", func(t *testing.T) {
		_, err := newReader(t).ReadDir(context.Background(), t.TempDir())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFatalInput))
	})

	t.Run("missing directory is fatal", func(t *testing.T) {
		_, err := newReader(t).ReadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFatalInput))
	})

	t.Run("bad files are reported not fatal", func(t *testing.T) {
		dir := t.TempDir()
		good := csvBytes([]string{"g", ""}, []string{"Hora de inicio", "DI"}, []string{"01/01/2024 06:00", "1"})
		require.NoError(t, os.WriteFile(filepath.Join(dir, "10.csv"), good, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "11.csv"), []byte("single\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

		sources, err := newReader(t).ReadDir(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.NoError(t, sources[0].Err)
		assert.Error(t, sources[1].Err)
		assert.Equal(t, "11", sources[1].Entity)
		assert.Len(t, Frames(sources), 1)
	})
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  string
	}{
		{raw: "05/03/2024 06:15 a. m.", valid: true, want: "2024-03-05 06:15"},
		{raw: "05/03/2024 12:05 p. m.", valid: true, want: "2024-03-05 12:05"},
		{raw: "5/3/2024 6:15 PM", valid: true, want: "2024-03-05 18:15"},
		{raw: "05/03/2024 18:15", valid: true, want: "2024-03-05 18:15"},
		{raw: "05/03/2024", valid: true, want: "2024-03-05 00:00"},
		{raw: "2024-03-05", valid: false},
		{raw: "", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ts := ParseTimestamp(tt.raw)
			assert.Equal(t, tt.valid, ts.Valid)
			assert.Equal(t, tt.raw, ts.Raw)
			if tt.valid {
				assert.Equal(t, tt.want, ts.Time.Format("2006-01-02 15:04"))
			}
		})
	}
}

func TestDedupeAndRenames(t *testing.T) {
	got := dedupe([]string{"DI", "DD", "DI", "", "DI", "DI.1"})
	want := []string{"DI", "DD", "DI.1", "Unnamed: 3", "DI.2", "DI.1.1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupe mismatch (-want +got):\n%s", diff)
	}

	r := Renames()
	assert.Equal(t, "FlujoMedio_DI", r["DI"])
	assert.Equal(t, "Conductividad_TD", r["TD.2"])
	assert.Equal(t, "Produccion_DD", r["DD.4"])
	assert.Equal(t, "Estado_Ubre", r["Ubre"])
	assert.Len(t, r, 21)
}

func TestEntityID(t *testing.T) {
	assert.Equal(t, "1234", EntityID("vaca_1234_2024"))
	assert.Equal(t, "lola", EntityID("lola"))
}

package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "udderwatch/internal/errors"
	"udderwatch/internal/files"
	"udderwatch/internal/frame"
)

// Source is one ingested session file.
type Source struct {
	Path        string
	Entity      string
	Frame       *frame.Frame
	RowsRead    int
	RowsDropped int
	// Err is set when the file could not be read; Frame is nil then.
	Err error
}

// Reader turns session exports into frames.
type Reader struct {
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewReader creates a reader resolving relative directories against base.
func NewReader(base string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		discovery: files.NewDiscovery(base),
		logger:    logger.With(slog.String("component", "ingest")),
	}
}

// ReadDir reads every session file in dir. A directory without session
// files is a FatalInput error. Files that fail to read are reported in
// their Source and logged; they do not fail the call.
func (r *Reader) ReadDir(ctx context.Context, dir string) ([]*Source, error) {
	found, err := r.discovery.FindSessionFiles(dir)
	if err != nil {
		return nil, apperrors.NewFatalInputError("input directory unreadable", err).
			WithContext("dir", dir)
	}
	if len(found) == 0 {
		return nil, apperrors.NewFatalInputError(fmt.Sprintf("no session files in %s", dir), nil).
			WithContext("dir", dir)
	}

	r.logger.InfoContext(ctx, "session files found",
		slog.String("dir", dir),
		slog.Int("files", len(found)),
	)

	sources := make([]*Source, 0, len(found))
	for _, fi := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := r.ReadFile(ctx, fi.Path)
		if err != nil {
			r.logger.WarnContext(ctx, "session file skipped",
				slog.String("file", fi.Name),
				slog.String("error", err.Error()),
			)
			src = &Source{Path: fi.Path, Entity: EntityID(fi.Stem()), Err: err}
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// ReadFile reads one session file.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Source, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer fh.Close()

	src, err := r.Read(ctx, filepath.Base(path), fh)
	if err != nil {
		return nil, err
	}
	src.Path = path
	return src, nil
}

// Read parses a session export from rd. name provides both the format (by
// extension) and the entity id (by stem).
func (r *Reader) Read(ctx context.Context, name string, rd io.Reader) (*Source, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		rows, err = readCSV(rd)
	case ".xlsx":
		rows, err = readXLSX(rd)
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unsupported session file %s", name)).
			WithContext("file", name)
	}
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read %s", name), err)
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	tbl, err := newTable(rows)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read %s", name), err)
	}
	read := len(tbl.rows)

	tbl.drop(NoiseColumns...)
	tbl.dropIncomplete()
	tbl.rename(Renames())
	if tbl.index(ShiftColumn) >= 0 {
		tbl.encodeCategories(ShiftColumn, ShiftIDColumn)
	} else {
		tbl.constant(ShiftIDColumn, "0")
	}

	src := &Source{
		Entity:      EntityID(stem),
		RowsRead:    read,
		RowsDropped: read - len(tbl.rows),
	}
	src.Frame, err = r.build(ctx, name, stem, src.Entity, tbl)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("build frame for %s", name), err)
	}

	r.logger.DebugContext(ctx, "session file read",
		slog.String("file", name),
		slog.String("entity", src.Entity),
		slog.Int("rows", src.Frame.Len()),
		slog.Int("dropped", src.RowsDropped),
	)
	return src, nil
}

func (r *Reader) build(ctx context.Context, name, stem, entity string, tbl *table) (*frame.Frame, error) {
	n := len(tbl.rows)
	entities := make([]string, n)
	times := make([]frame.Timestamp, n)

	start := tbl.index(StartTimeColumn)
	if start < 0 {
		r.logger.WarnContext(ctx, "start time column absent",
			slog.String("file", name),
			slog.String("column", StartTimeColumn),
		)
	}
	invalid := 0
	for i, row := range tbl.rows {
		entities[i] = entity
		if start < 0 {
			times[i] = frame.InvalidTime("")
			continue
		}
		times[i] = ParseTimestamp(row[start])
		if !times[i].Valid {
			invalid++
			tsErr := apperrors.NewTimestampError(row[start])
			r.logger.WarnContext(ctx, tsErr.Message,
				slog.String("file", name),
				slog.Int("row", i),
			)
		}
	}
	if invalid > 0 {
		r.logger.InfoContext(ctx, "rows kept with invalid timestamps",
			slog.String("file", name),
			slog.Int("rows", invalid),
		)
	}

	f, err := frame.New(entities, times)
	if err != nil {
		return nil, err
	}
	for j, col := range tbl.header {
		values := tbl.column(j)
		if nums, ok := parseNumeric(values); ok {
			if err := f.Set(col, nums); err != nil {
				return nil, err
			}
			continue
		}
		if err := f.SetText(col, values); err != nil {
			return nil, err
		}
	}

	origin := make([]string, n)
	for i := range origin {
		origin[i] = stem
	}
	if err := f.SetText(SourceColumn, origin); err != nil {
		return nil, err
	}
	return f, nil
}

// parseNumeric converts a column whose every cell is a number. An empty
// column is not numeric.
func parseNumeric(values []string) ([]float64, bool) {
	if len(values) == 0 {
		return nil, false
	}
	out := make([]float64, len(values))
	for i, v := range values {
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		out[i] = x
	}
	return out, true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(rd io.Reader) ([][]string, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

// readXLSX returns the rows of the first sheet holding a header and at
// least one data row.
func readXLSX(rd io.Reader) ([][]string, error) {
	wb, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			continue
		}
		if len(rows) >= 2 {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("no sheet with a column header row")
}

// Frames returns the frames of the successfully read sources.
func Frames(sources []*Source) []*frame.Frame {
	out := make([]*frame.Frame, 0, len(sources))
	for _, s := range sources {
		if s.Err == nil && s.Frame != nil {
			out = append(out, s.Frame)
		}
	}
	return out
}

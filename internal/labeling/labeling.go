// Package labeling marks sessions that fall on a recorded mastitis event.
//
// Events come from the herd description log, a workbook with one row per
// registered event. A session is positive when its entity has an event whose
// description mentions mastitis on the session's calendar date. Several
// events for the same entity and date mark the same sessions once.
package labeling

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "udderwatch/internal/errors"
	"udderwatch/internal/frame"
	"udderwatch/internal/ingest"
)

// Description log columns.
const (
	OriginColumn      = "Archivo_origen"
	DescriptionColumn = "Descripción"
	EventDateColumn   = "Fecha del evento"
)

// LabelColumn holds 1 for sessions on an event date, else 0.
const LabelColumn = "Mastitis"

const keyword = "mastitis"

var eventDateLayouts = []string{"2/1/2006", "2/1/2006 15:04", "2006-01-02"}

// Event is one entity-date pair.
type Event struct {
	Entity string
	Date   string
}

// Labeler holds the distinct mastitis events of a description log.
type Labeler struct {
	events map[string]map[string]bool
	logger *slog.Logger
}

// NewLabeler builds a labeler from events, collapsing duplicates.
func NewLabeler(events []Event, logger *slog.Logger) *Labeler {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Labeler{
		events: make(map[string]map[string]bool),
		logger: logger.With(slog.String("component", "labeling")),
	}
	for _, e := range events {
		dates, ok := l.events[e.Entity]
		if !ok {
			dates = make(map[string]bool)
			l.events[e.Entity] = dates
		}
		dates[e.Date] = true
	}
	return l
}

// Load reads the description log at path.
func Load(ctx context.Context, path string, logger *slog.Logger) (*Labeler, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open description log %s", path), err)
	}
	defer fh.Close()

	events, err := ReadEvents(ctx, fh, logger)
	if err != nil {
		return nil, err
	}
	return NewLabeler(events, logger), nil
}

// ReadEvents returns the mastitis events of a description log workbook.
// Rows with an unparsable event date are logged and skipped.
func ReadEvents(ctx context.Context, r io.Reader, logger *slog.Logger) ([]Event, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open description log", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("description log has no sheets", nil)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read description log", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := map[string]int{}
	for j, h := range rows[0] {
		col[strings.TrimSpace(h)] = j
	}
	for _, name := range []string{OriginColumn, DescriptionColumn, EventDateColumn} {
		if _, ok := col[name]; !ok {
			return nil, apperrors.NewParsingError(fmt.Sprintf("description log missing column %q", name), nil)
		}
	}

	cell := func(row []string, name string) string {
		if j := col[name]; j < len(row) {
			return strings.TrimSpace(row[j])
		}
		return ""
	}

	var events []Event
	for i, row := range rows[1:] {
		if !strings.Contains(strings.ToLower(cell(row, DescriptionColumn)), keyword) {
			continue
		}
		raw := cell(row, EventDateColumn)
		date, ok := parseEventDate(raw)
		if !ok {
			logger.WarnContext(ctx, "event date unparsable",
				slog.Int("row", i+2),
				slog.String("value", raw),
			)
			continue
		}
		events = append(events, Event{Entity: ingest.EntityID(cell(row, OriginColumn)), Date: date})
	}
	return events, nil
}

func parseEventDate(raw string) (string, bool) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// Events returns the distinct events sorted by entity then date.
func (l *Labeler) Events() []Event {
	var out []Event
	for entity, dates := range l.events {
		for d := range dates {
			out = append(out, Event{Entity: entity, Date: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// Label sets LabelColumn on f and returns the number of positive sessions.
// Sessions with an invalid timestamp are negative.
func (l *Labeler) Label(ctx context.Context, f *frame.Frame) (int, error) {
	labels := make([]float64, f.Len())
	positive, undated := 0, 0
	for i := range labels {
		date, ok := f.Time(i).Date()
		if !ok {
			undated++
			continue
		}
		if l.events[f.Entity(i)][date] {
			labels[i] = 1
			positive++
		}
	}
	if err := f.Set(LabelColumn, labels); err != nil {
		return 0, err
	}
	if undated > 0 {
		l.logger.WarnContext(ctx, "sessions without a date left unlabeled", slog.Int("rows", undated))
	}
	l.logger.InfoContext(ctx, "sessions labeled",
		slog.Int("rows", f.Len()),
		slog.Int("positive", positive),
	)
	return positive, nil
}

// Package frame is the in-memory feature table passed between pipeline
// stages. Rows are milking sessions; every row carries the entity it belongs
// to and a session timestamp. Numeric columns keep insertion order so that
// exports and debugging output are stable. Text columns carry raw values
// such as the original start-time string.
package frame

import (
	"fmt"
	"math"
	"time"

	"udderwatch/internal/numeric"
)

// Timestamp is a session time that may be explicitly unparsable.
type Timestamp struct {
	Time  time.Time
	Valid bool
	// Raw is the source text the timestamp was parsed from.
	Raw string
}

// ValidTime returns a valid timestamp for t.
func ValidTime(t time.Time, raw string) Timestamp {
	return Timestamp{Time: t, Valid: true, Raw: raw}
}

// InvalidTime marks raw as unparsable.
func InvalidTime(raw string) Timestamp {
	return Timestamp{Raw: raw}
}

// Date returns the calendar date of a valid timestamp as YYYY-MM-DD.
func (ts Timestamp) Date() (string, bool) {
	if !ts.Valid {
		return "", false
	}
	return ts.Time.Format("2006-01-02"), true
}

// Frame is a columnar table of session records.
type Frame struct {
	entities []string
	times    []Timestamp

	names []string
	cols  map[string][]float64

	textNames []string
	text      map[string][]string
}

// New creates an empty frame with rows for the given entities and timestamps.
// Both slices must have the same length.
func New(entities []string, times []Timestamp) (*Frame, error) {
	if len(entities) != len(times) {
		return nil, fmt.Errorf("frame: %d entities for %d timestamps", len(entities), len(times))
	}
	return &Frame{
		entities: append([]string(nil), entities...),
		times:    append([]Timestamp(nil), times...),
		cols:     make(map[string][]float64),
		text:     make(map[string][]string),
	}, nil
}

// Len is the number of rows.
func (f *Frame) Len() int { return len(f.entities) }

// Entity returns the entity id of row i.
func (f *Frame) Entity(i int) string { return f.entities[i] }

// Entities returns a copy of the per-row entity ids.
func (f *Frame) Entities() []string { return append([]string(nil), f.entities...) }

// Time returns the timestamp of row i.
func (f *Frame) Time(i int) Timestamp { return f.times[i] }

// Names returns the numeric column names in insertion order.
func (f *Frame) Names() []string { return append([]string(nil), f.names...) }

// TextNames returns the text column names in insertion order.
func (f *Frame) TextNames() []string { return append([]string(nil), f.textNames...) }

// Has reports whether a numeric column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// HasAll reports whether every named numeric column exists.
func (f *Frame) HasAll(names ...string) bool {
	for _, n := range names {
		if !f.Has(n) {
			return false
		}
	}
	return true
}

// Column returns the backing slice of a numeric column. Callers must not
// retain it across a Set on the same name.
func (f *Frame) Column(name string) ([]float64, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// Value returns the numeric value at row i, or NaN when the column is absent.
func (f *Frame) Value(name string, i int) float64 {
	c, ok := f.cols[name]
	if !ok {
		return math.NaN()
	}
	return c[i]
}

// Set stores a numeric column, appending the name on first use.
func (f *Frame) Set(name string, values []float64) error {
	if len(values) != f.Len() {
		return fmt.Errorf("frame: column %q has %d values, want %d", name, len(values), f.Len())
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = values
	return nil
}

// Drop removes a numeric or text column. Missing names are ignored.
func (f *Frame) Drop(name string) {
	if _, ok := f.cols[name]; ok {
		delete(f.cols, name)
		f.names = remove(f.names, name)
	}
	if _, ok := f.text[name]; ok {
		delete(f.text, name)
		f.textNames = remove(f.textNames, name)
	}
}

// Rename moves a column to a new name keeping its position.
func (f *Frame) Rename(from, to string) {
	if from == to {
		return
	}
	if c, ok := f.cols[from]; ok {
		delete(f.cols, from)
		f.cols[to] = c
		f.names = replace(f.names, from, to)
	}
	if c, ok := f.text[from]; ok {
		delete(f.text, from)
		f.text[to] = c
		f.textNames = replace(f.textNames, from, to)
	}
}

// HasText reports whether a text column exists.
func (f *Frame) HasText(name string) bool {
	_, ok := f.text[name]
	return ok
}

// Text returns the backing slice of a text column.
func (f *Frame) Text(name string) ([]string, bool) {
	c, ok := f.text[name]
	return c, ok
}

// SetText stores a text column, appending the name on first use.
func (f *Frame) SetText(name string, values []string) error {
	if len(values) != f.Len() {
		return fmt.Errorf("frame: text column %q has %d values, want %d", name, len(values), f.Len())
	}
	if _, ok := f.text[name]; !ok {
		f.textNames = append(f.textNames, name)
	}
	f.text[name] = values
	return nil
}

// Take returns a new frame holding the given rows in the given order.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{
		entities:  make([]string, len(rows)),
		times:     make([]Timestamp, len(rows)),
		names:     append([]string(nil), f.names...),
		cols:      make(map[string][]float64, len(f.cols)),
		textNames: append([]string(nil), f.textNames...),
		text:      make(map[string][]string, len(f.text)),
	}
	for j, i := range rows {
		out.entities[j] = f.entities[i]
		out.times[j] = f.times[i]
	}
	for name, col := range f.cols {
		c := make([]float64, len(rows))
		for j, i := range rows {
			c[j] = col[i]
		}
		out.cols[name] = c
	}
	for name, col := range f.text {
		c := make([]string, len(rows))
		for j, i := range rows {
			c[j] = col[i]
		}
		out.text[name] = c
	}
	return out
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	rows := make([]int, f.Len())
	for i := range rows {
		rows[i] = i
	}
	return f.Take(rows)
}

// Normalize replaces every ±Inf and NaN in numeric columns with zero and
// returns the number of replaced cells.
func (f *Frame) Normalize() int {
	n := 0
	for _, name := range f.names {
		n += numeric.CleanSlice(f.cols[name])
	}
	return n
}

// Concat appends frames row-wise. Columns missing from one input are filled
// with NaN (numeric) or "" (text) for that input's rows.
func Concat(frames ...*Frame) *Frame {
	out := &Frame{cols: make(map[string][]float64), text: make(map[string][]string)}
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		for _, n := range fr.names {
			if _, ok := out.cols[n]; !ok {
				out.names = append(out.names, n)
				out.cols[n] = nil
			}
		}
		for _, n := range fr.textNames {
			if _, ok := out.text[n]; !ok {
				out.textNames = append(out.textNames, n)
				out.text[n] = nil
			}
		}
	}

	for _, fr := range frames {
		if fr == nil {
			continue
		}
		out.entities = append(out.entities, fr.entities...)
		out.times = append(out.times, fr.times...)
		for _, n := range out.names {
			col := out.cols[n]
			if src, ok := fr.cols[n]; ok {
				col = append(col, src...)
			} else {
				for i := 0; i < fr.Len(); i++ {
					col = append(col, math.NaN())
				}
			}
			out.cols[n] = col
		}
		for _, n := range out.textNames {
			col := out.text[n]
			if src, ok := fr.text[n]; ok {
				col = append(col, src...)
			} else {
				col = append(col, make([]string, fr.Len())...)
			}
			out.text[n] = col
		}
	}
	return out
}

func remove(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func replace(names []string, from, to string) []string {
	for i, n := range names {
		if n == from {
			names[i] = to
		}
	}
	return names
}

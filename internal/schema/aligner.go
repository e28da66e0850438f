// Package schema projects feature frames onto a classifier's frozen, ordered
// input contract.
package schema

import (
	"udderwatch/internal/frame"
	"udderwatch/internal/numeric"
)

// Aligner projects frames onto column lists. Excluded columns are treated as
// absent from the source.
type Aligner struct {
	exclude map[string]bool
}

// NewAligner creates an aligner withholding the given columns.
func NewAligner(exclude ...string) *Aligner {
	m := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		m[c] = true
	}
	return &Aligner{exclude: m}
}

// Align returns a frame with exactly columns, in order. Absent source
// columns are zero-filled and reported in missing; extra source columns and
// all text columns are dropped; non-finite values become zero. columns must
// not repeat a name. The source
// frame is not modified.
func (a *Aligner) Align(f *frame.Frame, columns []string) (aligned *frame.Frame, missing []string) {
	entities := f.Entities()
	times := make([]frame.Timestamp, f.Len())
	for i := range times {
		times[i] = f.Time(i)
	}
	out, _ := frame.New(entities, times)

	for _, name := range columns {
		col := make([]float64, f.Len())
		if src, ok := a.source(f, name); ok {
			copy(col, src)
			numeric.CleanSlice(col)
		} else {
			missing = append(missing, name)
		}
		// lengths always match
		_ = out.Set(name, col)
	}
	return out, missing
}

// Vector returns row i of f projected onto columns with the same rules as
// Align.
func (a *Aligner) Vector(f *frame.Frame, columns []string, i int) []float64 {
	vec := make([]float64, len(columns))
	for j, name := range columns {
		if src, ok := a.source(f, name); ok {
			vec[j] = numeric.Clean(src[i])
		}
	}
	return vec
}

// Missing lists the columns that Align would zero-fill.
func (a *Aligner) Missing(f *frame.Frame, columns []string) []string {
	var missing []string
	for _, name := range columns {
		if _, ok := a.source(f, name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func (a *Aligner) source(f *frame.Frame, name string) ([]float64, bool) {
	if a.exclude[name] {
		return nil, false
	}
	return f.Column(name)
}

// Rows returns every row of an aligned frame as vectors in column order.
func Rows(aligned *frame.Frame) [][]float64 {
	names := aligned.Names()
	cols := make([][]float64, len(names))
	for j, n := range names {
		cols[j], _ = aligned.Column(n)
	}
	rows := make([][]float64, aligned.Len())
	for i := range rows {
		row := make([]float64, len(names))
		for j := range names {
			row[j] = cols[j][i]
		}
		rows[i] = row
	}
	return rows
}

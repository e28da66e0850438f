// Package temporal implements the per-entity operators that read earlier
// records: predecessor deltas, rolling probability statistics and lags.
//
// Every operator takes a *Sequence. A Sequence can only be built by
// Orderer.Order, so an operator can never run on rows that are not sorted by
// (entity, time) and grouped contiguously per entity.
package temporal

import (
	"fmt"
	"sort"

	"udderwatch/internal/frame"
)

// Granularity selects the time key used for ordering.
type Granularity string

const (
	// ByTimestamp orders by the full session instant.
	ByTimestamp Granularity = "timestamp"
	// ByDate orders by calendar date only; sessions on the same date keep
	// their input order.
	ByDate Granularity = "date"
)

// ParseGranularity validates a configured ordering key.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case ByTimestamp, ByDate:
		return g, nil
	case "":
		return ByTimestamp, nil
	default:
		return "", fmt.Errorf("temporal: unknown ordering granularity %q", s)
	}
}

// Group is the contiguous row range [Start, End) of one entity.
type Group struct {
	Entity string
	Start  int
	End    int
}

// Len is the number of records in the group.
func (g Group) Len() int { return g.End - g.Start }

// Sequence is a frame sorted ascending by (entity, time). Rows with invalid
// timestamps sort after every valid row of their entity.
type Sequence struct {
	frame  *frame.Frame
	groups []Group
}

// Frame returns the ordered frame. Operators append columns to it; callers
// must not reorder its rows.
func (s *Sequence) Frame() *frame.Frame { return s.frame }

// Groups returns the per-entity row ranges in entity order.
func (s *Sequence) Groups() []Group { return append([]Group(nil), s.groups...) }

// Entities returns the entity ids in order.
func (s *Sequence) Entities() []string {
	out := make([]string, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Entity
	}
	return out
}

// Split returns one sequence per entity. Each holds an independent copy of
// that entity's rows.
func (s *Sequence) Split() []*Sequence {
	out := make([]*Sequence, len(s.groups))
	for i, g := range s.groups {
		rows := make([]int, 0, g.Len())
		for r := g.Start; r < g.End; r++ {
			rows = append(rows, r)
		}
		out[i] = &Sequence{
			frame:  s.frame.Take(rows),
			groups: []Group{{Entity: g.Entity, Start: 0, End: g.Len()}},
		}
	}
	return out
}

// Orderer sorts frames into sequences.
type Orderer struct {
	granularity Granularity
}

// NewOrderer creates an orderer for the given time key.
func NewOrderer(g Granularity) *Orderer {
	if g == "" {
		g = ByTimestamp
	}
	return &Orderer{granularity: g}
}

// Order returns a stably sorted copy of f.
func (o *Orderer) Order(f *frame.Frame) *Sequence {
	rows := make([]int, f.Len())
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return o.less(f, rows[a], rows[b])
	})

	sorted := f.Take(rows)
	return &Sequence{frame: sorted, groups: groupRuns(sorted)}
}

func (o *Orderer) less(f *frame.Frame, a, b int) bool {
	ea, eb := f.Entity(a), f.Entity(b)
	if ea != eb {
		return ea < eb
	}
	ta, tb := f.Time(a), f.Time(b)
	if !ta.Valid || !tb.Valid {
		// valid before invalid; two invalid rows keep input order
		return ta.Valid && !tb.Valid
	}
	if o.granularity == ByDate {
		da, _ := ta.Date()
		db, _ := tb.Date()
		return da < db
	}
	return ta.Time.Before(tb.Time)
}

func groupRuns(f *frame.Frame) []Group {
	var groups []Group
	for i := 0; i < f.Len(); i++ {
		e := f.Entity(i)
		if n := len(groups); n > 0 && groups[n-1].Entity == e {
			groups[n-1].End = i + 1
			continue
		}
		groups = append(groups, Group{Entity: e, Start: i, End: i + 1})
	}
	return groups
}

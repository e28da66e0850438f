package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"udderwatch/internal/frame"
)

// Session is one fixture row. Zero Time produces an invalid timestamp.
type Session struct {
	Entity string
	Time   time.Time
	Values map[string]float64
}

// Quadrants returns a session with the flow, conductivity and production
// quadrant columns set in DI, DD, TI, TD order.
func Quadrants(entity string, at time.Time, flow, cond, prod [4]float64) Session {
	s := Session{Entity: entity, Time: at, Values: map[string]float64{}}
	for i, q := range []string{"DI", "DD", "TI", "TD"} {
		s.Values["FlujoMedio_"+q] = flow[i]
		s.Values["Conductividad_"+q] = cond[i]
		s.Values["Produccion_"+q] = prod[i]
	}
	return s
}

// Day returns a UTC instant on 2024-01-01 shifted by day days, at the given
// hour.
func Day(day, hour int) time.Time {
	return time.Date(2024, time.January, 1+day, hour, 0, 0, 0, time.UTC)
}

// NewSessionFrame builds a frame from sessions. Columns are added in the
// order first seen; rows missing a column get NaN.
func NewSessionFrame(t testing.TB, sessions ...Session) *frame.Frame {
	t.Helper()

	entities := make([]string, len(sessions))
	times := make([]frame.Timestamp, len(sessions))
	var names []string
	seen := map[string]bool{}
	for i, s := range sessions {
		entities[i] = s.Entity
		if s.Time.IsZero() {
			times[i] = frame.InvalidTime("")
		} else {
			times[i] = frame.ValidTime(s.Time, s.Time.Format("02/01/2006 15:04"))
		}
		for _, n := range sortedKeys(s.Values) {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	f, err := frame.New(entities, times)
	require.NoError(t, err)
	for _, n := range names {
		col := make([]float64, len(sessions))
		for i, s := range sessions {
			v, ok := s.Values[n]
			if !ok {
				v = nan()
			}
			col[i] = v
		}
		require.NoError(t, f.Set(n, col))
	}
	return f
}

// SessionCSV renders a raw session export with one 06:00 record per day of
// January 2024. The first line is the group header row the exports carry.
func SessionCSV(days ...int) string {
	header := []string{"Hora de inicio", "EO/PO"}
	for fam := 0; fam < 5; fam++ {
		header = append(header, "DI", "DD", "TI", "TD")
	}
	header = append(header, "Producción (kg)")

	var b strings.Builder
	b.WriteString(strings.Repeat(",", len(header)-1) + "\n")
	b.WriteString(strings.Join(header, ",") + "\n")
	for _, d := range days {
		row := []string{fmt.Sprintf("%02d/01/2024 06:00", d), "EO"}
		for fam := 0; fam < 5; fam++ {
			for q := 1; q <= 4; q++ {
				row = append(row, fmt.Sprintf("%d.%d", d, q))
			}
		}
		row = append(row, "10")
		b.WriteString(strings.Join(row, ",") + "\n")
	}
	return b.String()
}

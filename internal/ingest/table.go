package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// table is a header plus string cells, padded to the header width.
type table struct {
	header []string
	rows   [][]string
}

// newTable skips the group header row and uses the second row as the
// column header.
func newTable(raw [][]string) (*table, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("expected a group header and a column header, got %d rows", len(raw))
	}
	header := make([]string, len(raw[1]))
	for j, h := range raw[1] {
		header[j] = strings.TrimSpace(h)
	}
	t := &table{header: dedupe(header)}
	for _, r := range raw[2:] {
		if blank(r) {
			continue
		}
		row := make([]string, len(t.header))
		for j := range row {
			if j < len(r) {
				row[j] = strings.TrimSpace(r[j])
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func blank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (t *table) index(name string) int {
	for j, h := range t.header {
		if h == name {
			return j
		}
	}
	return -1
}

func (t *table) column(j int) []string {
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out
}

func (t *table) drop(names ...string) {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var keep []int
	for j, h := range t.header {
		if !skip[h] {
			keep = append(keep, j)
		}
	}
	if len(keep) == len(t.header) {
		return
	}
	t.header = pick(t.header, keep)
	for i, r := range t.rows {
		t.rows[i] = pick(r, keep)
	}
}

func pick(xs []string, idx []int) []string {
	out := make([]string, len(idx))
	for k, j := range idx {
		out[k] = xs[j]
	}
	return out
}

// dropIncomplete removes rows with any empty cell.
func (t *table) dropIncomplete() {
	kept := t.rows[:0]
	for _, r := range t.rows {
		complete := true
		for _, c := range r {
			if c == "" {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, r)
		}
	}
	t.rows = kept
}

func (t *table) rename(m map[string]string) {
	for j, h := range t.header {
		if to, ok := m[h]; ok {
			t.header[j] = to
		}
	}
}

// encodeCategories appends a column numbering the distinct values of src by
// first appearance, starting at 1.
func (t *table) encodeCategories(src, dst string) {
	j := t.index(src)
	ids := map[string]int{}
	t.header = append(t.header, dst)
	for i, r := range t.rows {
		id, ok := ids[r[j]]
		if !ok {
			id = len(ids) + 1
			ids[r[j]] = id
		}
		t.rows[i] = append(r, strconv.Itoa(id))
	}
}

func (t *table) constant(dst, v string) {
	t.header = append(t.header, dst)
	for i, r := range t.rows {
		t.rows[i] = append(r, v)
	}
}

package temporal

import "fmt"

// LagName is the column holding feature's value k records earlier.
func LagName(feature string, k int) string {
	return fmt.Sprintf("%s_lag%d", feature, k)
}

// LagExpander adds lag-1..Depth copies of a fixed feature list.
type LagExpander struct {
	features []string
	depth    int
}

// NewLagExpander copies features so later edits by the caller have no effect.
func NewLagExpander(features []string, depth int) *LagExpander {
	return &LagExpander{features: append([]string(nil), features...), depth: depth}
}

// Depth is the largest lag offset.
func (l *LagExpander) Depth() int { return l.depth }

// Expand appends lag columns for every listed feature present in the
// sequence and returns the features that were absent. Row i of lag k holds
// row i-k of the same entity, or zero when the entity has fewer than k
// earlier records.
func (l *LagExpander) Expand(seq *Sequence) ([]string, error) {
	f := seq.frame
	var absent []string
	for _, feat := range l.features {
		src, ok := f.Column(feat)
		if !ok {
			absent = append(absent, feat)
			continue
		}
		for k := 1; k <= l.depth; k++ {
			lag := make([]float64, f.Len())
			for _, g := range seq.groups {
				for i := g.Start + k; i < g.End; i++ {
					lag[i] = src[i-k]
				}
			}
			if err := f.Set(LagName(feat, k), lag); err != nil {
				return absent, err
			}
		}
	}
	return absent, nil
}

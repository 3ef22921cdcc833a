package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrMatrix is a square matrix of pairwise Pearson correlations.
type CorrMatrix struct {
	Columns []string
	// Values[i][j] is the correlation of Columns[i] and Columns[j]; NaN when undefined
	// (fewer than two rows or a constant column).
	Values [][]float64
}

// Correlation computes pairwise Pearson correlations across the numeric columns of t,
// using only rows where both columns are present.
func Correlation(t *Table) *CorrMatrix {
	cols := t.NumericColumns()
	m := &CorrMatrix{Columns: make([]string, len(cols)), Values: make([][]float64, len(cols))}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(cols[i], cols[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func pearson(a, b *Column) float64 {
	var xs, ys []float64
	for i := range a.Numbers {
		if a.Missing[i] || b.Missing[i] {
			continue
		}
		xs = append(xs, a.Numbers[i])
		ys = append(ys, b.Numbers[i])
	}
	if len(xs) < 2 || isConstant(xs) || isConstant(ys) {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	// clamp rounding drift
	return math.Max(-1, math.Min(1, r))
}

func isConstant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

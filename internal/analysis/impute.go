package analysis

import (
	"sort"
	"strconv"
)

// ImputeOptions controls missing-value replacement.
type ImputeOptions struct {
	// FailOnEmpty returns an ImputationError for a column with no present values
	// instead of leaving it unfilled.
	FailOnEmpty bool
}

// ImputeResult describes what Impute changed.
type ImputeResult struct {
	// Filled maps column name to the number of cells replaced.
	Filled map[string]int
	// FillValues maps column name to the value used for filling.
	FillValues map[string]string
	// Skipped lists columns left untouched because they had no present values.
	Skipped []string
}

// Impute fills missing cells in place: numeric columns with the median of present
// values, categorical columns with the most frequent present value (ties go to the
// lexicographically smallest value).
func Impute(t *Table, opt ImputeOptions) (*ImputeResult, error) {
	res := &ImputeResult{Filled: map[string]int{}, FillValues: map[string]string{}}
	for _, c := range t.Columns {
		miss := c.MissingCount()
		switch c.Kind {
		case KindEmpty:
			if opt.FailOnEmpty && t.Rows > 0 {
				return nil, &ImputationError{Column: c.Name, Kind: c.Kind}
			}
			if t.Rows > 0 {
				res.Skipped = append(res.Skipped, c.Name)
			}
			continue
		case KindNumeric:
			if miss == 0 {
				continue
			}
			med := Median(c.PresentNumbers())
			text := strconv.FormatFloat(med, 'g', -1, 64)
			for i := range c.Values {
				if c.Missing[i] {
					c.Numbers[i] = med
					c.Values[i] = text
					c.Missing[i] = false
				}
			}
			res.Filled[c.Name] = miss
			res.FillValues[c.Name] = text
		case KindCategorical:
			if miss == 0 {
				continue
			}
			top, _ := Mode(c.Present())
			for i := range c.Values {
				if c.Missing[i] {
					c.Values[i] = top
					c.Missing[i] = false
				}
			}
			res.Filled[c.Name] = miss
			res.FillValues[c.Name] = top
		}
	}
	return res, nil
}

// Median returns the 0.5 quantile of vals (NaN when empty). vals is not modified.
func Median(vals []float64) float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return quantile(cp, 0.5)
}

// Mode returns the most frequent value and its count. Ties resolve to the
// lexicographically smallest value.
func Mode(vals []string) (string, int) {
	counts := frequencies(vals)
	if len(counts) == 0 {
		return "", 0
	}
	return counts[0].Value, counts[0].Count
}

// CategoryCount is a value with its number of occurrences.
type CategoryCount struct {
	Value string
	Count int
}

// frequencies returns value counts sorted by count desc, then value asc.
func frequencies(vals []string) []CategoryCount {
	m := make(map[string]int)
	for _, v := range vals {
		m[v]++
	}
	out := make([]CategoryCount, 0, len(m))
	for k, v := range m {
		out = append(out, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

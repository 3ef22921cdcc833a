package analysis

import (
	"math"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats holds descriptive statistics for one column. Numeric fields are NaN
// where they do not apply to the column's kind.
type ColumnStats struct {
	Name    string
	Kind    Kind
	Count   int
	Missing int

	// categorical
	Unique int
	Top    string
	Freq   int

	// numeric
	Mean float64
	Std  float64
	Min  float64
	Q25  float64
	Q50  float64
	Q75  float64
	Max  float64
}

// Summary is the descriptive view of a table, columns in table order.
type Summary struct {
	Name    string
	Rows    int
	Columns []ColumnStats
}

// Summarize computes per-column statistics. It does not modify t.
func Summarize(t *Table) *Summary {
	s := &Summary{Name: t.Name, Rows: t.Rows, Columns: make([]ColumnStats, 0, len(t.Columns))}
	for _, c := range t.Columns {
		s.Columns = append(s.Columns, columnStats(c))
	}
	return s
}

func columnStats(c *Column) ColumnStats {
	nan := math.NaN()
	cs := ColumnStats{
		Name:    c.Name,
		Kind:    c.Kind,
		Missing: c.MissingCount(),
		Mean:    nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan,
	}
	switch c.Kind {
	case KindNumeric:
		vals := c.PresentNumbers()
		cs.Count = len(vals)
		if len(vals) == 0 {
			return cs
		}
		sorted := make([]float64, len(vals))
		copy(sorted, vals)
		sort.Float64s(sorted)
		cs.Mean = stat.Mean(vals, nil)
		if len(vals) > 1 {
			cs.Std = stat.StdDev(vals, nil)
		}
		cs.Min = sorted[0]
		cs.Max = sorted[len(sorted)-1]
		cs.Q25 = quantile(sorted, 0.25)
		cs.Q50 = quantile(sorted, 0.5)
		cs.Q75 = quantile(sorted, 0.75)
	case KindCategorical:
		vals := c.Present()
		cs.Count = len(vals)
		freq := frequencies(vals)
		cs.Unique = len(freq)
		if len(freq) > 0 {
			cs.Top = freq[0].Value
			cs.Freq = freq[0].Count
		}
	}
	return cs
}

// StatisticsText renders the statistics block: one row per column, in table order.
func (s *Summary) StatisticsText() string {
	t := newTextTable()
	t.AppendHeader(table.Row{"column", "type", "count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, c := range s.Columns {
		row := table.Row{safeName(c.Name), string(c.Kind), c.Count}
		if c.Kind == KindCategorical {
			row = append(row, c.Unique, safeVal(c.Top), c.Freq)
		} else {
			row = append(row, "NaN", "NaN", "NaN")
		}
		row = append(row,
			formatFloat(c.Mean), formatFloat(c.Std), formatFloat(c.Min),
			formatFloat(c.Q25), formatFloat(c.Q50), formatFloat(c.Q75), formatFloat(c.Max))
		t.AppendRow(row)
	}
	return t.Render()
}

// MissingText renders the missing-value block listing every column.
func (s *Summary) MissingText() string {
	t := newTextTable()
	t.AppendHeader(table.Row{"column", "missing"})
	for _, c := range s.Columns {
		t.AppendRow(table.Row{safeName(c.Name), c.Missing})
	}
	return t.Render()
}

// TotalMissing sums missing cells across all columns.
func (s *Summary) TotalMissing() int {
	n := 0
	for _, c := range s.Columns {
		n += c.Missing
	}
	return n
}

func newTextTable() table.Writer {
	t := table.NewWriter()
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)
	return t
}

// formatFloat prints up to six significant digits, like describe() output.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

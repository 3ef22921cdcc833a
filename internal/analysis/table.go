package analysis

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	// KindEmpty marks a column with no present values at all.
	KindEmpty Kind = "empty"
)

// Table is an in-memory dataset: named columns of equal length.
type Table struct {
	Name    string
	Rows    int
	Columns []*Column
}

// Column holds the cells of one column together with its inferred kind.
type Column struct {
	Name string
	Kind Kind
	// Values is the raw cell text; missing cells hold "".
	Values []string
	// Numbers is populated for numeric columns; missing cells hold NaN.
	Numbers []float64
	Missing []bool
}

// MissingCount returns how many cells of the column are currently missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Present returns the non-missing raw values in row order.
func (c *Column) Present() []string {
	out := make([]string, 0, len(c.Values))
	for i, v := range c.Values {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// PresentNumbers returns the non-missing parsed values in row order.
func (c *Column) PresentNumbers() []float64 {
	out := make([]float64, 0, len(c.Numbers))
	for i, v := range c.Numbers {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// NumericColumns returns numeric columns in table order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Column looks a column up by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// parseNumeric parses a cell as a number, tolerating a trailing percent sign and the
// separators in opt. A zero DecimalSeparator means '.'; a zero ThousandsSeparator strips
// every separator other than the decimal one.
func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := cleanNumeric(s)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	thou := opt.ThousandsSeparator
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func cleanNumeric(s string) string {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	return strings.TrimSpace(raw)
}

// quantile expects sorted input and interpolates linearly between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

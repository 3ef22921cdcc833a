package analysis

import (
	"math"
	"strings"
)

// Classify assigns each column its Kind and fills Numbers for numeric columns.
//
// A column is numeric when it has at least one present value and every present value
// parses as a number under one decimal/thousands convention (see numberFormat). A single
// non-numeric value makes the whole column categorical. A column without present values
// is KindEmpty.
func Classify(t *Table, opt LoadOptions) {
	for _, c := range t.Columns {
		c.Kind, c.Numbers = classifyColumn(c, opt)
	}
}

func classifyColumn(c *Column, opt LoadOptions) (Kind, []float64) {
	if c.MissingCount() == len(c.Values) {
		return KindEmpty, nil
	}
	format, ok := numberFormat(c, opt)
	if !ok {
		return KindCategorical, nil
	}
	nums := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if c.Missing[i] {
			nums[i] = math.NaN()
			continue
		}
		x, ok := parseNumeric(v, format)
		if !ok {
			return KindCategorical, nil
		}
		nums[i] = x
	}
	return KindNumeric, nums
}

// numberFormat settles the decimal separator for a whole column. Explicit options win.
// Otherwise a value carrying both ',' and '.' or a repeated separator fixes the
// convention. Without one, a column mixing lone-',' and lone-'.' values ("1,234" next to
// "3.5") is ambiguous and ok is false.
func numberFormat(c *Column, opt LoadOptions) (LoadOptions, bool) {
	if opt.DecimalSeparator != 0 {
		return opt, true
	}
	switch opt.ThousandsSeparator {
	case ',':
		opt.DecimalSeparator = '.'
		return opt, true
	case '.':
		opt.DecimalSeparator = ','
		return opt, true
	}

	var fixed rune
	lone := map[rune]bool{}
	loneDecimal := map[rune]bool{}
	for i, v := range c.Values {
		if c.Missing[i] {
			continue
		}
		h := separatorHint(cleanNumeric(v))
		switch {
		case h.fixed != 0:
			if fixed != 0 && fixed != h.fixed {
				return opt, false
			}
			fixed = h.fixed
		case h.lone != 0:
			lone[h.lone] = true
			if !h.grouping {
				loneDecimal[h.lone] = true
			}
		}
	}

	if fixed != 0 {
		// a lone thousands separator is fine ("1,000"), a lone decimal-looking one is not
		if loneDecimal[otherSeparator(fixed)] {
			return opt, false
		}
		opt.DecimalSeparator = fixed
		return opt, true
	}
	if lone[','] && lone['.'] {
		return opt, false
	}
	if lone[','] {
		opt.DecimalSeparator = ','
	} else {
		opt.DecimalSeparator = '.'
	}
	return opt, true
}

type sepHint struct {
	fixed    rune // decimal separator implied by the value
	lone     rune // the only separator, appearing once
	grouping bool // lone separator followed by exactly three trailing digits
}

func separatorHint(raw string) sepHint {
	commas := strings.Count(raw, ",")
	dots := strings.Count(raw, ".")
	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(raw, ",") > strings.LastIndex(raw, ".") {
			return sepHint{fixed: ','}
		}
		return sepHint{fixed: '.'}
	case commas > 1:
		return sepHint{fixed: '.'}
	case dots > 1:
		return sepHint{fixed: ','}
	case commas == 1:
		return sepHint{lone: ',', grouping: trailingDigits(raw, ",") == 3}
	case dots == 1:
		return sepHint{lone: '.', grouping: trailingDigits(raw, ".") == 3}
	}
	return sepHint{}
}

// trailingDigits counts the digits after sep when they run to the end of raw, else -1.
func trailingDigits(raw, sep string) int {
	tail := raw[strings.LastIndex(raw, sep)+len(sep):]
	for _, r := range tail {
		if r < '0' || r > '9' {
			return -1
		}
	}
	return len(tail)
}

func otherSeparator(r rune) rune {
	if r == ',' {
		return '.'
	}
	return ','
}

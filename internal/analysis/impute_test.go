package analysis

import (
	"errors"
	"reflect"
	"testing"
)

func TestImputeNoMissingIsNoop(t *testing.T) {
	path := writeCSV(t, "full.csv", "a,b", "1,x", "2,y", "3,x")
	tbl, err := Load(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := snapshot(tbl)
	res, err := Impute(tbl, ImputeOptions{})
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	if len(res.Filled) != 0 || len(res.Skipped) != 0 {
		t.Fatalf("result = %+v, want nothing filled", res)
	}
	if !reflect.DeepEqual(before, snapshot(tbl)) {
		t.Fatalf("table changed by no-op imputation")
	}
}

func TestImputeAgeCityScenario(t *testing.T) {
	path := writeCSV(t, "scenario.csv", "age,city", "25,NYC", ",LA", "35,NYC")
	tbl, err := Load(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := Impute(tbl, ImputeOptions{})
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	age, _ := tbl.Column("age")
	if want := []float64{25, 30, 35}; !reflect.DeepEqual(age.Numbers, want) {
		t.Fatalf("age = %v, want %v", age.Numbers, want)
	}
	if age.Values[1] != "30" {
		t.Fatalf("age text = %q, want 30", age.Values[1])
	}
	city, _ := tbl.Column("city")
	if want := []string{"NYC", "LA", "NYC"}; !reflect.DeepEqual(city.Values, want) {
		t.Fatalf("city = %v, want %v", city.Values, want)
	}
	if res.Filled["age"] != 1 || res.Filled["city"] != 0 {
		t.Fatalf("filled = %v", res.Filled)
	}
	for _, c := range tbl.Columns {
		if c.MissingCount() != 0 {
			t.Fatalf("column %q still has missing cells", c.Name)
		}
	}
}

func TestImputeMedianInterpolates(t *testing.T) {
	path := writeCSV(t, "m.csv", "p,q", "1,1", "NA,NA", "9,2", "4,10", "100,3")
	tbl, err := Load(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Impute(tbl, ImputeOptions{}); err != nil {
		t.Fatalf("Impute: %v", err)
	}
	p, _ := tbl.Column("p")
	if p.Numbers[1] != 6.5 {
		t.Fatalf("p fill = %v, want 6.5", p.Numbers[1])
	}
	q, _ := tbl.Column("q")
	if q.Numbers[1] != 2.5 {
		t.Fatalf("q fill = %v, want 2.5", q.Numbers[1])
	}
}

func TestImputeModeTieBreak(t *testing.T) {
	path := writeCSV(t, "tie.csv", "c", "pear", "apple", "", "pear", "apple")
	tbl, err := Load(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := Impute(tbl, ImputeOptions{})
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	c, _ := tbl.Column("c")
	if c.Values[2] != "apple" {
		t.Fatalf("fill = %q, want apple", c.Values[2])
	}
	if res.FillValues["c"] != "apple" {
		t.Fatalf("fill value = %q", res.FillValues["c"])
	}
}

func TestImputeEmptyColumn(t *testing.T) {
	path := writeCSV(t, "e.csv", "a,b", "1,", "2,")
	tbl, err := Load(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := Impute(tbl, ImputeOptions{})
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	if !reflect.DeepEqual(res.Skipped, []string{"b"}) {
		t.Fatalf("skipped = %v, want [b]", res.Skipped)
	}

	tbl, _ = Load(path, DefaultLoadOptions())
	_, err = Impute(tbl, ImputeOptions{FailOnEmpty: true})
	var ie *ImputationError
	if !errors.As(err, &ie) || ie.Column != "b" {
		t.Fatalf("err = %v, want ImputationError for b", err)
	}
}

type colSnapshot struct {
	Kind    Kind
	Values  []string
	Numbers []float64
	Missing []bool
}

func snapshot(t *Table) map[string]colSnapshot {
	out := make(map[string]colSnapshot, len(t.Columns))
	for _, c := range t.Columns {
		out[c.Name] = colSnapshot{
			Kind:    c.Kind,
			Values:  append([]string(nil), c.Values...),
			Numbers: append([]float64(nil), c.Numbers...),
			Missing: append([]bool(nil), c.Missing...),
		}
	}
	return out
}

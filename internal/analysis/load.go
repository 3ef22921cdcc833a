package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMissingValues mirrors the NA tokens recognised by pandas.read_csv.
var DefaultMissingValues = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan", "NULL", "null", "None", "<NA>",
	"#N/A", "#NA", "#N/A N/A", "-1.#IND", "1.#IND", "-1.#QNAN", "1.#QNAN",
}

// LoadOptions controls how a file is read and how cells are interpreted.
type LoadOptions struct {
	// Delimiter for CSV. If 0, derived from the file extension (.tsv => tab, else comma).
	Delimiter rune
	// MissingValues are exact (trimmed) cell contents treated as missing.
	MissingValues []string
	// Numeric parsing locale. If DecimalSeparator is 0, it is settled once per column.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects an XLSX worksheet by name; empty means the first sheet.
	Sheet string
}

// DefaultLoadOptions returns options matching common CSV exports.
func DefaultLoadOptions() LoadOptions {
	mv := make([]string, len(DefaultMissingValues))
	copy(mv, DefaultMissingValues)
	return LoadOptions{MissingValues: mv}
}

// Load reads a tabular file, choosing a reader by extension, and classifies its columns.
func Load(path string, opt LoadOptions) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited text file. The first record is the header.
func LoadCSV(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FileError{Path: path, Op: "read header", Err: errors.New("no columns to parse")}
		}
		return nil, &FileError{Path: path, Op: "read header", Err: err}
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &FileError{Path: path, Op: fmt.Sprintf("read row %d", len(records)+1), Err: err}
		}
		if isBlankRecord(rec) {
			continue
		}
		records = append(records, rec)
	}
	return buildTable(path, header, records, opt)
}

// buildTable turns a header and raw records into a classified Table.
// Short records are padded with missing cells; long records are rejected.
func buildTable(path string, header []string, records [][]string, opt LoadOptions) (*Table, error) {
	if len(header) == 0 || isBlankRecord(header) {
		return nil, &FileError{Path: path, Op: "read header", Err: errors.New("no columns to parse")}
	}
	names := normalizeHeader(header)
	ncol := len(names)
	missing := make(map[string]struct{}, len(opt.MissingValues))
	for _, m := range opt.MissingValues {
		missing[m] = struct{}{}
	}

	t := &Table{Name: filepath.Base(path), Rows: len(records)}
	t.Columns = make([]*Column, ncol)
	for j, name := range names {
		t.Columns[j] = &Column{
			Name:    name,
			Values:  make([]string, len(records)),
			Missing: make([]bool, len(records)),
		}
	}
	for i, rec := range records {
		if len(rec) > ncol {
			return nil, &FileError{
				Path: path,
				Op:   fmt.Sprintf("read row %d", i+1),
				Err:  fmt.Errorf("expected %d fields, saw %d", ncol, len(rec)),
			}
		}
		for j := 0; j < ncol; j++ {
			var v string
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			if _, ok := missing[v]; ok || v == "" {
				t.Columns[j].Missing[i] = true
				continue
			}
			t.Columns[j].Values[i] = v
		}
	}
	Classify(t, opt)
	return t, nil
}

// normalizeHeader names blank headers "Unnamed: <i>" and suffixes duplicates with
// ".1", ".2", ... in order of appearance.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for {
			n, dup := seen[name]
			if !dup {
				break
			}
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", base, n+1)
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads one worksheet of an .xlsx workbook. The first non-blank row is the header.
// opt.Sheet selects the worksheet by name (case-insensitive); empty means the first sheet.
func LoadXLSX(path string, opt LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "open xlsx", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FileError{Path: path, Op: "open xlsx", Err: errors.New("workbook has no sheets")}
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, &FileError{
				Path: path,
				Op:   "select sheet",
				Err:  fmt.Errorf("sheet %q not found; available sheets: %s", opt.Sheet, strings.Join(sheets, ", ")),
			}
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &FileError{Path: path, Op: "read sheet " + sheet, Err: err}
	}
	// skip leading blank rows
	for len(rows) > 0 && isBlankRecord(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, &FileError{Path: path, Op: "read header", Err: errors.New("no columns to parse")}
	}
	header := rows[0]
	var records [][]string
	for _, r := range rows[1:] {
		if isBlankRecord(r) {
			continue
		}
		records = append(records, r)
	}
	return buildTable(path, header, records, opt)
}

package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

type xlsParser struct{}

func (xlsParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xls")
}

// Parse reads the selected sheet (or the first one) of a legacy BIFF workbook.
func (xlsParser) Parse(content []byte, opt Options) (recs *Records, err error) {
	// The BIFF reader panics on some truncated streams.
	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, fmt.Errorf("open xls: corrupt workbook: %v", r)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("open xls: workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if opt.Sheet != "" {
		sheet = nil
		var names []string
		for i := 0; i < wb.NumSheets(); i++ {
			s := wb.GetSheet(i)
			if s == nil {
				continue
			}
			names = append(names, s.Name)
			if strings.EqualFold(s.Name, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == nil {
			return nil, fmt.Errorf("sheet '%s' not found; available sheets: %s", opt.Sheet, strings.Join(names, ", "))
		}
	}
	if sheet == nil {
		return nil, errors.New("open xls: first sheet unreadable")
	}

	var all [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			continue
		}
		last := row.LastCol()
		if last <= 0 {
			continue
		}
		vals := make([]string, last)
		for j := row.FirstCol(); j < last; j++ {
			vals[j] = row.Col(j)
		}
		all = append(all, vals)
	}
	if len(all) == 0 {
		return nil, errNoColumns
	}
	header := all[0]
	rows := all[1:]
	for i, row := range rows {
		if len(row) > len(header) && blankFrom(row, len(header)) {
			rows[i] = row[:len(header)]
		}
	}
	return normalize(header, rows)
}

// sheetRow returns nil for rows the sheet has no record of; the BIFF reader
// dereferences them without checking.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

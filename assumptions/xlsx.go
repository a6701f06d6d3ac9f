package assumptions

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/rebate-engine/engine"
)

// XLSXHeader is the required first row of an assumption spreadsheet.
var XLSXHeader = []string{"crop", "category", "budget", "per_acre"}

// LoadXLSX reads a table from a workbook. sheet may be empty to use the first sheet.
// Blank rows are skipped; a repeated (crop, category, budget) keeps the last value.
func LoadXLSX(r io.Reader, sheet string) (engine.AssumptionTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", engine.ErrInvalidAssumptions, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", engine.ErrInvalidAssumptions)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", engine.ErrInvalidAssumptions, sheet, err)
	}
	if len(rows) == 0 || !isHeader(rows[0]) {
		return nil, fmt.Errorf("%w: sheet %q: first row must be %s",
			engine.ErrInvalidAssumptions, sheet, strings.Join(XLSXHeader, ", "))
	}

	t := engine.AssumptionTable{}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after header
		if blank(row) {
			continue
		}
		if len(row) < len(XLSXHeader) {
			return nil, fmt.Errorf("%w: row %d: expected %d columns, got %d",
				engine.ErrInvalidAssumptions, rowNum, len(XLSXHeader), len(row))
		}

		crop := engine.Crop(strings.TrimSpace(row[0]))
		cat := engine.Category(strings.TrimSpace(row[1]))
		budget := engine.BudgetLevel(strings.ToLower(strings.TrimSpace(row[2])))
		v, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: per_acre %q is not a number",
				engine.ErrInvalidAssumptions, rowNum, row[3])
		}

		profile, ok := t[crop]
		if !ok {
			profile = engine.CropProfile{}
			t[crop] = profile
		}
		rates, ok := profile[cat]
		if !ok {
			rates = engine.BudgetRates{}
			profile[cat] = rates
		}
		rates[budget] = v
	}

	return checked(t)
}

// WriteXLSX writes the table as a single-sheet workbook in LoadXLSX's layout,
// rows in canonical crop, category, budget order.
func WriteXLSX(t engine.AssumptionTable, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "assumptions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(XLSXHeader))
	for i, h := range XLSXHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, crop := range engine.AllCrops {
		profile, ok := t[crop]
		if !ok {
			continue
		}
		for _, cat := range engine.AllCategories {
			rates, ok := profile[cat]
			if !ok {
				continue
			}
			for _, b := range engine.AllBudgetLevels {
				v, ok := rates[b]
				if !ok {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(1, row)
				if err != nil {
					return err
				}
				values := []interface{}{string(crop), string(cat), string(b), v}
				if err := f.SetSheetRow(sheet, cell, &values); err != nil {
					return err
				}
				row++
			}
		}
	}

	return f.Write(w)
}

func isHeader(row []string) bool {
	if len(row) < len(XLSXHeader) {
		return false
	}
	for i, h := range XLSXHeader {
		if !strings.EqualFold(strings.TrimSpace(row[i]), h) {
			return false
		}
	}
	return true
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

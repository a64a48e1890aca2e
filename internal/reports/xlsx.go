package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

func RenderXLSX(rep *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Reporte"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{fmt.Sprintf("#%02X%02X%02X", headerRGB[0], headerRGB[1], headerRGB[2])},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := setCell(f, sheet, 1, 1, rep.Title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}
	if err := setCell(f, sheet, 1, 2, "Generado: "+rep.GeneratedAt.Format("2006-01-02 15:04")); err != nil {
		return nil, err
	}
	row := 3
	if rep.Period != "" {
		if err := setCell(f, sheet, 1, row, rep.Period); err != nil {
			return nil, err
		}
		row++
	}
	row++

	headerRow := row
	for i, col := range rep.Columns {
		if err := setCell(f, sheet, i+1, headerRow, col); err != nil {
			return nil, err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(rep.Columns), headerRow)
	if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	if len(rep.Rows) == 0 {
		if err := setCell(f, sheet, 1, headerRow+1, emptyMessage); err != nil {
			return nil, err
		}
	}
	for r, values := range rep.Rows {
		for c, v := range values {
			if err := setCell(f, sheet, c+1, headerRow+1+r, v); err != nil {
				return nil, err
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(rep.Columns))
	if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

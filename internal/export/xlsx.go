package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"report-service/internal/model"
)

const sheetName = "报表"

// WriteXLSX renders a single-sheet workbook: a merged title row, a bold
// header row, then the data with numeric cells kept numeric.
func WriteXLSX(w io.Writer, payload model.ExportPayload) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	cols := len(payload.Header)
	if cols == 0 {
		cols = 1
	}
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E7EEF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    []excelize.Border{{Type: "bottom", Color: "#8EA9C8", Style: 1}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	title := payload.Title
	if payload.StartAt != "" || payload.EndAt != "" {
		title = fmt.Sprintf("%s (%s ~ %s)", payload.Title, payload.StartAt, payload.EndAt)
	}
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheetName, 1, 28); err != nil {
		return err
	}

	for i, col := range payload.Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col.Title); err != nil {
			return err
		}
	}
	if len(payload.Header) > 0 {
		if err := f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle); err != nil {
			return err
		}
	}

	for r, row := range payload.Data {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+3)
			if err != nil {
				return err
			}
			if value.Number != nil {
				err = f.SetCellFloat(sheetName, cell, *value.Number, -1, 64)
			} else {
				err = f.SetCellValue(sheetName, cell, value.Text)
			}
			if err != nil {
				return fmt.Errorf("cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", lastCol, 16); err != nil {
		return err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}

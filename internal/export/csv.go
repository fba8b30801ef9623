package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"report-service/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a header row and one record per data row. The BOM keeps
// Excel from mangling the Chinese headers.
func WriteCSV(w io.Writer, payload model.ExportPayload) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := make([]string, len(payload.Header))
	for i, col := range payload.Header {
		header[i] = sanitizeField(col.Title)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range payload.Data {
		record := make([]string, len(row))
		for i, cell := range row {
			if cell.Number != nil {
				record[i] = cell.Text
				continue
			}
			record[i] = sanitizeField(cell.Text)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// sanitizeField neutralises spreadsheet formula injection in text cells.
func sanitizeField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"report-service/internal/model"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write renders payload in format f.
func Write(w io.Writer, f Format, payload model.ExportPayload) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, payload)
	case FormatXLSX:
		return WriteXLSX(w, payload)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Filename is "<title>_<start>_<end>.<ext>" with compact dates.
func Filename(payload model.ExportPayload, f Format) string {
	title := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, payload.Title)
	if title == "" {
		title = "report"
	}
	return fmt.Sprintf("%s_%s_%s.%s", title,
		strings.ReplaceAll(payload.StartAt, "-", ""),
		strings.ReplaceAll(payload.EndAt, "-", ""),
		f)
}

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout   = "2006-01-02"
	RowKeyLayout = "20060102"
	HeaderLayout = "01/02"
)

var ErrInvalidRange = errors.New("invalid date range")

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

func (r DateRange) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

type PeriodKind string

const (
	PeriodDays   PeriodKind = "days"
	PeriodWeeks  PeriodKind = "weeks"
	PeriodMonths PeriodKind = "months"
)

func ParsePeriodKind(raw string) (PeriodKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "day", "days":
		return PeriodDays, true
	case "week", "weeks":
		return PeriodWeeks, true
	case "month", "months":
		return PeriodMonths, true
	default:
		return "", false
	}
}

// Step is the fixed width of one reporting cycle in days.
func (k PeriodKind) Step() int {
	switch k {
	case PeriodWeeks:
		return 7
	case PeriodMonths:
		return 30
	default:
		return 1
	}
}

func (k PeriodKind) Label() string {
	switch k {
	case PeriodWeeks:
		return "周"
	case PeriodMonths:
		return "月"
	default:
		return "日"
	}
}

// LatestLabel replaces the date title of the column ending yesterday.
func (k PeriodKind) LatestLabel() string {
	switch k {
	case PeriodWeeks:
		return "最近7天"
	case PeriodMonths:
		return "最近30天"
	default:
		return "昨天"
	}
}

// Day truncates t to local midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func AddDays(day time.Time, n int) time.Time {
	return Day(day).AddDate(0, 0, n)
}

func Yesterday(now time.Time) time.Time {
	return AddDays(now, -1)
}

// DaysBetween counts calendar days from a to b, ignoring wall-clock offsets.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DateLayout, RowKeyLayout} {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable day %q", ErrInvalidRange, raw)
}

// PeriodRange is the fixed-length window of kind ending at baseDay. The base
// day is clamped to yesterday so the range never reaches into the future.
func PeriodRange(baseDay time.Time, kind PeriodKind, yesterday time.Time) DateRange {
	end := Day(baseDay)
	if end.After(Day(yesterday)) {
		end = Day(yesterday)
	}
	return DateRange{Start: AddDays(end, -(kind.Step() - 1)), End: end}
}

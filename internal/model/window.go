package model

import (
	"fmt"
	"time"
)

// PageWindow returns the range covered by page cursor (1-based) when pages of
// pageSize days walk backward from anchorEnd. The start is clamped to
// hardStart; the end is never moved.
func PageWindow(anchorEnd time.Time, cursor, pageSize int, hardStart time.Time) (DateRange, error) {
	if cursor < 1 {
		return DateRange{}, fmt.Errorf("%w: cursor %d must be >= 1", ErrInvalidRange, cursor)
	}
	if pageSize < 1 {
		return DateRange{}, fmt.Errorf("%w: page size %d must be >= 1", ErrInvalidRange, pageSize)
	}

	anchor := Day(anchorEnd)
	floor := Day(hardStart)
	if anchor.Before(floor) {
		return DateRange{}, fmt.Errorf("%w: anchor %s before hard start %s", ErrInvalidRange, anchor.Format(DateLayout), floor.Format(DateLayout))
	}

	end := AddDays(anchor, -(cursor-1)*pageSize)
	start := AddDays(anchor, -(cursor*pageSize - 1))
	if end.Before(floor) {
		return DateRange{}, fmt.Errorf("%w: page %d starts before %s", ErrInvalidRange, cursor, floor.Format(DateLayout))
	}
	if start.Before(floor) {
		start = floor
	}
	return DateRange{Start: start, End: end}, nil
}

// DayCount is the inclusive number of days between hardStart and anchorEnd.
func DayCount(hardStart, anchorEnd time.Time) int {
	n := DaysBetween(hardStart, anchorEnd) + 1
	if n < 0 {
		return 0
	}
	return n
}

func PageCount(hardStart, anchorEnd time.Time, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	days := DayCount(hardStart, anchorEnd)
	return (days + pageSize - 1) / pageSize
}

// CycleDays lists the cycle end-days inside rng, most recent first, stepping
// backward by the period width.
func CycleDays(rng DateRange, kind PeriodKind) []time.Time {
	step := kind.Step()
	days := make([]time.Time, 0, rng.Days()/step+1)
	for day := Day(rng.End); !day.Before(Day(rng.Start)); day = AddDays(day, -step) {
		days = append(days, day)
	}
	return days
}

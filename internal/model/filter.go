package model

import "time"

const (
	GroupByNation = ""
	GroupByCity   = "city"
)

// RankingView is the state of one ranking board. Every transition returns a
// new value; handlers rebuild the table from scratch for each one.
type RankingView struct {
	Page    string
	CarType string
	Period  PeriodKind
	Cursor  int
}

func (v RankingView) Normalize() RankingView {
	if v.Cursor < 1 {
		v.Cursor = 1
	}
	if v.Period == "" {
		v.Period = PeriodDays
	}
	if v.CarType == "" {
		v.CarType = CarTypeAll
	}
	return v
}

func (v RankingView) WithCarType(key string) RankingView {
	v.CarType = key
	v.Cursor = 1
	return v
}

func (v RankingView) WithPeriod(kind PeriodKind) RankingView {
	v.Period = kind
	v.Cursor = 1
	return v
}

// Shift moves n pages toward the present (n > 0) or the past (n < 0). The
// most recent page is cursor 1; there is nothing newer.
func (v RankingView) Shift(n int) RankingView {
	v.Cursor -= n
	if v.Cursor < 1 {
		v.Cursor = 1
	}
	return v
}

// PortraitView is the state of the order-portrait page.
type PortraitView struct {
	Range    DateRange
	City     string
	CarType  string
	Current  int
	PageSize int
}

// Normalize fills defaults: an unset range becomes the defaultDays ending
// yesterday, and an end in the future is pulled back to yesterday. An
// inverted range is left alone so the query builder can reject it.
func (v PortraitView) Normalize(yesterday time.Time, defaultDays, defaultPageSize int) PortraitView {
	yesterday = Day(yesterday)
	if v.Range.End.IsZero() || v.Range.End.After(yesterday) {
		v.Range.End = yesterday
	}
	if v.Range.Start.IsZero() {
		v.Range.Start = AddDays(v.Range.End, -(defaultDays - 1))
	}
	if v.Current < 1 {
		v.Current = 1
	}
	if v.PageSize < 1 {
		v.PageSize = defaultPageSize
	}
	if v.CarType == "" {
		v.CarType = CarTypeAll
	}
	return v
}

func (v PortraitView) WithFilters(rng DateRange, city, carType string) PortraitView {
	v.Range = rng
	v.City = city
	v.CarType = carType
	v.Current = 1
	return v
}

func (v PortraitView) WithPage(current, pageSize int) PortraitView {
	v.Current = current
	if pageSize > 0 {
		v.PageSize = pageSize
	}
	return v
}

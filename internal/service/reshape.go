package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"report-service/internal/model"
)

// RankingWindow is the set of columns one ranking table shows.
type RankingWindow struct {
	Kind      model.PeriodKind
	Days      []time.Time // most recent first
	Yesterday time.Time
}

// SortKey is the row key of the most recent column.
func (w RankingWindow) SortKey() string {
	if len(w.Days) == 0 {
		return ""
	}
	return w.Days[0].Format(model.RowKeyLayout)
}

type ReshapeOptions struct {
	Digits         int
	CityNames      map[string]string
	AllCitiesLabel string
	Scope          model.Scope
}

// MergeResponses combines the per-city and nation-wide responses day by day.
// City-hash keys from both sides coexist; a key present on both sides for the
// same day is reported as ErrKeyCollision.
func MergeResponses(city, nation model.MetricResponse) (model.MetricResponse, error) {
	merged := make(model.MetricResponse, len(city)+len(nation))
	for _, src := range []model.MetricResponse{city, nation} {
		for day, values := range src {
			target, ok := merged[day]
			if !ok {
				target = make(map[string]float64, len(values))
				merged[day] = target
			}
			for hash, v := range values {
				if _, exists := target[hash]; exists {
					return nil, fmt.Errorf("%w: day %s key %q", ErrKeyCollision, day, hash)
				}
				target[hash] = v
			}
		}
	}
	return merged, nil
}

// CityKey extracts the city ID from "<metric>_<city>". Any other shape is
// the nation-wide total.
func CityKey(hash string) string {
	parts := strings.Split(hash, "_")
	if len(parts) == 2 {
		return parts[1]
	}
	return model.AllCityKey
}

func rowKey(day string) string {
	if parsed, err := model.ParseDay(day, time.UTC); err == nil {
		return parsed.Format(model.RowKeyLayout)
	}
	return strings.ReplaceAll(day, "-", "")
}

// Reshape pivots day-major responses into one row per city, ranked by the
// most recent column. Days outside the window's columns are ignored. A row with no value for that column sorts as zero; ties
// keep insertion order.
func Reshape(city, nation model.MetricResponse, window RankingWindow, opts ReshapeOptions) ([]model.PivotedRow, []model.Column, error) {
	merged, err := MergeResponses(city, nation)
	if err != nil {
		return nil, nil, err
	}

	columns := make(map[string]struct{}, len(window.Days))
	for _, d := range window.Days {
		columns[d.Format(model.RowKeyLayout)] = struct{}{}
	}

	flipped := make(map[string]map[string]float64)
	for day, values := range merged {
		dayKey := rowKey(day)
		if _, ok := columns[dayKey]; !ok {
			continue
		}
		for hash, v := range values {
			cityKey := CityKey(hash)
			if _, ok := flipped[cityKey]; !ok {
				flipped[cityKey] = make(map[string]float64)
			}
			flipped[cityKey][dayKey] = v
		}
	}

	keys := make([]string, 0, len(flipped))
	for key := range flipped {
		if opts.Scope.Type != "" && !opts.Scope.AllowsCityKey(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return insertionLess(keys[i], keys[j]) })

	rows := make([]model.PivotedRow, 0, len(keys))
	for _, key := range keys {
		values := flipped[key]
		cells := make(map[string]string, len(values))
		for dayKey, v := range values {
			cells[dayKey] = FormatCell(v, true, opts.Digits)
		}
		rows = append(rows, model.PivotedRow{
			Key:    key,
			City:   displayName(key, opts),
			Values: values,
			Cells:  cells,
		})
	}

	sortKey := window.SortKey()
	sort.SliceStable(rows, func(i, j int) bool {
		return sortValue(rows[i], sortKey) > sortValue(rows[j], sortKey)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return rows, RankingHeaders(window), nil
}

// sortValue treats a missing value as zero.
func sortValue(row model.PivotedRow, dayKey string) float64 {
	if v, ok := row.Value(dayKey); ok {
		return v
	}
	return 0
}

// insertionLess orders numeric city keys ascending, then other keys
// lexically.
func insertionLess(a, b string) bool {
	ai, aErr := strconv.ParseUint(a, 10, 64)
	bi, bErr := strconv.ParseUint(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

func displayName(key string, opts ReshapeOptions) string {
	if key == model.AllCityKey {
		return opts.AllCitiesLabel
	}
	if name, ok := opts.CityNames[key]; ok && name != "" {
		return name
	}
	return key
}

// RankingHeaders lists rank, city and one column per cycle day from oldest to
// newest. The column ending yesterday carries the period's latest label.
func RankingHeaders(window RankingWindow) []model.Column {
	headers := []model.Column{
		{Title: "排名", DataKey: "rank"},
		{Title: "城市", DataKey: "city"},
	}
	yesterday := window.Yesterday.Format(model.DateLayout)
	for i := len(window.Days) - 1; i >= 0; i-- {
		day := window.Days[i]
		title := window.Kind.Label() + " " + day.Format(model.HeaderLayout)
		if day.Format(model.DateLayout) == yesterday {
			title = window.Kind.LatestLabel()
		}
		headers = append(headers, model.Column{
			Title:       title,
			DataKey:     day.Format(model.RowKeyLayout),
			Sortable:    true,
			DefaultSort: i == 0,
			Numeric:     true,
		})
	}
	return headers
}

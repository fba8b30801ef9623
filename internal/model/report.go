package model

import (
	"strings"
	"time"
)

const (
	CarTypeAll   = "all"
	CarTypeOther = "other"

	AllCityKey = "allcity"
)

// MetricResponse is the upstream body: day string -> city-hash key -> value.
type MetricResponse map[string]map[string]float64

type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CarTypeBucket is a named set of car type IDs. An Exclude bucket selects
// every car type not in IDs.
type CarTypeBucket struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	IDs     []int64  `json:"ids"`
	Exclude bool     `json:"exclude"`
	Aliases []string `json:"aliases,omitempty"`
}

func (b CarTypeBucket) Matches(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == b.Key {
		return true
	}
	for _, alias := range b.Aliases {
		if alias == key {
			return true
		}
	}
	return false
}

// ReportPage is one entry of the ranking board menu.
type ReportPage struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	HashKey     string `json:"hash_key"`
	JobList     string `json:"job_list"`
	Digits      int    `json:"digits"`
	ShowCarType bool   `json:"show_car_type"`
}

type Column struct {
	Title       string   `json:"title"`
	DataKey     string   `json:"data_key,omitempty"`
	Sortable    bool     `json:"sortable,omitempty"`
	DefaultSort bool     `json:"default_sort,omitempty"`
	Numeric     bool     `json:"numeric,omitempty"`
	Children    []Column `json:"children,omitempty"`
}

// Leaves flattens grouped columns in display order.
func Leaves(columns []Column) []Column {
	out := make([]Column, 0, len(columns))
	for _, col := range columns {
		if len(col.Children) == 0 {
			out = append(out, col)
			continue
		}
		for _, child := range Leaves(col.Children) {
			child.Title = col.Title + "/" + child.Title
			out = append(out, child)
		}
	}
	return out
}

// PivotedRow is one city (or the all-cities total) across the column days.
// Key is the city key and stays stable across re-sorts; Rank does not.
type PivotedRow struct {
	Key    string             `json:"key"`
	City   string             `json:"city"`
	Rank   int                `json:"rank"`
	Values map[string]float64 `json:"values"`
	Cells  map[string]string  `json:"cells"`
}

func (r PivotedRow) Value(dayKey string) (float64, bool) {
	v, ok := r.Values[dayKey]
	return v, ok
}

type Pagination struct {
	Current  int `json:"current"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

type RankingTable struct {
	Page       ReportPage   `json:"page"`
	Period     PeriodKind   `json:"period"`
	CarType    string       `json:"car_type"`
	CarTypeID  string       `json:"car_type_id"`
	Range      DateRange    `json:"range"`
	Latest     DateRange    `json:"latest"`
	SortKey    string       `json:"sort_key"`
	Headers    []Column     `json:"headers"`
	Rows       []PivotedRow `json:"rows"`
	Pagination Pagination   `json:"pagination"`
}

// PortraitRow holds one day of portrait metrics. A nil metric was not
// reported upstream and renders as an empty cell.
type PortraitRow struct {
	StartTime                            string   `json:"start_time"`
	TotalOfOrders                        *float64 `json:"total_of_orders"`
	TotalOfDispatchOrders                *float64 `json:"total_of_dispatch_orders"`
	TotalOfActiveDecisionOrders          *float64 `json:"total_of_active_decision_orders"`
	TotalOfDispatchIntradayFinishedOrder *float64 `json:"total_of_dispatch_intraday_finished_orders"`
	KongshiAverageDistance               *float64 `json:"kongshi_average_distance"`
	KongshiAverageTime                   *float64 `json:"kongshi_average_time"`
	OrderAverageDistance                 *float64 `json:"order_average_distance"`
	OrderAverageTime                     *float64 `json:"order_average_time"`
	TotalOfBymeterOrders                 *float64 `json:"total_of_bymeter_orders"`
	RateOfBymeterOrder                   *float64 `json:"rate_of_bymeter_order"`
	AverageAmountOfBymeterOrder          *float64 `json:"average_amount_of_bymeter_order"`
}

type PortraitPage struct {
	Title      string        `json:"title"`
	Range      DateRange     `json:"range"`
	Window     DateRange     `json:"window"`
	City       string        `json:"city"`
	CarType    string        `json:"car_type"`
	Headers    []Column      `json:"headers"`
	Rows       []PortraitRow `json:"rows"`
	Pagination Pagination    `json:"pagination"`
}

// ExportCell is a rendered cell. Number is set for numeric cells so
// spreadsheet writers can keep them numeric.
type ExportCell struct {
	Text   string   `json:"text"`
	Number *float64 `json:"number,omitempty"`
}

// ExportPayload carries everything an export writer needs. Header holds
// the leaf columns; each Data row has one cell per leaf.
type ExportPayload struct {
	Title     string         `json:"title"`
	StartAt   string         `json:"start_at"`
	EndAt     string         `json:"end_at"`
	City      string         `json:"city"`
	CarTypeID string         `json:"car_type_id"`
	Header    []Column       `json:"table_header"`
	Data      [][]ExportCell `json:"export_data"`
	Generated time.Time      `json:"generated_at"`
}

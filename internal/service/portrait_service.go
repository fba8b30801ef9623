package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"report-service/internal/model"
)

const PortraitTitle = "订单画像"

type PortraitConfig struct {
	DefaultDays     int
	DefaultPageSize int
	Location        *time.Location
}

type PortraitService struct {
	source  MetricSource
	lookups *LookupService
	cfg     PortraitConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewPortraitService(source MetricSource, lookups *LookupService, cfg PortraitConfig, log zerolog.Logger) *PortraitService {
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 10
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &PortraitService{
		source:  source,
		lookups: lookups,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// Normalize applies the page defaults to view.
func (s *PortraitService) Normalize(view model.PortraitView) model.PortraitView {
	yesterday := model.Yesterday(s.now().In(s.cfg.Location))
	return view.Normalize(yesterday, s.cfg.DefaultDays, s.cfg.DefaultPageSize)
}

// Portrait fetches one page of the order portrait. Page N covers the
// PageSize days ending (N-1)*PageSize days before the range end, truncated
// at the range start.
func (s *PortraitService) Portrait(ctx context.Context, principal model.Principal, view model.PortraitView) (*model.PortraitPage, error) {
	view = s.Normalize(view)

	if !model.ScopeFor(principal).AllowsCity(view.City) {
		return nil, ErrPermissionDenied
	}
	if err := validateRange(view.Range); err != nil {
		return nil, err
	}

	window, err := model.PageWindow(view.Range.End, view.Current, view.PageSize, view.Range.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	bucket, err := s.lookups.CarType(ctx, view.CarType)
	if err != nil {
		return nil, err
	}

	params, err := BuildPortraitParams(PortraitQuery{Window: window, City: view.City, Bucket: bucket})
	if err != nil {
		return nil, err
	}

	data, err := s.source.Portrait(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: portrait: %w", ErrFetch, err)
	}
	s.log.Debug().
		Str("window", window.String()).
		Str("city", view.City).
		Int("days", len(data)).
		Msg("portrait fetched")

	return &model.PortraitPage{
		Title:   PortraitTitle,
		Range:   view.Range,
		Window:  window,
		City:    view.City,
		CarType: CarTypeParam(bucket),
		Headers: PortraitHeaders(),
		Rows:    PortraitRows(data),
		Pagination: model.Pagination{
			Current:  view.Current,
			PageSize: view.PageSize,
			Total:    model.DayCount(view.Range.Start, view.Range.End),
			Pages:    model.PageCount(view.Range.Start, view.Range.End, view.PageSize),
		},
	}, nil
}

// PortraitRows turns the day-keyed body into rows, newest day first.
func PortraitRows(data model.MetricResponse) []model.PortraitRow {
	rows := make([]model.PortraitRow, 0, len(data))
	for day, m := range data {
		rows = append(rows, model.PortraitRow{
			StartTime:                            day,
			TotalOfOrders:                        metric(m, "total_of_orders"),
			TotalOfDispatchOrders:                metric(m, "total_of_dispatch_orders"),
			TotalOfActiveDecisionOrders:          metric(m, "total_of_active_decision_orders"),
			TotalOfDispatchIntradayFinishedOrder: metric(m, "total_of_dispatch_intraday_finished_orders"),
			KongshiAverageDistance:               metric(m, "kongshi_average_distance"),
			KongshiAverageTime:                   metric(m, "kongshi_average_time"),
			OrderAverageDistance:                 metric(m, "order_average_distance"),
			OrderAverageTime:                     metric(m, "order_average_time"),
			TotalOfBymeterOrders:                 metric(m, "total_of_bymeter_orders"),
			RateOfBymeterOrder:                   metric(m, "rate_of_bymeter_order"),
			AverageAmountOfBymeterOrder:          metric(m, "average_amount_of_bymeter_order"),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rowKey(rows[i].StartTime) > rowKey(rows[j].StartTime)
	})
	return rows
}

func metric(values map[string]float64, name string) *float64 {
	v, ok := values[name]
	if !ok {
		return nil
	}
	return &v
}

func PortraitHeaders() []model.Column {
	return []model.Column{
		{Title: "统计日期", DataKey: "start_time"},
		{Title: "订单概览", Children: []model.Column{
			{Title: "创建订单数", DataKey: "total_of_orders", Numeric: true},
			{Title: "派发订单数", DataKey: "total_of_dispatch_orders", Numeric: true},
			{Title: "主动决策订单数", DataKey: "total_of_active_decision_orders", Numeric: true},
			{Title: "完成服务订单数", DataKey: "total_of_dispatch_intraday_finished_orders", Numeric: true},
		}},
		{Title: "空驶", Children: []model.Column{
			{Title: "平均距离(km)", DataKey: "kongshi_average_distance", Numeric: true},
			{Title: "平均时长(min)", DataKey: "kongshi_average_time", Numeric: true},
		}},
		{Title: "订单服务", Children: []model.Column{
			{Title: "平均距离(km)", DataKey: "order_average_distance", Numeric: true},
			{Title: "平均时长(min)", DataKey: "order_average_time", Numeric: true},
		}},
		{Title: "打表来接", Children: []model.Column{
			{Title: "打表接单数", DataKey: "total_of_bymeter_orders", Numeric: true},
			{Title: "打表接单占比(%)", DataKey: "rate_of_bymeter_order", Numeric: true},
			{Title: "平均金额", DataKey: "average_amount_of_bymeter_order", Numeric: true},
		}},
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"report-service/internal/model"
)

// MetricSource is the upstream reporting API.
type MetricSource interface {
	Datamart(ctx context.Context, params url.Values) (model.MetricResponse, error)
	Portrait(ctx context.Context, params url.Values) (model.MetricResponse, error)
}

type RankingConfig struct {
	Columns        int
	HardStart      time.Time
	Location       *time.Location
	AllCitiesLabel string
}

type RankingService struct {
	source  MetricSource
	lookups *LookupService
	gens    *Generations
	cfg     RankingConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewRankingService(source MetricSource, lookups *LookupService, gens *Generations, cfg RankingConfig, log zerolog.Logger) *RankingService {
	if cfg.Columns <= 0 {
		cfg.Columns = 7
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &RankingService{
		source:  source,
		lookups: lookups,
		gens:    gens,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// Ranking rebuilds the ranking table for view. The city and nation responses
// are fetched concurrently; if either fails the whole refresh fails. viewID,
// when set, lets a newer refresh of the same view supersede this one.
func (s *RankingService) Ranking(ctx context.Context, principal model.Principal, view model.RankingView, viewID string) (*model.RankingTable, error) {
	view = view.Normalize()

	page, err := s.lookups.Page(ctx, view.Page)
	if err != nil {
		return nil, err
	}
	if !page.ShowCarType {
		view.CarType = model.CarTypeAll
	}
	bucket, err := s.lookups.CarType(ctx, view.CarType)
	if err != nil {
		return nil, err
	}

	yesterday := model.Yesterday(s.now().In(s.cfg.Location))
	hardStart := model.Day(s.cfg.HardStart.In(s.cfg.Location))
	pageSize := s.cfg.Columns * view.Period.Step()

	window, err := model.PageWindow(yesterday, view.Cursor, pageSize, hardStart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	query := RankingQuery{Page: page, Bucket: bucket, Period: view.Period, Range: window}
	cityQuery := query
	cityQuery.GroupBy = model.GroupByCity
	nationQuery := query
	nationQuery.GroupBy = model.GroupByNation

	cityParams, err := BuildRankingParams(cityQuery)
	if err != nil {
		return nil, err
	}
	nationParams, err := BuildRankingParams(nationQuery)
	if err != nil {
		return nil, err
	}

	fetchCtx, ticket := s.gens.Begin(ctx, viewID)
	defer ticket.Done()

	cityData, nationData, err := s.fetchPair(fetchCtx, cityParams, nationParams)
	if !ticket.Current() {
		return nil, ErrStaleRequest
	}
	if err != nil {
		return nil, err
	}

	names, err := s.lookups.CityNames(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("city names unavailable, falling back to city ids")
		names = nil
	}

	rankingWindow := RankingWindow{
		Kind:      view.Period,
		Days:      model.CycleDays(window, view.Period),
		Yesterday: yesterday,
	}
	rows, headers, err := Reshape(cityData, nationData, rankingWindow, ReshapeOptions{
		Digits:         page.Digits,
		CityNames:      names,
		AllCitiesLabel: s.cfg.AllCitiesLabel,
		Scope:          model.ScopeFor(principal),
	})
	if err != nil {
		return nil, err
	}

	return &model.RankingTable{
		Page:      page,
		Period:    view.Period,
		CarType:   bucket.Key,
		CarTypeID: CarTypeParam(bucket),
		Range:     window,
		Latest:    model.PeriodRange(window.End, view.Period, yesterday),
		SortKey:   rankingWindow.SortKey(),
		Headers:   headers,
		Rows:      rows,
		Pagination: model.Pagination{
			Current:  view.Cursor,
			PageSize: pageSize,
			Total:    model.DayCount(hardStart, yesterday),
			Pages:    model.PageCount(hardStart, yesterday, pageSize),
		},
	}, nil
}

func (s *RankingService) fetchPair(ctx context.Context, cityParams, nationParams url.Values) (model.MetricResponse, model.MetricResponse, error) {
	var cityData, nationData model.MetricResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := s.source.Datamart(gctx, cityParams)
		if err != nil {
			return fmt.Errorf("city data: %w", err)
		}
		cityData = data
		return nil
	})
	g.Go(func() error {
		data, err := s.source.Datamart(gctx, nationParams)
		if err != nil {
			return fmt.Errorf("nation data: %w", err)
		}
		nationData = data
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return cityData, nationData, nil
}

package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"report-service/internal/model"
)

var ordersPage = model.ReportPage{
	Path:        "orders",
	Name:        "订单量排行",
	HashKey:     "m1",
	JobList:     "101",
	ShowCarType: true,
}

func newTestRanking(t *testing.T, source *fakeSource, cities *fakeCities, pages ...model.ReportPage) *RankingService {
	t.Helper()
	svc := NewRankingService(source, testLookups(cities, pages...), NewGenerations(), RankingConfig{
		Columns:        2,
		HardStart:      utcDay(t, "2023-01-01"),
		Location:       time.UTC,
		AllCitiesLabel: "全国",
	}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestRankingBuildsTable(t *testing.T) {
	city, nation := scenarioData()
	source := &fakeSource{city: city, nation: nation}
	cities := &fakeCities{cities: []model.City{{ID: 7, Name: "北京"}, {ID: 8, Name: "上海"}}}
	svc := newTestRanking(t, source, cities, ordersPage)

	table, err := svc.Ranking(context.Background(), model.Principal{Role: model.RoleAdmin},
		model.RankingView{Page: "orders"}, "")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}

	if len(source.calls) != 2 {
		t.Fatalf("got %d upstream calls, want 2", len(source.calls))
	}
	for _, params := range source.calls {
		if got := params.Get("timeAt"); got != "2024-01-02,2024-01-01" {
			t.Errorf("timeAt = %q", got)
		}
	}

	wantOrder := []string{"全国", "北京", "上海"}
	for i, name := range wantOrder {
		if table.Rows[i].City != name || table.Rows[i].Rank != i+1 {
			t.Errorf("row %d = %s rank %d, want %s rank %d", i, table.Rows[i].City, table.Rows[i].Rank, name, i+1)
		}
	}
	if table.SortKey != "20240102" {
		t.Errorf("sort key = %q", table.SortKey)
	}
	if table.Range.String() != "2024-01-01..2024-01-02" {
		t.Errorf("range = %s", table.Range)
	}
	if p := table.Pagination; p.Current != 1 || p.PageSize != 2 || p.Total != 367 || p.Pages != 184 {
		t.Errorf("pagination = %+v", p)
	}
}

func TestRankingWeeklyPageSize(t *testing.T) {
	source := &fakeSource{}
	svc := newTestRanking(t, source, nil, ordersPage)

	table, err := svc.Ranking(context.Background(), model.Principal{Role: model.RoleAdmin},
		model.RankingView{Page: "orders", Period: model.PeriodWeeks, Cursor: 2}, "")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if table.Range.String() != "2023-12-06..2023-12-19" {
		t.Errorf("range = %s", table.Range)
	}
	if got := source.calls[0].Get("timeAt"); got != "2023-12-19,2023-12-12" {
		t.Errorf("timeAt = %q", got)
	}
	if table.Latest.String() != "2023-12-13..2023-12-19" {
		t.Errorf("latest column covers %s", table.Latest)
	}
	if got := source.calls[0].Get("CycleType"); got != "weeks" {
		t.Errorf("CycleType = %q", got)
	}
}

func TestRankingExportCarTypeMatchesPortrait(t *testing.T) {
	source := &fakeSource{}
	svc := newTestRanking(t, source, nil, ordersPage)

	table, err := svc.Ranking(context.Background(), model.Principal{Role: model.RoleAdmin},
		model.RankingView{Page: "orders", CarType: model.CarTypeOther}, "")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if table.CarType != "5" {
		t.Errorf("car type key = %q", table.CarType)
	}
	payload := RankingExport(table, time.Time{})
	if payload.CarTypeID != "car_type_id!=37,78" {
		t.Errorf("export car_type_id = %q", payload.CarTypeID)
	}
}

func TestRankingForcesAllCarTypesWhenHidden(t *testing.T) {
	page := ordersPage
	page.ShowCarType = false
	source := &fakeSource{}
	svc := newTestRanking(t, source, nil, page)

	table, err := svc.Ranking(context.Background(), model.Principal{Role: model.RoleAdmin},
		model.RankingView{Page: "orders", CarType: "2"}, "")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if table.CarType != "0" {
		t.Errorf("car type = %q, want the all bucket", table.CarType)
	}
	if got := source.calls[0].Get("car_type_id"); got != "" {
		t.Errorf("car_type_id = %q, want empty", got)
	}
}

func TestRankingErrors(t *testing.T) {
	tests := []struct {
		name   string
		view   model.RankingView
		source *fakeSource
		want   error
	}{
		{"unknown page", model.RankingView{Page: "missing"}, &fakeSource{}, ErrNotFound},
		{"unknown car type", model.RankingView{Page: "orders", CarType: "9"}, &fakeSource{}, ErrInvalidFilter},
		{"cursor before hard start", model.RankingView{Page: "orders", Cursor: 1000}, &fakeSource{}, ErrInvalidFilter},
		{"upstream failure", model.RankingView{Page: "orders"}, &fakeSource{err: errors.New("boom")}, ErrFetch},
		{"collision", model.RankingView{Page: "orders"}, &fakeSource{
			city:   model.MetricResponse{"2024-01-02": {"m1": 1}},
			nation: model.MetricResponse{"2024-01-02": {"m1": 2}},
		}, ErrKeyCollision},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestRanking(t, tc.source, nil, ordersPage)
			_, err := svc.Ranking(context.Background(), model.Principal{Role: model.RoleAdmin}, tc.view, "")
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRankingFallsBackToCityIDs(t *testing.T) {
	city, nation := scenarioData()
	cities := &fakeCities{err: errors.New("db down")}
	svc := newTestRanking(t, &fakeSource{city: city, nation: nation}, cities, ordersPage)

	table, err := svc.Ranking(context.Background(), model.Principal{Role: model.RoleAdmin},
		model.RankingView{Page: "orders"}, "")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if table.Rows[1].City != "7" {
		t.Errorf("city = %q, want raw id 7", table.Rows[1].City)
	}
}

func TestRankingCityScope(t *testing.T) {
	city, nation := scenarioData()
	svc := newTestRanking(t, &fakeSource{city: city, nation: nation}, nil, ordersPage)

	table, err := svc.Ranking(context.Background(),
		model.Principal{Role: model.RoleCity, CityIDs: []int64{7}},
		model.RankingView{Page: "orders"}, "")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0].Key != "7" || table.Rows[0].Rank != 1 {
		t.Fatalf("rows = %+v", table.Rows)
	}
}

func TestRankingSupersededRefreshIsStale(t *testing.T) {
	city, nation := scenarioData()
	started := make(chan struct{})
	var once sync.Once
	source := &fakeSource{city: city, nation: nation}
	source.hook = func(ctx context.Context, params url.Values) error {
		if params.Get("timeAt") == "2024-01-02,2024-01-01" {
			return nil
		}
		once.Do(func() { close(started) })
		<-ctx.Done()
		return ctx.Err()
	}
	svc := newTestRanking(t, source, nil, ordersPage)
	admin := model.Principal{Role: model.RoleAdmin}

	staleErr := make(chan error, 1)
	go func() {
		_, err := svc.Ranking(context.Background(), admin, model.RankingView{Page: "orders", Cursor: 2}, "board-1")
		staleErr <- err
	}()

	<-started
	table, err := svc.Ranking(context.Background(), admin, model.RankingView{Page: "orders"}, "board-1")
	if err != nil {
		t.Fatalf("newest refresh: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Errorf("got %d rows, want 3", len(table.Rows))
	}

	select {
	case err := <-staleErr:
		if !errors.Is(err, ErrStaleRequest) {
			t.Fatalf("superseded refresh err = %v, want ErrStaleRequest", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded refresh never returned")
	}
}

package service

import (
	"context"
	"net/url"
	"sync"

	"gorm.io/gorm"

	"report-service/internal/model"
)

type fakeCities struct {
	cities []model.City
	calls  int
	err    error
}

func (f *fakeCities) ListCities(context.Context) ([]model.City, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cities, nil
}

type fakeCarTypes struct {
	buckets []model.CarTypeBucket
}

func (f fakeCarTypes) ListCarTypes(context.Context) ([]model.CarTypeBucket, error) {
	return f.buckets, nil
}

type fakePages struct {
	pages []model.ReportPage
}

func (f fakePages) ListPages(context.Context) ([]model.ReportPage, error) {
	return f.pages, nil
}

func (f fakePages) FindPage(_ context.Context, path string) (model.ReportPage, error) {
	for _, p := range f.pages {
		if p.Path == path {
			return p, nil
		}
	}
	return model.ReportPage{}, gorm.ErrRecordNotFound
}

// fakeSource answers datamart calls by groupBy and records every call.
type fakeSource struct {
	mu       sync.Mutex
	city     model.MetricResponse
	nation   model.MetricResponse
	portrait model.MetricResponse
	err      error
	calls    []url.Values
	hook     func(ctx context.Context, params url.Values) error
}

func (f *fakeSource) record(params url.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
}

func (f *fakeSource) Datamart(ctx context.Context, params url.Values) (model.MetricResponse, error) {
	f.record(params)
	if f.hook != nil {
		if err := f.hook(ctx, params); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if params.Get("groupBy") == model.GroupByCity {
		return f.city, nil
	}
	return f.nation, nil
}

func (f *fakeSource) Portrait(ctx context.Context, params url.Values) (model.MetricResponse, error) {
	f.record(params)
	if f.hook != nil {
		if err := f.hook(ctx, params); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.portrait, nil
}

func testBuckets() []model.CarTypeBucket {
	return []model.CarTypeBucket{
		{Key: "0", Label: "全部", Aliases: []string{model.CarTypeAll}},
		{Key: "1", Label: "易达+", IDs: []int64{37, 78}},
		{Key: "2", Label: "舒适+", IDs: []int64{2, 3}},
		{Key: "5", Label: "其他", IDs: []int64{37, 78}, Exclude: true, Aliases: []string{model.CarTypeOther}},
	}
}

func testLookups(cities *fakeCities, pages ...model.ReportPage) *LookupService {
	if cities == nil {
		cities = &fakeCities{}
	}
	return NewLookupService(
		NewCityDirectory(cities, 0),
		fakeCarTypes{buckets: testBuckets()},
		fakePages{pages: pages},
	)
}

func f64(v float64) *float64 { return &v }

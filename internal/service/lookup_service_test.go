package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"report-service/internal/model"
)

func TestCityDirectoryCachesUntilTTL(t *testing.T) {
	store := &fakeCities{cities: []model.City{{ID: 1, Name: "北京"}}}
	dir := NewCityDirectory(store, 10*time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	dir.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		names, err := dir.Names(context.Background())
		if err != nil {
			t.Fatalf("names: %v", err)
		}
		if names["1"] != "北京" {
			t.Fatalf("names = %v", names)
		}
	}
	if store.calls != 1 {
		t.Errorf("store called %d times within TTL, want 1", store.calls)
	}

	now = now.Add(11 * time.Minute)
	if _, err := dir.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.calls != 2 {
		t.Errorf("store called %d times after TTL, want 2", store.calls)
	}
}

func TestCityDirectoryErrorNotCached(t *testing.T) {
	store := &fakeCities{err: errors.New("down")}
	dir := NewCityDirectory(store, time.Hour)
	if _, err := dir.Names(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	store.err = nil
	store.cities = []model.City{{ID: 2, Name: "上海"}}
	names, err := dir.Names(context.Background())
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if names["2"] != "上海" {
		t.Errorf("names = %v", names)
	}
}

func TestLookupCitiesScoped(t *testing.T) {
	store := &fakeCities{cities: []model.City{{ID: 1, Name: "北京"}, {ID: 2, Name: "上海"}, {ID: 3, Name: "广州"}}}
	svc := testLookups(store)

	all, err := svc.Cities(context.Background(), model.Principal{Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("cities: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("admin sees %d cities, want 3", len(all))
	}

	scoped, err := svc.Cities(context.Background(), model.Principal{Role: model.RoleCity, CityIDs: []int64{3, 1}})
	if err != nil {
		t.Fatalf("cities: %v", err)
	}
	if len(scoped) != 2 || scoped[0].ID != 1 || scoped[1].ID != 3 {
		t.Errorf("scoped = %+v", scoped)
	}
}

func TestLookupCarType(t *testing.T) {
	svc := testLookups(nil)
	ctx := context.Background()

	tests := []struct {
		key     string
		wantKey string
	}{
		{"", "0"},
		{"all", "0"},
		{"2", "2"},
		{"other", "5"},
		{" OTHER ", "5"},
	}
	for _, tc := range tests {
		b, err := svc.CarType(ctx, tc.key)
		if err != nil {
			t.Fatalf("CarType(%q): %v", tc.key, err)
		}
		if b.Key != tc.wantKey {
			t.Errorf("CarType(%q) = %q, want %q", tc.key, b.Key, tc.wantKey)
		}
	}

	if _, err := svc.CarType(ctx, "99"); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("unknown car type err = %v", err)
	}
}

func TestLookupPageNotFound(t *testing.T) {
	svc := testLookups(nil, ordersPage)
	if _, err := svc.Page(context.Background(), "orders"); err != nil {
		t.Fatalf("page: %v", err)
	}
	if _, err := svc.Page(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

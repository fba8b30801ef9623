package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"

	"report-service/internal/model"
)

type CityStore interface {
	ListCities(ctx context.Context) ([]model.City, error)
}

type CarTypeStore interface {
	ListCarTypes(ctx context.Context) ([]model.CarTypeBucket, error)
}

type PageStore interface {
	ListPages(ctx context.Context) ([]model.ReportPage, error)
	FindPage(ctx context.Context, path string) (model.ReportPage, error)
}

// CityDirectory caches city names keyed by the string form of the city ID.
type CityDirectory struct {
	store CityStore
	ttl   time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	cities   []model.City
	names    map[string]string
	loadedAt time.Time
}

func NewCityDirectory(store CityStore, ttl time.Duration) *CityDirectory {
	return &CityDirectory{store: store, ttl: ttl, now: time.Now}
}

func (d *CityDirectory) fresh() bool {
	return d.names != nil && d.now().Sub(d.loadedAt) < d.ttl
}

func (d *CityDirectory) load(ctx context.Context) error {
	d.mu.RLock()
	if d.fresh() {
		d.mu.RUnlock()
		return nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fresh() {
		return nil
	}
	cities, err := d.store.ListCities(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(cities))
	for _, c := range cities {
		names[strconv.FormatInt(c.ID, 10)] = c.Name
	}
	d.cities = cities
	d.names = names
	d.loadedAt = d.now()
	return nil
}

// Names returns the cached id -> name map. Callers must not modify it.
func (d *CityDirectory) Names(ctx context.Context) (map[string]string, error) {
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.names, nil
}

func (d *CityDirectory) List(ctx context.Context) ([]model.City, error) {
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.City, len(d.cities))
	copy(out, d.cities)
	return out, nil
}

type LookupService struct {
	cities   *CityDirectory
	carTypes CarTypeStore
	pages    PageStore
}

func NewLookupService(cities *CityDirectory, carTypes CarTypeStore, pages PageStore) *LookupService {
	return &LookupService{cities: cities, carTypes: carTypes, pages: pages}
}

func (s *LookupService) Cities(ctx context.Context, principal model.Principal) ([]model.City, error) {
	cities, err := s.cities.List(ctx)
	if err != nil {
		return nil, err
	}
	scope := model.ScopeFor(principal)
	if scope.Type == model.ScopeNation {
		return cities, nil
	}
	visible := make([]model.City, 0, len(principal.CityIDs))
	for _, c := range cities {
		if scope.AllowsCityKey(strconv.FormatInt(c.ID, 10)) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

func (s *LookupService) CityNames(ctx context.Context) (map[string]string, error) {
	return s.cities.Names(ctx)
}

func (s *LookupService) CarTypes(ctx context.Context) ([]model.CarTypeBucket, error) {
	return s.carTypes.ListCarTypes(ctx)
}

// CarType resolves a bucket by key or alias.
func (s *LookupService) CarType(ctx context.Context, key string) (model.CarTypeBucket, error) {
	if key == "" {
		key = model.CarTypeAll
	}
	buckets, err := s.carTypes.ListCarTypes(ctx)
	if err != nil {
		return model.CarTypeBucket{}, err
	}
	for _, b := range buckets {
		if b.Matches(key) {
			return b, nil
		}
	}
	return model.CarTypeBucket{}, fmt.Errorf("%w: unknown car type %q", ErrInvalidFilter, key)
}

func (s *LookupService) Pages(ctx context.Context) ([]model.ReportPage, error) {
	return s.pages.ListPages(ctx)
}

func (s *LookupService) Page(ctx context.Context, path string) (model.ReportPage, error) {
	page, err := s.pages.FindPage(ctx, path)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ReportPage{}, fmt.Errorf("%w: report page %q", ErrNotFound, path)
		}
		return model.ReportPage{}, err
	}
	return page, nil
}

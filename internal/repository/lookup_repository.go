package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"report-service/internal/model"
)

type LookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

func (r *LookupRepository) ListCities(ctx context.Context) ([]model.City, error) {
	var cities []model.City
	err := r.db.WithContext(ctx).
		Table("report_cities").
		Select("id, name").
		Where("active").
		Order("sort_order, id").
		Scan(&cities).Error
	if err != nil {
		return nil, err
	}
	return cities, nil
}

type carTypeRow struct {
	Key     string
	Label   string
	IDs     string `gorm:"column:ids"`
	Exclude bool
	Aliases string
}

func (r *LookupRepository) ListCarTypes(ctx context.Context) ([]model.CarTypeBucket, error) {
	var rows []carTypeRow
	err := r.db.WithContext(ctx).
		Table("report_car_types").
		Select("key, label, ids, exclude, aliases").
		Order("sort_order, key").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	buckets := make([]model.CarTypeBucket, 0, len(rows))
	for _, row := range rows {
		ids, err := parseIDList(row.IDs)
		if err != nil {
			return nil, fmt.Errorf("car type %s: %w", row.Key, err)
		}
		buckets = append(buckets, model.CarTypeBucket{
			Key:     row.Key,
			Label:   row.Label,
			IDs:     ids,
			Exclude: row.Exclude,
			Aliases: splitList(row.Aliases),
		})
	}
	return buckets, nil
}

const pageColumns = "path, name, hash_key, job_list, digits, show_car_type"

func (r *LookupRepository) ListPages(ctx context.Context) ([]model.ReportPage, error) {
	var pages []model.ReportPage
	err := r.db.WithContext(ctx).
		Table("report_pages").
		Select(pageColumns).
		Order("sort_order, path").
		Scan(&pages).Error
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// FindPage returns gorm.ErrRecordNotFound for an unknown path.
func (r *LookupRepository) FindPage(ctx context.Context, path string) (model.ReportPage, error) {
	var page model.ReportPage
	err := r.db.WithContext(ctx).
		Table("report_pages").
		Select(pageColumns).
		Where("path = ?", strings.Trim(path, "/")).
		Take(&page).Error
	if err != nil {
		return model.ReportPage{}, err
	}
	return page, nil
}

func (r *LookupRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// parseIDList reads the comma-separated id column. Blanks are skipped.
func parseIDList(raw string) ([]int64, error) {
	parts := splitList(raw)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

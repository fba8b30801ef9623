package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"report-service/internal/model"
)

const (
	paramCarType        = "car_type_id"
	paramCarTypeExclude = "car_type_id!"
)

// RankingQuery is the input of one datamart call.
type RankingQuery struct {
	Page    model.ReportPage
	Bucket  model.CarTypeBucket
	Period  model.PeriodKind
	Range   model.DateRange
	GroupBy string
}

type PortraitQuery struct {
	Window model.DateRange
	City   string
	Bucket model.CarTypeBucket
}

// BuildRankingParams turns a ranking query into datamart query parameters.
// timeAt lists the cycle days of the range, most recent first.
func BuildRankingParams(q RankingQuery) (url.Values, error) {
	if err := validateRange(q.Range); err != nil {
		return nil, err
	}

	days := model.CycleDays(q.Range, q.Period)
	params := url.Values{}
	params.Set("jobList", q.Page.JobList)
	params.Set("timeAt", joinDays(days))
	params.Set("groupBy", q.GroupBy)
	params.Set("CycleType", string(q.Period))
	applyCarType(params, q.Bucket)
	return params, nil
}

func BuildPortraitParams(q PortraitQuery) (url.Values, error) {
	if err := validateRange(q.Window); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("start_at", q.Window.Start.Format(model.DateLayout))
	params.Set("end_at", q.Window.End.Format(model.DateLayout))
	params.Set("city", q.City)
	applyCarType(params, q.Bucket)
	return params, nil
}

// applyCarType writes the bucket as an include list, or as an exclude list
// for buckets such as "other" that mean everything not categorized.
func applyCarType(params url.Values, bucket model.CarTypeBucket) {
	ids := joinIDs(bucket.IDs)
	if bucket.Exclude {
		params.Set(paramCarTypeExclude, ids)
		return
	}
	params.Set(paramCarType, ids)
}

// CarTypeParam renders the car type filter the way it is sent upstream.
func CarTypeParam(bucket model.CarTypeBucket) string {
	if bucket.Exclude {
		return paramCarTypeExclude + "=" + joinIDs(bucket.IDs)
	}
	return joinIDs(bucket.IDs)
}

func validateRange(rng model.DateRange) error {
	if rng.Start.IsZero() || rng.End.IsZero() {
		return fmt.Errorf("%w: date range is incomplete", ErrInvalidFilter)
	}
	if rng.Start.After(rng.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidFilter,
			rng.Start.Format(model.DateLayout), rng.End.Format(model.DateLayout))
	}
	return nil
}

func joinDays(days []time.Time) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = d.Format(model.DateLayout)
	}
	return strings.Join(parts, ",")
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"report-service/internal/model"
)

func newTestPortrait(source *fakeSource) *PortraitService {
	svc := NewPortraitService(source, testLookups(nil), PortraitConfig{
		DefaultDays:     10,
		DefaultPageSize: 3,
		Location:        time.UTC,
	}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestPortraitDefaultsAndPaging(t *testing.T) {
	source := &fakeSource{portrait: model.MetricResponse{
		"2024-01-12": {"total_of_orders": 10, "rate_of_bymeter_order": 0.5},
		"2024-01-14": {"total_of_orders": 30},
		"2024-01-13": {"total_of_orders": 20},
	}}
	svc := newTestPortrait(source)
	admin := model.Principal{Role: model.RoleAdmin}

	page, err := svc.Portrait(context.Background(), admin, model.PortraitView{})
	if err != nil {
		t.Fatalf("portrait: %v", err)
	}
	if page.Range.String() != "2024-01-05..2024-01-14" {
		t.Errorf("range = %s", page.Range)
	}
	if page.Window.String() != "2024-01-12..2024-01-14" {
		t.Errorf("window = %s", page.Window)
	}
	if got := source.calls[0].Get("start_at"); got != "2024-01-12" {
		t.Errorf("start_at = %q", got)
	}
	if p := page.Pagination; p.Total != 10 || p.Pages != 4 || p.PageSize != 3 {
		t.Errorf("pagination = %+v", p)
	}

	wantDays := []string{"2024-01-14", "2024-01-13", "2024-01-12"}
	for i, d := range wantDays {
		if page.Rows[i].StartTime != d {
			t.Errorf("row %d day = %s, want %s", i, page.Rows[i].StartTime, d)
		}
	}
	if r := page.Rows[2].RateOfBymeterOrder; r == nil || *r != 0.5 {
		t.Errorf("rate = %v", r)
	}
	if page.Rows[0].RateOfBymeterOrder != nil {
		t.Error("unreported metric should stay nil")
	}

	last, err := svc.Portrait(context.Background(), admin, model.PortraitView{Current: 4})
	if err != nil {
		t.Fatalf("last page: %v", err)
	}
	if last.Window.String() != "2024-01-05..2024-01-05" {
		t.Errorf("last window = %s", last.Window)
	}

	if _, err := svc.Portrait(context.Background(), admin, model.PortraitView{Current: 5}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("past last page err = %v, want ErrInvalidFilter", err)
	}
}

func TestPortraitRejections(t *testing.T) {
	manager := model.Principal{Role: model.RoleCity, CityIDs: []int64{7}}
	admin := model.Principal{Role: model.RoleAdmin}

	tests := []struct {
		name      string
		principal model.Principal
		view      model.PortraitView
		source    *fakeSource
		want      error
	}{
		{"nation view for city manager", manager, model.PortraitView{}, &fakeSource{}, ErrPermissionDenied},
		{"foreign city", manager, model.PortraitView{City: "8"}, &fakeSource{}, ErrPermissionDenied},
		{"inverted range", admin, model.PortraitView{Range: model.DateRange{
			Start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		}}, &fakeSource{}, ErrInvalidFilter},
		{"unknown car type", admin, model.PortraitView{CarType: "nope"}, &fakeSource{}, ErrInvalidFilter},
		{"upstream failure", admin, model.PortraitView{}, &fakeSource{err: errors.New("timeout")}, ErrFetch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestPortrait(tc.source).Portrait(context.Background(), tc.principal, tc.view)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if len(tc.source.calls) != 0 && tc.want != ErrFetch {
				t.Errorf("rejected query still reached upstream")
			}
		})
	}
}

func TestPortraitCityManagerOwnCity(t *testing.T) {
	source := &fakeSource{portrait: model.MetricResponse{}}
	svc := newTestPortrait(source)
	page, err := svc.Portrait(context.Background(),
		model.Principal{Role: model.RoleCity, CityIDs: []int64{7}},
		model.PortraitView{City: "7", CarType: model.CarTypeOther})
	if err != nil {
		t.Fatalf("portrait: %v", err)
	}
	if page.CarType != "car_type_id!=37,78" {
		t.Errorf("car type = %q", page.CarType)
	}
	if got := source.calls[0].Get("car_type_id!"); got != "37,78" {
		t.Errorf("car_type_id! = %q", got)
	}
	if len(page.Rows) != 0 {
		t.Errorf("got %d rows, want none", len(page.Rows))
	}
}

func TestPortraitExport(t *testing.T) {
	page := &model.PortraitPage{
		Title:   PortraitTitle,
		Range:   model.DateRange{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		City:    "7",
		Headers: PortraitHeaders(),
		Rows:    []model.PortraitRow{{StartTime: "2024-01-02", TotalOfOrders: f64(1234), KongshiAverageTime: f64(3.456)}},
	}
	payload := PortraitExport(page, 2, time.Time{})

	if len(payload.Header) != 12 {
		t.Fatalf("got %d leaf columns, want 12", len(payload.Header))
	}
	if payload.Header[1].Title != "订单概览/创建订单数" {
		t.Errorf("leaf title = %q", payload.Header[1].Title)
	}
	row := payload.Data[0]
	if row[0].Text != "2024-01-02" || row[0].Number != nil {
		t.Errorf("date cell = %+v", row[0])
	}
	if row[1].Text != "1,234.00" || *row[1].Number != 1234 {
		t.Errorf("orders cell = %+v", row[1])
	}
	if row[6].Text != "3.46" {
		t.Errorf("kongshi time cell = %q", row[6].Text)
	}
	if payload.StartAt != "2024-01-01" || payload.City != "7" {
		t.Errorf("payload meta = %s %s", payload.StartAt, payload.City)
	}
}

func TestPortraitMissingMetricsExportEmpty(t *testing.T) {
	rows := PortraitRows(model.MetricResponse{
		"2024-01-02": {"total_of_orders": 5, "rate_of_bymeter_order": 0},
	})
	page := &model.PortraitPage{
		Title:   PortraitTitle,
		Headers: PortraitHeaders(),
		Rows:    rows,
	}
	payload := PortraitExport(page, 2, time.Time{})

	row := payload.Data[0]
	for i, col := range payload.Header {
		cell := row[i]
		switch col.DataKey {
		case "start_time":
			continue
		case "total_of_orders":
			if cell.Text != "5.00" || cell.Number == nil {
				t.Errorf("orders cell = %+v", cell)
			}
		case "rate_of_bymeter_order":
			if cell.Text != "0.00" || cell.Number == nil || *cell.Number != 0 {
				t.Errorf("reported zero should render as zero, got %+v", cell)
			}
		default:
			if cell.Text != "" || cell.Number != nil {
				t.Errorf("%s: missing metric rendered as %+v", col.DataKey, cell)
			}
		}
	}
}

func TestPortraitClientCancelIsNotFetchFailure(t *testing.T) {
	source := &fakeSource{hook: func(ctx context.Context, _ url.Values) error {
		return fmt.Errorf("get portrait: %w", ctx.Err())
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPortrait(source).Portrait(ctx, model.Principal{Role: model.RoleAdmin}, model.PortraitView{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrFetch) {
		t.Errorf("cancelled request reported as fetch failure: %v", err)
	}
}

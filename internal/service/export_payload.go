package service

import (
	"strconv"
	"time"

	"report-service/internal/model"
)

// RankingExport flattens a ranking table into export rows in ranked order.
func RankingExport(table *model.RankingTable, generated time.Time) model.ExportPayload {
	leaves := model.Leaves(table.Headers)
	data := make([][]model.ExportCell, 0, len(table.Rows))
	for _, row := range table.Rows {
		cells := make([]model.ExportCell, len(leaves))
		for i, col := range leaves {
			switch col.DataKey {
			case "rank":
				cells[i] = numericCell(strconv.Itoa(row.Rank), float64(row.Rank))
			case "city":
				cells[i] = model.ExportCell{Text: row.City}
			default:
				if v, ok := row.Value(col.DataKey); ok {
					cells[i] = numericCell(row.Cells[col.DataKey], v)
				}
			}
		}
		data = append(data, cells)
	}

	return model.ExportPayload{
		Title:     table.Page.Name,
		StartAt:   table.Range.Start.Format(model.DateLayout),
		EndAt:     table.Range.End.Format(model.DateLayout),
		CarTypeID: table.CarTypeID,
		Header:    leaves,
		Data:      data,
		Generated: generated,
	}
}

// PortraitExport flattens every row of a portrait page. digits controls the
// rendering of the metric cells.
func PortraitExport(page *model.PortraitPage, digits int, generated time.Time) model.ExportPayload {
	leaves := model.Leaves(page.Headers)
	data := make([][]model.ExportCell, 0, len(page.Rows))
	for _, row := range page.Rows {
		values := portraitValues(row)
		cells := make([]model.ExportCell, len(leaves))
		for i, col := range leaves {
			if col.DataKey == "start_time" {
				cells[i] = model.ExportCell{Text: row.StartTime}
				continue
			}
			v := values[col.DataKey]
			if v == nil {
				cells[i] = model.ExportCell{}
				continue
			}
			cells[i] = numericCell(FormatCell(*v, true, digits), *v)
		}
		data = append(data, cells)
	}

	return model.ExportPayload{
		Title:     page.Title,
		StartAt:   page.Range.Start.Format(model.DateLayout),
		EndAt:     page.Range.End.Format(model.DateLayout),
		City:      page.City,
		CarTypeID: page.CarType,
		Header:    leaves,
		Data:      data,
		Generated: generated,
	}
}

func numericCell(text string, v float64) model.ExportCell {
	return model.ExportCell{Text: text, Number: &v}
}

func portraitValues(row model.PortraitRow) map[string]*float64 {
	return map[string]*float64{
		"total_of_orders":                           row.TotalOfOrders,
		"total_of_dispatch_orders":                  row.TotalOfDispatchOrders,
		"total_of_active_decision_orders":           row.TotalOfActiveDecisionOrders,
		"total_of_dispatch_intraday_finished_orders": row.TotalOfDispatchIntradayFinishedOrder,
		"kongshi_average_distance":                  row.KongshiAverageDistance,
		"kongshi_average_time":                      row.KongshiAverageTime,
		"order_average_distance":                    row.OrderAverageDistance,
		"order_average_time":                        row.OrderAverageTime,
		"total_of_bymeter_orders":                   row.TotalOfBymeterOrders,
		"rate_of_bymeter_order":                     row.RateOfBymeterOrder,
		"average_amount_of_bymeter_order":           row.AverageAmountOfBymeterOrder,
	}
}

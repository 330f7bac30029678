package tools

import (
	"fmt"

	"github.com/growthdesk/growthdesk/pkg/metrics"
)

// eventData loads the analytics snapshot, mapping load failures to a
// readable tool error.
func (e *Executor) eventData() (*metrics.EventSnapshot, *Error) {
	snap, err := e.store.EventData()
	if err != nil {
		return nil, notFound("No analytics data available", nil)
	}
	return snap, nil
}

// resolve finds the stored series for a free-text event name.
func resolve(snap *metrics.EventSnapshot, name, label string) (string, metrics.Series, *Error) {
	key, series, ok := snap.Resolve(name)
	if !ok {
		return "", nil, notFound(fmt.Sprintf("%s '%s' not found", label, name), snap.Names())
	}
	return key, series, nil
}

func (e *Executor) getBusinessSummary(args arguments) (any, *Error) {
	snap, terr := e.eventData()
	if terr != nil {
		return nil, terr
	}
	return struct {
		ProjectID        any            `json:"project_id"`
		DateRange        any            `json:"date_range"`
		ScrapedAt        string         `json:"scraped_at"`
		Summary          map[string]any `json:"summary"`
		AvailableMetrics []string       `json:"available_metrics"`
	}{snap.ProjectID, snap.DateRange, snap.ScrapedAt, snap.Summary, snap.Names()}, nil
}

func (e *Executor) getMetricData(args arguments) (any, *Error) {
	name, terr := args.requiredString("event_name")
	if terr != nil {
		return nil, terr
	}
	snap, terr := e.eventData()
	if terr != nil {
		return nil, terr
	}
	key, series, terr := resolve(snap, name, "Event")
	if terr != nil {
		return nil, terr
	}

	start, _ := args.dateArg("start_date")
	end, _ := args.dateArg("end_date")
	filtered := series.Filter(start, end)

	return struct {
		Event string         `json:"event"`
		Data  metrics.Series `json:"data"`
		Stats metrics.Stats  `json:"stats"`
	}{key, filtered, filtered.Summarize()}, nil
}

// trendPoint is one day in a daily trend. The first point of a window
// carries no change fields.
type trendPoint struct {
	Date          string   `json:"date"`
	Value         float64  `json:"value"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent string   `json:"change_percent,omitempty"`
}

func (e *Executor) getDailyTrend(args arguments) (any, *Error) {
	name, terr := args.requiredString("event_name")
	if terr != nil {
		return nil, terr
	}
	snap, terr := e.eventData()
	if terr != nil {
		return nil, terr
	}
	key, series, terr := resolve(snap, name, "Event")
	if terr != nil {
		return nil, terr
	}

	days, ok := args.intArg("days")
	if !ok || days <= 0 {
		days = 7
	}

	dates := series.Dates()
	if len(dates) > days {
		dates = dates[len(dates)-days:]
	}

	trend := make([]trendPoint, 0, len(dates))
	for i, date := range dates {
		p := trendPoint{Date: date, Value: series[date]}
		if i > 0 {
			prev := series[dates[i-1]]
			change := p.Value - prev
			p.Change = &change
			p.ChangePercent = signedPercent(change, prev, 1)
		}
		trend = append(trend, p)
	}

	return struct {
		Event string       `json:"event"`
		Days  int          `json:"days"`
		Trend []trendPoint `json:"trend"`
	}{key, days, trend}, nil
}

// signedPercent formats change/base*100 with an explicit sign for
// non-negative changes. A zero base reports zero rather than a
// division artifact.
func signedPercent(change, base float64, decimals int) string {
	if base <= 0 {
		return "0"
	}
	pct := fmt.Sprintf("%.*f%%", decimals, change/base*100)
	if change >= 0 {
		return "+" + pct
	}
	return pct
}

func (e *Executor) calculateConversion(args arguments) (any, *Error) {
	startEvent, terr := args.requiredString("start_event")
	if terr != nil {
		return nil, terr
	}
	endEvent, terr := args.requiredString("end_event")
	if terr != nil {
		return nil, terr
	}
	snap, terr := e.eventData()
	if terr != nil {
		return nil, terr
	}
	startKey, startSeries, terr := resolve(snap, startEvent, "Start event")
	if terr != nil {
		return nil, terr
	}
	endKey, endSeries, terr := resolve(snap, endEvent, "End event")
	if terr != nil {
		return nil, terr
	}

	start, _ := args.dateArg("start_date")
	end, _ := args.dateArg("end_date")
	startTotal := startSeries.Filter(start, end).Total()
	endTotal := endSeries.Filter(start, end).Total()

	rate := 0.0
	conversion := "0%"
	if startTotal > 0 {
		rate = endTotal / startTotal * 100
		conversion = fmt.Sprintf("%.2f%%", rate)
	}

	type endpoint struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
	}
	return struct {
		Funnel         string   `json:"funnel"`
		StartEvent     endpoint `json:"start_event"`
		EndEvent       endpoint `json:"end_event"`
		ConversionRate string   `json:"conversion_rate"`
		DropOff        string   `json:"drop_off"`
	}{
		Funnel:         fmt.Sprintf("%s -> %s", startKey, endKey),
		StartEvent:     endpoint{startKey, startTotal},
		EndEvent:       endpoint{endKey, endTotal},
		ConversionRate: conversion,
		DropOff:        fmt.Sprintf("%.2f%%", 100-rate),
	}, nil
}

func (e *Executor) comparePeriods(args arguments) (any, *Error) {
	name, terr := args.requiredString("event_name")
	if terr != nil {
		return nil, terr
	}
	p1Start, terr := args.requiredDate("period1_start")
	if terr != nil {
		return nil, terr
	}
	p1End, terr := args.requiredDate("period1_end")
	if terr != nil {
		return nil, terr
	}
	p2Start, terr := args.requiredDate("period2_start")
	if terr != nil {
		return nil, terr
	}
	p2End, terr := args.requiredDate("period2_end")
	if terr != nil {
		return nil, terr
	}

	snap, terr := e.eventData()
	if terr != nil {
		return nil, terr
	}
	key, series, terr := resolve(snap, name, "Event")
	if terr != nil {
		return nil, terr
	}

	p1Total := series.Filter(p1Start, p1End).Total()
	p2Total := series.Filter(p2Start, p2End).Total()
	change := p1Total - p2Total

	trend := "flat"
	if change > 0 {
		trend = "up"
	} else if change < 0 {
		trend = "down"
	}

	type period struct {
		Range string  `json:"range"`
		Total float64 `json:"total"`
	}
	return struct {
		Event      string `json:"event"`
		Period1    period `json:"period1"`
		Period2    period `json:"period2"`
		Comparison struct {
			AbsoluteChange float64 `json:"absolute_change"`
			PercentChange  string  `json:"percent_change"`
			Trend          string  `json:"trend"`
		} `json:"comparison"`
	}{
		Event:   key,
		Period1: period{fmt.Sprintf("%s to %s", p1Start, p1End), p1Total},
		Period2: period{fmt.Sprintf("%s to %s", p2Start, p2End), p2Total},
		Comparison: struct {
			AbsoluteChange float64 `json:"absolute_change"`
			PercentChange  string  `json:"percent_change"`
			Trend          string  `json:"trend"`
		}{change, signedPercent(change, p2Total, 1), trend},
	}, nil
}

func (e *Executor) think(args arguments) (any, *Error) {
	thought, terr := args.requiredString("thought")
	if terr != nil {
		return nil, terr
	}
	return rawOutput("Thinking: " + thought), nil
}

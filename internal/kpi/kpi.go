// Package kpi projects a snapshot into the card and chart structures the
// dashboard frontend renders verbatim. All math happened upstream; this layer
// only selects, labels and colors.
package kpi

import (
	"math"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// Format tells the frontend how to print a card value.
type Format string

const (
	FormatCurrency   Format = "currency"
	FormatMultiplier Format = "multiplier"
	FormatNumber     Format = "number"
	FormatPercentage Format = "percentage"
)

// Card is one headline KPI. TrendPct is nil when there is not enough history
// for a week-over-week comparison.
type Card struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Value    float64  `json:"value"`
	Format   Format   `json:"format"`
	TrendPct *float64 `json:"trend_pct,omitempty"`
}

// Thresholds grade ROAS on the charts. Zero value is unusable; callers pass
// config-derived values or DefaultThresholds.
type Thresholds struct {
	ROASBenchmark float64
	ROASGood      float64
	ROASWarn      float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{ROASBenchmark: 3.0, ROASGood: 3.0, ROASWarn: 2.0}
}

// Cards builds the headline row: spend, revenue, ROAS, conversions.
func Cards(snap *models.Snapshot) []Card {
	wow := snap.Trends.WeekOverWeek

	cards := []Card{
		{Key: "total_spend", Label: "Total Spend", Value: snap.Overview.TotalSpend, Format: FormatCurrency, TrendPct: trendOf(wow, models.FieldSpend)},
		{Key: "total_revenue", Label: "Total Revenue", Value: snap.Overview.TotalRevenue, Format: FormatCurrency, TrendPct: trendOf(wow, models.FieldRevenue)},
		{Key: "overall_roas", Label: "ROAS", Value: snap.Overview.OverallROAS, Format: FormatMultiplier, TrendPct: roasTrend(wow)},
		{Key: "total_conversions", Label: "Conversions", Value: float64(snap.Overview.TotalConversions), Format: FormatNumber, TrendPct: trendOf(wow, models.FieldConversions)},
	}
	return cards
}

func trendOf(wow map[models.Field]models.TrendStat, f models.Field) *float64 {
	if wow == nil {
		return nil
	}
	stat, ok := wow[f]
	if !ok {
		return nil
	}
	pct := stat.Percentage
	return &pct
}

// roasTrend derives the ROAS delta from the revenue and spend deltas. When
// spend moved 0% the ratio's change is revenue's change alone.
func roasTrend(wow map[models.Field]models.TrendStat) *float64 {
	rev := trendOf(wow, models.FieldRevenue)
	sp := trendOf(wow, models.FieldSpend)
	if rev == nil || sp == nil {
		return nil
	}
	pct := round1(*rev - *sp)
	return &pct
}

// Chart is a render-ready chart definition. Type picks the renderer; Series
// carry aligned values over Labels.
type Chart struct {
	Key       string   `json:"key"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Labels    []string `json:"labels"`
	Series    []Series `json:"series"`
	Benchmark float64  `json:"benchmark,omitempty"`
}

type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors,omitempty"`
}

const (
	colorGood = "#28a745"
	colorWarn = "#ffc107"
	colorBad  = "#dc3545"
)

// BuildCharts assembles the dashboard's chart set. Charts with no underlying
// data are omitted rather than rendered empty.
func BuildCharts(snap *models.Snapshot, th Thresholds) []Chart {
	var charts []Chart
	if c, ok := revenueTrendChart(snap); ok {
		charts = append(charts, c)
	}
	if c, ok := spendRevenueChart(snap); ok {
		charts = append(charts, c)
	}
	if c, ok := roasChart(snap, th); ok {
		charts = append(charts, c)
	}
	if c, ok := funnelChart(snap); ok {
		charts = append(charts, c)
	}
	return charts
}

// revenueTrendChart is the daily revenue line with a 7-day rolling mean
// smoothing series.
func revenueTrendChart(snap *models.Snapshot) (Chart, bool) {
	daily := snap.Trends.Daily
	var labels []string
	var values []float64
	for _, d := range daily {
		v, ok := d.Values[models.FieldRevenue]
		if !ok {
			continue
		}
		labels = append(labels, d.Date.Format("2006-01-02"))
		values = append(values, v)
	}
	if len(values) == 0 {
		return Chart{}, false
	}
	return Chart{
		Key:    "revenue_trend",
		Type:   "line",
		Title:  "Revenue Trend",
		Labels: labels,
		Series: []Series{
			{Name: "Revenue", Values: values},
			{Name: "7-day avg", Values: rollingMean(values, 7)},
		},
	}, true
}

// rollingMean averages over a trailing window, shrinking it at the start the
// way pandas' min_periods=1 does.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = round2(sum / float64(n))
	}
	return out
}

func spendRevenueChart(snap *models.Snapshot) (Chart, bool) {
	ranking := snap.Performance.ChannelRanking
	if len(ranking) == 0 {
		return Chart{}, false
	}
	labels := make([]string, len(ranking))
	spend := make([]float64, len(ranking))
	revenue := make([]float64, len(ranking))
	for i, rc := range ranking {
		labels[i] = rc.Channel
		spend[i] = rc.Spend
		revenue[i] = rc.Revenue
	}
	return Chart{
		Key:    "spend_vs_revenue",
		Type:   "bar",
		Title:  "Spend vs Revenue by Channel",
		Labels: labels,
		Series: []Series{
			{Name: "Spend", Values: spend},
			{Name: "Revenue", Values: revenue},
		},
	}, true
}

// roasChart colors each channel's bar by how it grades against the
// thresholds and draws the benchmark line.
func roasChart(snap *models.Snapshot, th Thresholds) (Chart, bool) {
	ranking := snap.Performance.ChannelRanking
	if len(ranking) == 0 {
		return Chart{}, false
	}
	labels := make([]string, len(ranking))
	values := make([]float64, len(ranking))
	colors := make([]string, len(ranking))
	for i, rc := range ranking {
		labels[i] = rc.Channel
		values[i] = rc.ROAS
		switch {
		case rc.ROAS >= th.ROASGood:
			colors[i] = colorGood
		case rc.ROAS >= th.ROASWarn:
			colors[i] = colorWarn
		default:
			colors[i] = colorBad
		}
	}
	return Chart{
		Key:       "roas_by_channel",
		Type:      "bar",
		Title:     "ROAS by Channel",
		Labels:    labels,
		Series:    []Series{{Name: "ROAS", Values: values, Colors: colors}},
		Benchmark: th.ROASBenchmark,
	}, true
}

func funnelChart(snap *models.Snapshot) (Chart, bool) {
	o := snap.Overview
	if o.TotalImpressions == 0 && o.TotalClicks == 0 && o.TotalConversions == 0 {
		return Chart{}, false
	}
	return Chart{
		Key:    "conversion_funnel",
		Type:   "funnel",
		Title:  "Conversion Funnel",
		Labels: []string{"Impressions", "Clicks", "Conversions"},
		Series: []Series{{
			Name: "Funnel",
			Values: []float64{
				float64(o.TotalImpressions),
				float64(o.TotalClicks),
				float64(o.TotalConversions),
			},
		}},
	}, true
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Package aggregate folds normalized tables into one dashboard snapshot:
// overview totals, per-channel rollups, day-level trends and the efficiency
// ranking. Every pass recomputes from scratch; snapshots are immutable.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// Aggregate builds a snapshot from the given tables. Absent fields contribute
// nothing to sums, and every derived ratio follows one policy: division by
// zero yields 0, never NaN and never an error.
func Aggregate(tables map[string]*models.NormalizedTable) *models.Snapshot {
	snap := &models.Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Channels:    make(map[string]models.ChannelMetrics, len(tables)),
		Sources:     make(map[string]models.SourceStats, len(tables)),
	}

	var totSpend, totRevenue, totConversions, totImpressions, totClicks float64
	for id, t := range tables {
		if t.Empty() {
			snap.Sources[id] = sourceStats(t)
			continue
		}
		totSpend += sumField(t, models.FieldSpend)
		totRevenue += sumField(t, models.FieldRevenue)
		totConversions += sumField(t, models.FieldConversions)
		totImpressions += sumField(t, models.FieldImpressions)
		totClicks += sumField(t, models.FieldClicks)

		snap.Channels[id] = channelMetrics(id, t)
		snap.Sources[id] = sourceStats(t)
	}

	snap.Overview = models.OverviewMetrics{
		TotalSpend:            round2(totSpend),
		TotalRevenue:          round2(totRevenue),
		TotalConversions:      int64(totConversions),
		TotalImpressions:      int64(totImpressions),
		TotalClicks:           int64(totClicks),
		OverallROAS:           round2(safeDiv(totRevenue, totSpend)),
		OverallCTR:            round2(safeDiv(totClicks, totImpressions) * 100),
		OverallConversionRate: round2(safeDiv(totConversions, totClicks) * 100),
	}

	snap.Trends = trendSeries(tables)
	snap.Performance = performance(snap.Channels)
	return snap
}

// channelMetrics rolls one source up. Ratios use the whole-table sums, and
// the revenue trend compares the first and second half of the rows in the
// order given (sources hand rows over already date-ordered).
func channelMetrics(id string, t *models.NormalizedTable) models.ChannelMetrics {
	m := models.ChannelMetrics{Source: id, SourceType: t.SourceType}

	m.TotalSpend, m.AvgSpend = sumAndMean(t, models.FieldSpend)
	m.TotalRevenue, m.AvgRevenue = sumAndMean(t, models.FieldRevenue)
	m.TotalConversions, m.AvgConversions = sumAndMean(t, models.FieldConversions)
	m.TotalImpressions, m.AvgImpressions = sumAndMean(t, models.FieldImpressions)
	m.TotalClicks, m.AvgClicks = sumAndMean(t, models.FieldClicks)

	if t.Has(models.FieldSpend) && t.Has(models.FieldRevenue) {
		m.ROAS = round2(safeDiv(m.TotalRevenue, m.TotalSpend))
	}
	if t.Has(models.FieldClicks) && t.Has(models.FieldImpressions) {
		m.CTR = round2(safeDiv(m.TotalClicks, m.TotalImpressions) * 100)
	}
	if t.Has(models.FieldSpend) && t.Has(models.FieldClicks) {
		m.CPC = round2(safeDiv(m.TotalSpend, m.TotalClicks))
	}
	if t.Has(models.FieldOpenRate) {
		_, m.AvgOpenRate = sumAndMean(t, models.FieldOpenRate)
	}
	if t.Has(models.FieldClickRate) {
		_, m.AvgClickRate = sumAndMean(t, models.FieldClickRate)
	}

	if len(t.Rows) > 7 && t.Has(models.FieldRevenue) {
		mid := len(t.Rows) / 2
		first := meanOver(t.Rows[:mid], models.FieldRevenue)
		second := meanOver(t.Rows[mid:], models.FieldRevenue)
		trend := 0.0
		if first > 0 {
			trend = round1((second - first) / first * 100)
		}
		m.RevenueTrendPct = &trend
	}
	return m
}

// trendSeries groups every table's rows by day and sums the base fields into
// combined daily totals, then derives week-over-week stats for spend, revenue
// and conversions. Fewer than 2 distinct days or at most 7 data points leave
// the week-over-week map nil.
func trendSeries(tables map[string]*models.NormalizedTable) models.TrendSeries {
	present := make(map[models.Field]bool)
	daily := make(map[time.Time]map[models.Field]float64)
	for _, t := range tables {
		if t.Empty() {
			continue
		}
		for _, f := range models.BaseFields() {
			if !t.Has(f) {
				continue
			}
			present[f] = true
			for _, row := range t.Rows {
				day := dayUTC(row.Date)
				if daily[day] == nil {
					daily[day] = make(map[models.Field]float64)
				}
				if v, ok := row.Get(f); ok && !math.IsNaN(v) {
					daily[day][f] += v
				}
			}
		}
	}
	if len(daily) == 0 {
		return models.TrendSeries{}
	}

	days := make([]time.Time, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := models.TrendSeries{Daily: make([]models.DailyTotal, len(days))}
	for i, d := range days {
		vals := make(map[models.Field]float64, len(present))
		for f := range present {
			vals[f] = daily[d][f]
		}
		series.Daily[i] = models.DailyTotal{Date: d, Values: vals}
	}

	if len(days) < 2 {
		return series
	}
	for _, f := range []models.Field{models.FieldSpend, models.FieldRevenue, models.FieldConversions} {
		if !present[f] {
			continue
		}
		values := make([]float64, len(days))
		for i, d := range days {
			values[i] = daily[d][f]
		}
		if stat, ok := weekOverWeek(values); ok {
			if series.WeekOverWeek == nil {
				series.WeekOverWeek = make(map[models.Field]models.TrendStat)
			}
			series.WeekOverWeek[f] = stat
		}
	}
	return series
}

// weekOverWeek compares the mean of the last 7 days against the previous
// window: days[-14:-7] when at least 14 days exist, everything before the
// last 7 otherwise. No stat when history is too short or the previous mean
// is not positive.
func weekOverWeek(values []float64) (models.TrendStat, bool) {
	if len(values) <= 7 {
		return models.TrendStat{}, false
	}
	recent := mean(values[len(values)-7:])
	var previous float64
	if len(values) >= 14 {
		previous = mean(values[len(values)-14 : len(values)-7])
	} else {
		previous = mean(values[:len(values)-7])
	}
	if previous <= 0 {
		return models.TrendStat{}, false
	}
	pct := (recent - previous) / previous * 100
	dir := "down"
	if pct > 0 {
		dir = "up"
	}
	return models.TrendStat{
		Percentage:  round1(pct),
		Direction:   dir,
		RecentAvg:   round2(recent),
		PreviousAvg: round2(previous),
	}, true
}

// performance ranks channels by ROAS descending and annotates each entry with
// its share of total spend. Best and worst are views into the ranking.
func performance(channels map[string]models.ChannelMetrics) models.Performance {
	ranking := make([]models.RankedChannel, 0, len(channels))
	var totalSpend float64
	for id, m := range channels {
		ranking = append(ranking, models.RankedChannel{
			Channel: id,
			ROAS:    m.ROAS,
			Spend:   m.TotalSpend,
			Revenue: m.TotalRevenue,
			CTR:     m.CTR,
			CPC:     m.CPC,
		})
		totalSpend += m.TotalSpend
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].ROAS != ranking[j].ROAS {
			return ranking[i].ROAS > ranking[j].ROAS
		}
		return ranking[i].Channel < ranking[j].Channel // orden determinista
	})
	for i := range ranking {
		if totalSpend > 0 {
			ranking[i].SpendPercentage = round1(ranking[i].Spend / totalSpend * 100)
		}
	}

	perf := models.Performance{ChannelRanking: ranking}
	if len(ranking) > 0 {
		perf.BestChannel = &ranking[0]
	}
	if len(ranking) > 1 {
		perf.WorstChannel = &ranking[len(ranking)-1]
	}
	return perf
}

func sourceStats(t *models.NormalizedTable) models.SourceStats {
	st := models.SourceStats{
		Records:        len(t.Rows),
		SyntheticDates: t.SyntheticDates,
		SourceType:     t.SourceType,
	}
	for _, row := range t.Rows {
		if st.From.IsZero() || row.Date.Before(st.From) {
			st.From = row.Date
		}
		if row.Date.After(st.To) {
			st.To = row.Date
		}
	}
	return st
}

// sumField adds up the non-NaN values of f across all rows; 0 when the table
// lacks the column entirely.
func sumField(t *models.NormalizedTable, f models.Field) float64 {
	if !t.Has(f) {
		return 0
	}
	var sum float64
	for _, row := range t.Rows {
		if v, ok := row.Get(f); ok && !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}

func sumAndMean(t *models.NormalizedTable, f models.Field) (float64, float64) {
	if !t.Has(f) {
		return 0, 0
	}
	var sum float64
	var n int
	for _, row := range t.Rows {
		if v, ok := row.Get(f); ok && !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum, round2(sum / float64(n))
}

func meanOver(rows []models.CanonicalRow, f models.Field) float64 {
	var sum float64
	var n int
	for _, row := range rows {
		if v, ok := row.Get(f); ok && !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }

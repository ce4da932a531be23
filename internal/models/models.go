package models

import (
	"math"
	"time"
)

// SourceType classifies a connected platform so the normalizer knows which
// column vocabulary to apply.
type SourceType string

const (
	SourceAds       SourceType = "ads"
	SourceEcommerce SourceType = "ecommerce"
	SourceEmail     SourceType = "email"
	SourceAnalytics SourceType = "analytics"
	SourceGeneric   SourceType = "generic"
)

// Field is a canonical metric name every source gets mapped onto.
type Field string

const (
	FieldSpend       Field = "spend"
	FieldRevenue     Field = "revenue"
	FieldImpressions Field = "impressions"
	FieldClicks      Field = "clicks"
	FieldConversions Field = "conversions"
	FieldCPC         Field = "cpc"
	FieldCPM         Field = "cpm"
	FieldCTR         Field = "ctr"
	FieldROAS        Field = "roas"
	FieldOrders      Field = "orders"
	FieldUnitsSold   Field = "units_sold"
	FieldCustomers   Field = "customers"
	FieldAOV         Field = "aov"
	FieldEmailsSent  Field = "emails_sent"
	FieldOpens       Field = "opens"
	FieldUnsubs      Field = "unsubscribes"
	FieldBounces     Field = "bounces"
	FieldOpenRate    Field = "open_rate"
	FieldClickRate   Field = "click_rate"
	FieldSessions    Field = "sessions"
	FieldUsers       Field = "users"
	FieldPageviews   Field = "pageviews"
	FieldBounceRate  Field = "bounce_rate"
)

// BaseFields are the fields that participate in cross-source sums and trends.
func BaseFields() []Field {
	return []Field{FieldSpend, FieldRevenue, FieldConversions, FieldImpressions, FieldClicks}
}

// RawTable is one source's dataset exactly as fetched: column names are
// platform-specific, cells may be numbers, strings or timestamps. Read-only
// once handed to the normalizer.
type RawTable struct {
	Columns []string
	Rows    []map[string]any
}

func (t *RawTable) Empty() bool { return t == nil || len(t.Rows) == 0 }

// CanonicalRow holds the canonical fields recovered for one raw row. A field
// missing from the map is absent, which is not the same as zero; a value may
// be NaN when a backfill hit a zero denominator.
type CanonicalRow struct {
	Date   time.Time
	Values map[Field]float64
}

func (r CanonicalRow) Get(f Field) (float64, bool) {
	v, ok := r.Values[f]
	return v, ok
}

// NormalizedTable is the immutable result of one normalizer pass over one
// source. Fields records column presence at table level: a table without a
// revenue column contributes nothing to revenue sums rather than zeros.
type NormalizedTable struct {
	SourceID    string
	SourceType  SourceType
	ProcessedAt time.Time
	// SyntheticDates marks the fabricated daily sequence applied when the
	// source had no recognizable date column. Downstream trend math should
	// treat those dates as alignment guesses, not facts.
	SyntheticDates bool
	Fields         map[Field]bool
	Rows           []CanonicalRow
}

func (t *NormalizedTable) Has(f Field) bool { return t != nil && t.Fields[f] }
func (t *NormalizedTable) Empty() bool      { return t == nil || len(t.Rows) == 0 }

// OverviewMetrics is the single rollup across every connected source.
type OverviewMetrics struct {
	TotalSpend            float64 `json:"total_spend"`
	TotalRevenue          float64 `json:"total_revenue"`
	TotalConversions      int64   `json:"total_conversions"`
	TotalImpressions      int64   `json:"total_impressions"`
	TotalClicks           int64   `json:"total_clicks"`
	OverallROAS           float64 `json:"overall_roas"`
	OverallCTR            float64 `json:"overall_ctr"`
	OverallConversionRate float64 `json:"overall_conversion_rate"`
}

// ChannelMetrics is the per-source rollup. Derived ratios default to 0 when
// their inputs are absent or the denominator is zero; RevenueTrendPct is nil
// (not zero) when there is too little history to compare halves.
type ChannelMetrics struct {
	Source           string     `json:"source"`
	SourceType       SourceType `json:"source_type"`
	TotalSpend       float64    `json:"total_spend"`
	TotalRevenue     float64    `json:"total_revenue"`
	TotalConversions float64    `json:"total_conversions"`
	TotalImpressions float64    `json:"total_impressions"`
	TotalClicks      float64    `json:"total_clicks"`
	AvgSpend         float64    `json:"avg_spend"`
	AvgRevenue       float64    `json:"avg_revenue"`
	AvgConversions   float64    `json:"avg_conversions"`
	AvgImpressions   float64    `json:"avg_impressions"`
	AvgClicks        float64    `json:"avg_clicks"`
	ROAS             float64    `json:"roas"`
	CTR              float64    `json:"ctr"`
	CPC              float64    `json:"cpc"`
	AvgOpenRate      float64    `json:"avg_open_rate,omitempty"`
	AvgClickRate     float64    `json:"avg_click_rate,omitempty"`
	RevenueTrendPct  *float64   `json:"revenue_trend_pct,omitempty"`
}

// TrendStat is a week-over-week comparison for one base field.
type TrendStat struct {
	Percentage  float64 `json:"percentage"`
	Direction   string  `json:"direction"`
	RecentAvg   float64 `json:"recent_avg"`
	PreviousAvg float64 `json:"previous_avg"`
}

// DailyTotal is one day's combined totals across all sources. Only fields
// present in at least one source appear; days a source lacked contribute 0.
type DailyTotal struct {
	Date   time.Time         `json:"date"`
	Values map[Field]float64 `json:"values"`
}

// TrendSeries is the day-indexed view plus week-over-week deltas. WeekOverWeek
// is nil when fewer than 8 data days exist: "no signal", not "flat".
type TrendSeries struct {
	Daily        []DailyTotal        `json:"daily"`
	WeekOverWeek map[Field]TrendStat `json:"week_over_week,omitempty"`
}

// RankedChannel is one entry of the efficiency ranking.
type RankedChannel struct {
	Channel         string  `json:"channel"`
	ROAS            float64 `json:"roas"`
	Spend           float64 `json:"spend"`
	Revenue         float64 `json:"revenue"`
	CTR             float64 `json:"ctr"`
	CPC             float64 `json:"cpc"`
	SpendPercentage float64 `json:"spend_percentage"`
}

// Performance holds the ranking plus best/worst views over it.
type Performance struct {
	ChannelRanking []RankedChannel `json:"channel_ranking"`
	BestChannel    *RankedChannel  `json:"best_channel,omitempty"`
	WorstChannel   *RankedChannel  `json:"worst_channel,omitempty"`
}

// SourceWarning records a source that failed during fetch or normalization.
// Aggregation proceeds without it.
type SourceWarning struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// SourceStats is the per-source provenance kept on a snapshot, used by the
// data-quality report.
type SourceStats struct {
	Records        int        `json:"records"`
	From           time.Time  `json:"from,omitempty"`
	To             time.Time  `json:"to,omitempty"`
	SyntheticDates bool       `json:"synthetic_dates,omitempty"`
	SourceType     SourceType `json:"source_type"`
}

// Snapshot is one immutable aggregation pass. A refresh produces a new
// snapshot; nothing is updated in place.
type Snapshot struct {
	ID          string                    `json:"id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Demo        bool                      `json:"demo,omitempty"`
	Overview    OverviewMetrics           `json:"overview"`
	Channels    map[string]ChannelMetrics `json:"channels"`
	Trends      TrendSeries               `json:"trends"`
	Performance Performance               `json:"performance"`
	Sources     map[string]SourceStats    `json:"sources,omitempty"`
	Warnings    []SourceWarning           `json:"warnings,omitempty"`
}

// SourceQuality is the completeness summary for one source.
type SourceQuality struct {
	TotalRecords   int    `json:"total_records"`
	DateRange      string `json:"date_range"`
	SyntheticDates bool   `json:"synthetic_dates,omitempty"`
}

// QualityReport summarizes how trustworthy the current snapshot is.
type QualityReport struct {
	TotalSources    int                      `json:"total_sources"`
	ActiveSources   int                      `json:"active_sources"`
	Completeness    map[string]SourceQuality `json:"data_completeness"`
	Issues          []string                 `json:"data_issues"`
	Recommendations []string                 `json:"recommendations"`
	OverallScore    float64                  `json:"overall_score"`
}

// IsMissing reports whether v is the NaN produced by a zero-denominator
// backfill.
func IsMissing(v float64) bool { return math.IsNaN(v) }

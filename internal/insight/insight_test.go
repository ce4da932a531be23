package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/marketing-pulse/internal/models"
)

func engine() *Engine { return NewEngine(DefaultBenchmarks()) }

func baseSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Overview: models.OverviewMetrics{TotalSpend: 1000, TotalRevenue: 3500, OverallROAS: 3.5},
		Channels: map[string]models.ChannelMetrics{},
	}
}

func TestPerformanceGrading(t *testing.T) {
	cases := []struct {
		name     string
		roas     float64
		wantType string
	}{
		{"above benchmark", 3.5, "positive"},
		{"acceptable", 2.5, "neutral"},
		{"below floor", 1.2, "negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := baseSnapshot()
			snap.Overview.OverallROAS = tc.roas

			report := engine().Analyze(snap)
			require.NotEmpty(t, report.PerformanceInsights)
			assert.Equal(t, tc.wantType, report.PerformanceInsights[0].Type)
		})
	}
}

func TestPerformanceSkippedWithoutSpend(t *testing.T) {
	snap := baseSnapshot()
	snap.Overview.TotalSpend = 0

	report := engine().Analyze(snap)
	assert.Empty(t, report.PerformanceInsights)
}

func TestBestChannelNeedsCompetition(t *testing.T) {
	snap := baseSnapshot()
	best := models.RankedChannel{Channel: "meta", ROAS: 4.0}
	snap.Performance = models.Performance{
		ChannelRanking: []models.RankedChannel{best},
		BestChannel:    &best,
	}

	report := engine().Analyze(snap)
	for _, in := range report.PerformanceInsights {
		assert.NotContains(t, in.Title, "Best channel", "single channel is not a ranking")
	}

	snap.Performance.ChannelRanking = append(snap.Performance.ChannelRanking, models.RankedChannel{Channel: "bing", ROAS: 1.0})
	report = engine().Analyze(snap)
	found := false
	for _, in := range report.PerformanceInsights {
		if in.Channel == "meta" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCreativeOptimizationOnLowCTR(t *testing.T) {
	snap := baseSnapshot()
	snap.Channels["meta"] = models.ChannelMetrics{
		SourceType:       models.SourceAds,
		TotalImpressions: 50000,
		CTR:              1.2,
	}

	report := engine().Analyze(snap)
	require.Len(t, report.OptimizationOpportunities, 1)
	op := report.OptimizationOpportunities[0]
	assert.Equal(t, "creative_optimization", op.Type)
	assert.Equal(t, "high", op.Priority)
	assert.Equal(t, "meta", op.Channel)
	assert.NotEmpty(t, op.Actions)
}

func TestAudienceOptimizationOnHighCPC(t *testing.T) {
	snap := baseSnapshot()
	snap.Channels["google_ads"] = models.ChannelMetrics{
		SourceType:  models.SourceAds,
		TotalClicks: 500,
		CTR:         3.0,
		CPC:         2.8,
	}

	report := engine().Analyze(snap)
	require.Len(t, report.OptimizationOpportunities, 1)
	assert.Equal(t, "audience_optimization", report.OptimizationOpportunities[0].Type)
	assert.Equal(t, "medium", report.OptimizationOpportunities[0].Priority)
}

func TestDeliverabilityOnLowOpenRate(t *testing.T) {
	snap := baseSnapshot()
	snap.Channels["klaviyo"] = models.ChannelMetrics{
		SourceType:  models.SourceEmail,
		AvgOpenRate: 14.0,
	}

	report := engine().Analyze(snap)
	require.Len(t, report.OptimizationOpportunities, 1)
	assert.Equal(t, "deliverability_optimization", report.OptimizationOpportunities[0].Type)
}

func TestScalingRules(t *testing.T) {
	snap := baseSnapshot()
	snap.Channels["winner"] = models.ChannelMetrics{SourceType: models.SourceAds, ROAS: 4.5, TotalSpend: 800}
	snap.Channels["loser"] = models.ChannelMetrics{SourceType: models.SourceAds, ROAS: 0.8, TotalSpend: 300}
	snap.Channels["small"] = models.ChannelMetrics{SourceType: models.SourceAds, ROAS: 5.0, TotalSpend: 100}

	report := engine().Analyze(snap)
	require.Len(t, report.ScalingRecommendations, 2)

	byChannel := make(map[string]Insight)
	for _, in := range report.ScalingRecommendations {
		byChannel[in.Channel] = in
	}
	assert.Equal(t, "scale_up", byChannel["winner"].Type)
	assert.Equal(t, "scale_down", byChannel["loser"].Type)
	// ROAS alto pero gasto chico: sin recomendación
	assert.NotContains(t, byChannel, "small")
}

func TestBudgetConcentration(t *testing.T) {
	snap := baseSnapshot()
	snap.Performance = models.Performance{
		ChannelRanking: []models.RankedChannel{
			{Channel: "meta", ROAS: 3.5, SpendPercentage: 72},
			{Channel: "google_ads", ROAS: 1.4, SpendPercentage: 28},
		},
	}

	report := engine().Analyze(snap)
	require.Len(t, report.BudgetRecommendations, 1)
	assert.Equal(t, "diversification", report.BudgetRecommendations[0].Type)
	assert.Equal(t, "meta", report.BudgetRecommendations[0].Channel)
}

func TestBudgetReallocation(t *testing.T) {
	snap := baseSnapshot()
	snap.Performance = models.Performance{
		ChannelRanking: []models.RankedChannel{
			{Channel: "meta", ROAS: 3.5, SpendPercentage: 55},
			{Channel: "google_ads", ROAS: 1.4, SpendPercentage: 45},
		},
	}

	report := engine().Analyze(snap)
	require.Len(t, report.BudgetRecommendations, 1)
	assert.Equal(t, "reallocation", report.BudgetRecommendations[0].Type)
	assert.Equal(t, "google_ads", report.BudgetRecommendations[0].Channel)
}

func TestAnomalyAlerts(t *testing.T) {
	snap := baseSnapshot()
	snap.Trends.WeekOverWeek = map[models.Field]models.TrendStat{
		models.FieldConversions: {Percentage: -30, Direction: "down"},
		models.FieldRevenue:     {Percentage: 60, Direction: "up"},
	}

	report := engine().Analyze(snap)
	require.Len(t, report.AnomalyAlerts, 2)

	types := []string{report.AnomalyAlerts[0].Type, report.AnomalyAlerts[1].Type}
	assert.Contains(t, types, "critical")
	assert.Contains(t, types, "positive")
}

func TestAnomalyThresholdsNotCrossed(t *testing.T) {
	snap := baseSnapshot()
	snap.Trends.WeekOverWeek = map[models.Field]models.TrendStat{
		models.FieldConversions: {Percentage: -10},
		models.FieldRevenue:     {Percentage: 20},
	}

	report := engine().Analyze(snap)
	assert.Empty(t, report.AnomalyAlerts)
}

func TestAnalyzeDeterministicOrder(t *testing.T) {
	snap := baseSnapshot()
	snap.Channels["b_ads"] = models.ChannelMetrics{SourceType: models.SourceAds, TotalImpressions: 1000, CTR: 1.0}
	snap.Channels["a_ads"] = models.ChannelMetrics{SourceType: models.SourceAds, TotalImpressions: 1000, CTR: 1.0}

	r1 := engine().Analyze(snap)
	r2 := engine().Analyze(snap)
	require.Len(t, r1.OptimizationOpportunities, 2)
	assert.Equal(t, "a_ads", r1.OptimizationOpportunities[0].Channel)
	assert.Equal(t, r1.OptimizationOpportunities, r2.OptimizationOpportunities)
}

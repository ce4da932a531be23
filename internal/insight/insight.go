// Package insight turns an aggregation snapshot into the canned
// recommendation objects the dashboard renders. Everything here is a fixed
// threshold rule over already-computed metrics; there is no model and no
// randomness, so the same snapshot always yields the same report.
package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// Benchmarks are the business thresholds behind every rule. Defaults mirror
// common industry targets; deployments tune them.
type Benchmarks struct {
	ROASGood      float64 // at or above: performing well
	ROASWarn      float64 // at or above: acceptable; below: underperforming
	AdsCTRMin     float64 // percent; below triggers creative work
	AdsCPCMax     float64 // currency; above triggers audience work
	OpenRateMin   float64 // percent; below triggers deliverability work
	ScaleUpROAS   float64
	ScaleUpSpend  float64
	ScaleDownROAS float64
	// Week-over-week anomaly thresholds, in percent.
	ConversionDropPct float64
	RevenueSpikePct   float64
	// Budget concentration thresholds, in percent of total spend.
	ConcentrationPct float64
	ReallocatePct    float64
}

func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		ROASGood:          3.0,
		ROASWarn:          2.0,
		AdsCTRMin:         2.0,
		AdsCPCMax:         2.0,
		OpenRateMin:       20.0,
		ScaleUpROAS:       3.0,
		ScaleUpSpend:      500,
		ScaleDownROAS:     1.5,
		ConversionDropPct: -25,
		RevenueSpikePct:   50,
		ConcentrationPct:  60,
		ReallocatePct:     30,
	}
}

// Insight is the fixed title/description/priority/action shape shared by all
// report sections.
type Insight struct {
	Type        string   `json:"type"`
	Channel     string   `json:"channel,omitempty"`
	Priority    string   `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action,omitempty"`
	Actions     []string `json:"actions,omitempty"`
	Impact      string   `json:"impact,omitempty"`
}

type Report struct {
	PerformanceInsights       []Insight `json:"performance_insights"`
	OptimizationOpportunities []Insight `json:"optimization_opportunities"`
	ScalingRecommendations    []Insight `json:"scaling_recommendations"`
	BudgetRecommendations     []Insight `json:"budget_recommendations"`
	AnomalyAlerts             []Insight `json:"anomaly_alerts"`
	AudienceInsights          []Insight `json:"audience_insights"`
	GeneratedAt               time.Time `json:"generated_at"`
}

type Engine struct {
	b Benchmarks
}

func NewEngine(b Benchmarks) *Engine { return &Engine{b: b} }

// Analyze evaluates every rule set against the snapshot.
func (e *Engine) Analyze(snap *models.Snapshot) *Report {
	r := &Report{GeneratedAt: time.Now().UTC()}
	r.PerformanceInsights = e.performance(snap)
	r.OptimizationOpportunities = e.optimization(snap)
	r.ScalingRecommendations = e.scaling(snap)
	r.BudgetRecommendations = e.budget(snap)
	r.AnomalyAlerts = e.anomalies(snap)
	r.AudienceInsights = e.audience(snap)
	return r
}

func (e *Engine) performance(snap *models.Snapshot) []Insight {
	var out []Insight
	roas := snap.Overview.OverallROAS

	if snap.Overview.TotalSpend > 0 {
		switch {
		case roas >= e.b.ROASGood:
			out = append(out, Insight{
				Type:        "positive",
				Priority:    "low",
				Title:       "ROAS above benchmark",
				Description: fmt.Sprintf("Overall ROAS of %.1fx is above the %.1fx benchmark", roas, e.b.ROASGood),
				Action:      "Consider scaling the best-performing campaigns",
			})
		case roas >= e.b.ROASWarn:
			out = append(out, Insight{
				Type:        "neutral",
				Priority:    "medium",
				Title:       "ROAS in acceptable range",
				Description: fmt.Sprintf("Overall ROAS of %.1fx is acceptable but short of the %.1fx benchmark", roas, e.b.ROASGood),
				Action:      "Look for optimization headroom to push it higher",
			})
		default:
			out = append(out, Insight{
				Type:        "negative",
				Priority:    "high",
				Title:       "ROAS below target",
				Description: fmt.Sprintf("Overall ROAS of %.1fx is below the %.1fx floor", roas, e.b.ROASWarn),
				Action:      "Review audience targeting and creatives",
			})
		}
	}

	if best := snap.Performance.BestChannel; best != nil && len(snap.Performance.ChannelRanking) > 1 {
		out = append(out, Insight{
			Type:        "positive",
			Channel:     best.Channel,
			Priority:    "medium",
			Title:       fmt.Sprintf("Best channel: %s", titleCase(best.Channel)),
			Description: fmt.Sprintf("%s is generating the best ROAS (%.1fx)", titleCase(best.Channel), best.ROAS),
			Action:      fmt.Sprintf("Consider shifting budget toward %s", titleCase(best.Channel)),
		})
	}
	return out
}

func (e *Engine) optimization(snap *models.Snapshot) []Insight {
	var out []Insight
	for _, id := range sortedChannels(snap) {
		ch := snap.Channels[id]
		switch ch.SourceType {
		case models.SourceAds:
			if ch.TotalImpressions > 0 && ch.CTR < e.b.AdsCTRMin {
				out = append(out, Insight{
					Type:        "creative_optimization",
					Channel:     id,
					Priority:    "high",
					Title:       fmt.Sprintf("Improve %s creatives", titleCase(id)),
					Description: fmt.Sprintf("CTR of %.1f%% is below the %.1f%% benchmark", ch.CTR, e.b.AdsCTRMin),
					Impact:      "+25% CTR",
					Actions: []string{
						"Test new video formats",
						"A/B test headlines",
						"Refresh product imagery",
						"Review ad copy",
					},
				})
			}
			if ch.TotalClicks > 0 && ch.CPC > e.b.AdsCPCMax {
				out = append(out, Insight{
					Type:        "audience_optimization",
					Channel:     id,
					Priority:    "medium",
					Title:       fmt.Sprintf("Refine %s audiences", titleCase(id)),
					Description: fmt.Sprintf("CPC of $%.2f is above the $%.2f benchmark", ch.CPC, e.b.AdsCPCMax),
					Impact:      "-20% CPC",
					Actions: []string{
						"Tighten interest targeting",
						"Exclude low-performing audiences",
						"Test lookalike audiences",
						"Adjust automated bids",
					},
				})
			}
		case models.SourceEmail:
			if ch.AvgOpenRate > 0 && ch.AvgOpenRate < e.b.OpenRateMin {
				out = append(out, Insight{
					Type:        "deliverability_optimization",
					Channel:     id,
					Priority:    "medium",
					Title:       "Improve email open rate",
					Description: fmt.Sprintf("Open rate of %.1f%% is below the %.1f%% average", ch.AvgOpenRate, e.b.OpenRateMin),
					Impact:      "+15% open rate",
					Actions: []string{
						"Optimize subject lines",
						"Segment lists more tightly",
						"Prune inactive subscribers",
						"Test different send times",
					},
				})
			}
		}
	}
	return out
}

func (e *Engine) scaling(snap *models.Snapshot) []Insight {
	if snap.Overview.TotalSpend <= 0 {
		return nil
	}
	var out []Insight
	for _, id := range sortedChannels(snap) {
		ch := snap.Channels[id]
		switch {
		case ch.ROAS > e.b.ScaleUpROAS && ch.TotalSpend > e.b.ScaleUpSpend:
			out = append(out, Insight{
				Type:        "scale_up",
				Channel:     id,
				Priority:    "high",
				Title:       fmt.Sprintf("Scale %s", titleCase(id)),
				Description: fmt.Sprintf("ROAS of %.1fx on $%.0f spend leaves room to grow", ch.ROAS, ch.TotalSpend),
				Action:      "Increase budget by 50-100%",
				Impact:      fmt.Sprintf("Potential +$%.0f additional revenue", ch.TotalSpend*0.75),
			})
		case ch.TotalSpend > 0 && ch.ROAS < e.b.ScaleDownROAS:
			out = append(out, Insight{
				Type:        "scale_down",
				Channel:     id,
				Priority:    "high",
				Title:       fmt.Sprintf("Reduce spend on %s", titleCase(id)),
				Description: fmt.Sprintf("ROAS of %.1fx is below the %.1fx efficiency floor", ch.ROAS, e.b.ScaleDownROAS),
				Action:      "Pause or cut budget by 70%",
				Impact:      fmt.Sprintf("Save $%.0f of inefficient spend", ch.TotalSpend*0.7),
			})
		}
	}
	return out
}

func (e *Engine) budget(snap *models.Snapshot) []Insight {
	var out []Insight
	for _, rc := range snap.Performance.ChannelRanking {
		if rc.SpendPercentage > e.b.ConcentrationPct {
			out = append(out, Insight{
				Type:        "diversification",
				Channel:     rc.Channel,
				Priority:    "medium",
				Title:       "Budget concentration risk",
				Description: fmt.Sprintf("%s holds %.1f%% of total spend", titleCase(rc.Channel), rc.SpendPercentage),
				Action:      "Diversify into additional channels to reduce dependency",
			})
		}
		if rc.SpendPercentage > e.b.ReallocatePct && rc.ROAS > 0 && rc.ROAS < e.b.ROASWarn {
			out = append(out, Insight{
				Type:        "reallocation",
				Channel:     rc.Channel,
				Priority:    "high",
				Title:       fmt.Sprintf("Reallocate budget away from %s", titleCase(rc.Channel)),
				Description: fmt.Sprintf("%.1f%% of spend sits on a channel returning %.1fx", rc.SpendPercentage, rc.ROAS),
				Action:      "Shift budget toward higher-ROAS channels",
			})
		}
	}
	return out
}

func (e *Engine) anomalies(snap *models.Snapshot) []Insight {
	wow := snap.Trends.WeekOverWeek
	if wow == nil {
		return nil
	}
	var out []Insight
	if stat, ok := wow[models.FieldConversions]; ok && stat.Percentage <= e.b.ConversionDropPct {
		out = append(out, Insight{
			Type:        "critical",
			Priority:    "high",
			Title:       "Conversions dropped week over week",
			Description: fmt.Sprintf("Conversions fell %.1f%% versus the previous week", -stat.Percentage),
			Action:      "Verify landing pages and conversion tracking",
		})
	}
	if stat, ok := wow[models.FieldRevenue]; ok && stat.Percentage >= e.b.RevenueSpikePct {
		out = append(out, Insight{
			Type:        "positive",
			Priority:    "medium",
			Title:       "Revenue spiked week over week",
			Description: fmt.Sprintf("Revenue is up %.1f%% versus the previous week", stat.Percentage),
			Action:      "Identify what changed and replicate it",
		})
	}
	return out
}

func (e *Engine) audience(snap *models.Snapshot) []Insight {
	var out []Insight
	for _, id := range sortedChannels(snap) {
		ch := snap.Channels[id]
		if ch.SourceType == models.SourceEmail && ch.AvgOpenRate >= e.b.OpenRateMin+5 {
			out = append(out, Insight{
				Type:        "engagement",
				Channel:     id,
				Priority:    "low",
				Title:       "Highly engaged email audience",
				Description: fmt.Sprintf("Open rate of %.1f%% is well above average", ch.AvgOpenRate),
				Action:      "Use this list for launches and win-back campaigns",
			})
		}
		if ch.SourceType == models.SourceAds && ch.TotalClicks > 0 && ch.TotalConversions > 0 {
			cvr := ch.TotalConversions / ch.TotalClicks * 100
			if cvr < 2 {
				out = append(out, Insight{
					Type:        "conversion_gap",
					Channel:     id,
					Priority:    "medium",
					Title:       fmt.Sprintf("Clicks not converting on %s", titleCase(id)),
					Description: fmt.Sprintf("Conversion rate of %.1f%% suggests an audience/landing mismatch", cvr),
					Action:      "Align landing pages with the audiences being bought",
				})
			}
		}
	}
	return out
}

func sortedChannels(snap *models.Snapshot) []string {
	ids := make([]string, 0, len(snap.Channels))
	for id := range snap.Channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func titleCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

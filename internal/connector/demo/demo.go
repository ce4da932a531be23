// Package demo provides the simulated connectors used in demo mode. This is
// a deliberately separate code path: demo tables flow through the exact same
// normalize/aggregate pipeline as real sources, but nothing here is ever
// mixed into a non-demo run.
package demo

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/angelcm/marketing-pulse/internal/connector"
	"github.com/angelcm/marketing-pulse/internal/models"
)

// Source is a simulated platform that generates a plausible per-day table.
// Output is deterministic for a given (seed, id, days) triple so tests and
// repeated dashboard loads see identical data.
type Source struct {
	id   string
	typ  models.SourceType
	seed int64
	gen  func(r *rand.Rand, dates []time.Time) []map[string]any
}

func (s *Source) ID() string              { return s.id }
func (s *Source) Type() models.SourceType { return s.typ }
func (s *Source) IsConnected() bool       { return true }

func (s *Source) Fetch(ctx context.Context, days int) (*models.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = end.AddDate(0, 0, i-(days-1))
	}

	h := fnv.New64a()
	h.Write([]byte(s.id))
	r := rand.New(rand.NewSource(s.seed ^ int64(h.Sum64())))

	rows := s.gen(r, dates)
	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return &models.RawTable{Columns: cols, Rows: rows}, nil
}

// Register adds the full simulated portfolio to the registry.
func Register(reg *connector.Registry, seed int64) {
	reg.Register(Meta(seed), connector.Info{Name: "Meta Ads (Facebook/Instagram)", Category: "advertising", Priority: "high"})
	reg.Register(GoogleAds(seed), connector.Info{Name: "Google Ads", Category: "advertising", Priority: "high"})
	reg.Register(Shopify(seed), connector.Info{Name: "Shopify", Category: "ecommerce", Priority: "high"})
	reg.Register(Klaviyo(seed), connector.Info{Name: "Klaviyo", Category: "email", Priority: "medium"})
	reg.Register(GA4(seed), connector.Info{Name: "Google Analytics 4", Category: "analytics", Priority: "high"})
}

// Meta simulates a paid-social export: platform column names, not canonical
// ones, so the normalizer has real work to do.
func Meta(seed int64) *Source {
	return &Source{id: "meta", typ: models.SourceAds, seed: seed, gen: func(r *rand.Rand, dates []time.Time) []map[string]any {
		rows := make([]map[string]any, len(dates))
		for i, d := range dates {
			rows[i] = map[string]any{
				"date":             d.Format("2006-01-02"),
				"impressions":      10000 + r.Intn(40000),
				"reach":            8000 + r.Intn(27000),
				"clicks":           200 + r.Intn(1000),
				"spend":            uniform(r, 50, 300),
				"conversions":      5 + r.Intn(30),
				"conversion_value": uniform(r, 200, 1500),
				"frequency":        uniform(r, 1.1, 2.8),
			}
		}
		return rows
	}}
}

func GoogleAds(seed int64) *Source {
	return &Source{id: "google_ads", typ: models.SourceAds, seed: seed, gen: func(r *rand.Rand, dates []time.Time) []map[string]any {
		rows := make([]map[string]any, len(dates))
		for i, d := range dates {
			rows[i] = map[string]any{
				"date":             d.Format("2006-01-02"),
				"cost":             uniform(r, 80, 400),
				"impressions":      3000 + r.Intn(17000),
				"clicks":           100 + r.Intn(500),
				"conversions":      8 + r.Intn(32),
				"conversion_value": uniform(r, 200, 1200),
			}
		}
		return rows
	}}
}

func Shopify(seed int64) *Source {
	return &Source{id: "shopify", typ: models.SourceEcommerce, seed: seed, gen: func(r *rand.Rand, dates []time.Time) []map[string]any {
		rows := make([]map[string]any, len(dates))
		for i, d := range dates {
			orders := 15 + r.Intn(70)
			rows[i] = map[string]any{
				"date":          d.Format("2006-01-02"),
				"total_sales":   uniform(r, 800, 4000),
				"orders":        orders,
				"quantity":      orders + r.Intn(2*orders+1),
				"new_customers": 5 + r.Intn(25),
			}
		}
		return rows
	}}
}

func Klaviyo(seed int64) *Source {
	return &Source{id: "klaviyo", typ: models.SourceEmail, seed: seed, gen: func(r *rand.Rand, dates []time.Time) []map[string]any {
		rows := make([]map[string]any, len(dates))
		for i, d := range dates {
			sent := 1000 + r.Intn(4000)
			rows[i] = map[string]any{
				"date":           d.Format("2006-01-02"),
				"emails_sent":    sent,
				"emails_opened":  int(float64(sent) * uniform(r, 0.18, 0.32)),
				"emails_clicked": int(float64(sent) * uniform(r, 0.02, 0.07)),
				"unsubscribes":   2 + r.Intn(13),
				"bounces":        10 + r.Intn(40),
				"email_revenue":  uniform(r, 500, 3500),
			}
		}
		return rows
	}}
}

func GA4(seed int64) *Source {
	return &Source{id: "ga4", typ: models.SourceAnalytics, seed: seed, gen: func(r *rand.Rand, dates []time.Time) []map[string]any {
		rows := make([]map[string]any, len(dates))
		for i, d := range dates {
			rows[i] = map[string]any{
				"date":       d.Format("2006-01-02"),
				"sessions":   1200 + r.Intn(1300),
				"users":      800 + r.Intn(1000),
				"page_views": 3000 + r.Intn(5000),
				"goals":      20 + r.Intn(60),
			}
		}
		return rows
	}}
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

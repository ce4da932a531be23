// Package pipeline runs the fetch-normalize-aggregate pass and owns the
// snapshot cache. It is the explicit application context that replaces the
// implicit page-session state of the original dashboard.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/angelcm/marketing-pulse/internal/aggregate"
	"github.com/angelcm/marketing-pulse/internal/config"
	"github.com/angelcm/marketing-pulse/internal/connector"
	"github.com/angelcm/marketing-pulse/internal/models"
	"github.com/angelcm/marketing-pulse/internal/normalize"
	"github.com/angelcm/marketing-pulse/internal/store"
	"github.com/angelcm/marketing-pulse/internal/telemetry"
)

type Pipeline struct {
	reg   *connector.Registry
	norm  *normalize.Normalizer
	cache store.SnapshotCache
	tel   *telemetry.Metrics
	log   *slog.Logger
	cfg   config.Config
}

func New(reg *connector.Registry, norm *normalize.Normalizer, cache store.SnapshotCache, tel *telemetry.Metrics, log *slog.Logger, cfg config.Config) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{reg: reg, norm: norm, cache: cache, tel: tel, log: log, cfg: cfg}
}

type sourceResult struct {
	id    string
	table *models.NormalizedTable
	err   error
}

// maxConcurrentFetches caps the fan-out so a large registry cannot open an
// unbounded number of upstream connections at once.
const maxConcurrentFetches = 5

// Refresh runs a full pass: fan out over connected sources, normalize each
// result, aggregate the successes. Failures become snapshot warnings, never
// abort the pass, and never disturb the other sources' contributions. The
// finished snapshot replaces whatever the cache held.
func (p *Pipeline) Refresh(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()
	conns := p.reg.Connected()
	if p.tel != nil {
		p.tel.RefreshTotal.Inc()
		p.tel.ConnectedSources.Set(float64(len(conns)))
	}

	results := make([]sourceResult, len(conns))
	sem := make(chan struct{}, maxConcurrentFetches)
	var wg sync.WaitGroup
	for i, c := range conns {
		wg.Add(1)
		go func(i int, c connector.Connector) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.fetchAndNormalize(ctx, c)
		}(i, c)
	}
	wg.Wait()

	tables := make(map[string]*models.NormalizedTable)
	var warnings []models.SourceWarning
	for _, res := range results {
		if res.err != nil {
			p.log.Warn("source skipped", slog.String("source", res.id), slog.String("err", res.err.Error()))
			if p.tel != nil {
				p.tel.SourceFetchFailures.WithLabelValues(res.id).Inc()
			}
			warnings = append(warnings, models.SourceWarning{Source: res.id, Error: res.err.Error()})
			continue
		}
		if res.table == nil {
			continue
		}
		tables[res.id] = res.table
		if p.tel != nil {
			p.tel.SourceRows.WithLabelValues(res.id).Set(float64(len(res.table.Rows)))
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Source < warnings[j].Source })

	snap := aggregate.Aggregate(tables)
	snap.Demo = p.cfg.DemoMode
	snap.Warnings = warnings

	if err := p.cache.Put(ctx, snap); err != nil {
		// A dead cache should not take the dashboard down with it.
		p.log.Warn("snapshot cache put failed", slog.String("err", err.Error()))
	}
	if p.tel != nil {
		p.tel.RefreshDuration.Observe(time.Since(start).Seconds())
	}
	p.log.Info("refresh complete",
		slog.Int("sources", len(tables)),
		slog.Int("skipped", len(warnings)),
		slog.Duration("took", time.Since(start)))
	return snap, nil
}

// fetchAndNormalize is the per-source unit of work, bounded by FetchTimeout.
func (p *Pipeline) fetchAndNormalize(ctx context.Context, c connector.Connector) sourceResult {
	tctx := ctx
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}

	raw, err := c.Fetch(tctx, p.cfg.WindowDays)
	if err != nil {
		return sourceResult{id: c.ID(), err: err}
	}
	if raw.Empty() {
		// Nothing for the window: normal, not a warning.
		return sourceResult{id: c.ID()}
	}
	table, err := p.norm.Normalize(raw, c.ID(), c.Type())
	if err != nil {
		return sourceResult{id: c.ID(), err: err}
	}
	return sourceResult{id: c.ID(), table: table}
}

// Snapshot returns the cached snapshot or computes a fresh one.
func (p *Pipeline) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := p.cache.Get(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, store.ErrNoSnapshot) {
		p.log.Warn("snapshot cache get failed", slog.String("err", err.Error()))
	}
	return p.Refresh(ctx)
}

// Invalidate drops the cached snapshot so the next read recomputes.
func (p *Pipeline) Invalidate(ctx context.Context) error {
	return p.cache.Invalidate(ctx)
}

// Registry exposes the connector registry for status listings.
func (p *Pipeline) Registry() *connector.Registry { return p.reg }

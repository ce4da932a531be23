// Package normalize maps heterogeneous source tables onto the canonical
// metric vocabulary. One invocation produces one immutable NormalizedTable;
// the raw input is never mutated.
package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// dateSynonyms are the keywords that identify a date-like column when no
// exact "date" column exists.
var dateSynonyms = []string{"date", "fecha", "time"}

type Normalizer struct {
	maps Mappings
	log  *slog.Logger
	now  func() time.Time
}

func New(maps Mappings, log *slog.Logger) *Normalizer {
	if maps == nil {
		maps = Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{maps: maps, log: log, now: time.Now}
}

// WithClock overrides the clock used for processed-at stamps and synthetic
// date sequences. Test seam.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize maps raw onto the canonical vocabulary for the given source type.
// A nil or zero-row table comes back tagged with metadata but otherwise
// untouched; an unparseable date cell is an error (the caller treats it as a
// source failure and skips the source).
func (n *Normalizer) Normalize(raw *models.RawTable, sourceID string, st models.SourceType) (*models.NormalizedTable, error) {
	out := &models.NormalizedTable{
		SourceID:    sourceID,
		SourceType:  st,
		ProcessedAt: n.now(),
		Fields:      make(map[models.Field]bool),
	}
	if raw.Empty() {
		return out, nil
	}

	dates, synthetic, err := n.resolveDates(raw, sourceID)
	if err != nil {
		return nil, err
	}
	out.SyntheticDates = synthetic

	numeric := func(col string) bool { return columnNumeric(raw, col) }
	cols := n.maps.resolve(st, raw.Columns, numeric)
	for f := range cols {
		out.Fields[f] = true
	}

	out.Rows = make([]models.CanonicalRow, len(raw.Rows))
	for i, rr := range raw.Rows {
		row := models.CanonicalRow{Date: dates[i], Values: make(map[models.Field]float64, len(cols))}
		for f, col := range cols {
			if v, ok := toFloat(rr[col]); ok {
				row.Values[f] = v
			}
		}
		out.Rows[i] = row
	}

	switch st {
	case models.SourceEcommerce:
		backfillRatio(out, models.FieldAOV, models.FieldRevenue, models.FieldOrders, 1)
	case models.SourceEmail:
		backfillRatio(out, models.FieldOpenRate, models.FieldOpens, models.FieldEmailsSent, 100)
		backfillRatio(out, models.FieldClickRate, models.FieldClicks, models.FieldEmailsSent, 100)
	}

	return out, nil
}

// resolveDates finds or fabricates the per-row date sequence. The fabricated
// sequence is a known limitation inherited from the sources that export no
// dates at all: it assumes rows are one per day ending today, which may not
// line up with reality. It is surfaced via SyntheticDates and a WARN so trend
// consumers can decide what to trust.
func (n *Normalizer) resolveDates(raw *models.RawTable, sourceID string) ([]time.Time, bool, error) {
	col, ok := dateColumn(raw.Columns)
	if !ok {
		end := dayUTC(n.now())
		dates := make([]time.Time, len(raw.Rows))
		for i := range dates {
			dates[i] = end.AddDate(0, 0, i-(len(dates)-1))
		}
		n.log.Warn("no date column found, synthesizing daily sequence",
			slog.String("source", sourceID), slog.Int("rows", len(dates)))
		return dates, true, nil
	}

	dates := make([]time.Time, len(raw.Rows))
	for i, rr := range raw.Rows {
		d, err := toDate(rr[col])
		if err != nil {
			return nil, false, fmt.Errorf("source %s row %d: %w", sourceID, i, err)
		}
		dates[i] = d
	}
	return dates, false, nil
}

func dateColumn(columns []string) (string, bool) {
	for _, c := range columns {
		if strings.EqualFold(c, "date") {
			return c, true
		}
	}
	for _, c := range columns {
		lc := strings.ToLower(c)
		for _, syn := range dateSynonyms {
			if strings.Contains(lc, syn) {
				return c, true
			}
		}
	}
	return "", false
}

// backfillRatio adds dst = num/den (scaled) row-wise when dst is absent and
// both inputs are present. A zero denominator yields NaN on purpose: the
// value is undefined there and substituting 0 would skew downstream means.
func backfillRatio(t *models.NormalizedTable, dst, num, den models.Field, scale float64) {
	if t.Has(dst) || !t.Has(num) || !t.Has(den) {
		return
	}
	for i := range t.Rows {
		nv, nok := t.Rows[i].Get(num)
		dv, dok := t.Rows[i].Get(den)
		if !nok || !dok {
			continue
		}
		if dv == 0 {
			t.Rows[i].Values[dst] = math.NaN()
			continue
		}
		t.Rows[i].Values[dst] = nv / dv * scale
	}
	t.Fields[dst] = true
}

func columnNumeric(raw *models.RawTable, col string) bool {
	for _, rr := range raw.Rows {
		v, present := rr[col]
		if !present || v == nil {
			continue
		}
		_, ok := toFloat(v)
		return ok
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return dayUTC(x), nil
	case string:
		s := strings.TrimSpace(x)
		if d, err := time.Parse("2006-01-02", s); err == nil {
			return d.UTC(), nil
		}
		if d, err := time.Parse(time.RFC3339, s); err == nil {
			return dayUTC(d), nil
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	default:
		return time.Time{}, fmt.Errorf("unparseable date value %v", v)
	}
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

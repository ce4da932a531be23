package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// minTrendRows is the history below which trend analysis has no signal.
const minTrendRows = 7

// Quality summarizes the trustworthiness of the current snapshot: how many
// sources contributed, their date coverage, and anything that should make a
// reader squint at the numbers.
func (p *Pipeline) Quality(ctx context.Context) (*models.QualityReport, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return buildQualityReport(snap, len(p.reg.Statuses())), nil
}

func buildQualityReport(snap *models.Snapshot, totalSources int) *models.QualityReport {
	report := &models.QualityReport{
		TotalSources: totalSources,
		Completeness: make(map[string]models.SourceQuality, len(snap.Sources)),
	}

	ids := make([]string, 0, len(snap.Sources))
	for id := range snap.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		st := snap.Sources[id]
		if st.Records == 0 {
			continue
		}
		report.ActiveSources++

		q := models.SourceQuality{
			TotalRecords:   st.Records,
			SyntheticDates: st.SyntheticDates,
			DateRange:      "N/A",
		}
		if !st.From.IsZero() {
			q.DateRange = fmt.Sprintf("%s - %s", st.From.Format("2006-01-02"), st.To.Format("2006-01-02"))
		}
		report.Completeness[id] = q

		if st.Records <= minTrendRows {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: insufficient history for trend analysis (%d rows)", id, st.Records))
		}
		if st.SyntheticDates {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: dates were synthesized, temporal alignment is a guess", id))
		}
	}
	for _, w := range snap.Warnings {
		report.Issues = append(report.Issues, fmt.Sprintf("%s: skipped (%s)", w.Source, w.Error))
	}

	if report.ActiveSources < 3 {
		report.Recommendations = append(report.Recommendations, "Connect more data sources for a fuller view of performance")
	}
	if len(report.Issues) > 0 {
		report.Recommendations = append(report.Recommendations, "Review source data quality and fill in missing history")
	}

	score := float64(report.ActiveSources)/5*100 - float64(len(report.Issues))*10
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	report.OverallScore = score
	return report
}

// Package httpx wires the HTTP surface: routing, middleware and the JSON
// views over the pipeline's snapshot.
package httpx

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/angelcm/marketing-pulse/internal/insight"
	"github.com/angelcm/marketing-pulse/internal/kpi"
	"github.com/angelcm/marketing-pulse/internal/models"
	"github.com/angelcm/marketing-pulse/internal/pipeline"
	"github.com/angelcm/marketing-pulse/internal/telemetry"
	"github.com/angelcm/marketing-pulse/internal/utils"
)

type Server struct {
	pipe       *pipeline.Pipeline
	insights   *insight.Engine
	thresholds kpi.Thresholds
	tel        *telemetry.Metrics
	log        *slog.Logger
}

func NewServer(pipe *pipeline.Pipeline, eng *insight.Engine, th kpi.Thresholds, tel *telemetry.Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{pipe: pipe, insights: eng, thresholds: th, tel: tel, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(utils.RequestID)
	r.Use(utils.Logger(s.log))
	if s.tel != nil {
		r.Use(s.tel.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", s.handleReady)
	if s.tel != nil {
		r.Method(http.MethodGet, "/metrics", s.tel.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/refresh", s.handleRefresh)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/overview", s.handleOverview)
		r.Get("/channels", s.handleChannels)
		r.Get("/trends", s.handleTrends)
		r.Get("/performance", s.handlePerformance)
		r.Get("/kpis", s.handleKPIs)
		r.Get("/charts", s.handleCharts)
		r.Get("/insights", s.handleInsights)
		r.Get("/quality", s.handleQuality)
		r.Get("/sources", s.handleSources)
		r.Get("/export.csv", s.handleExportCSV)
	})
	return r
}

// handleReady reports ready once at least one snapshot can be produced.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.pipe.Snapshot(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleRefresh forces a new aggregation pass, ignoring the cache.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.pipe.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_id":  snap.ID,
		"generated_at": snap.GeneratedAt,
		"sources":      len(snap.Channels),
		"warnings":     snap.Warnings,
	})
}

// handleDashboard returns everything a single page load needs.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.pipe.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":    snap,
		"kpis":        kpi.Cards(snap),
		"charts":      kpi.BuildCharts(snap, s.thresholds),
		"insights":    s.insights.Analyze(snap),
		"connections": s.pipe.Registry().Statuses(),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *models.Snapshot) any { return snap.Overview })
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *models.Snapshot) any { return snap.Channels })
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *models.Snapshot) any { return snap.Trends })
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *models.Snapshot) any { return snap.Performance })
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *models.Snapshot) any { return kpi.Cards(snap) })
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *models.Snapshot) any { return kpi.BuildCharts(snap, s.thresholds) })
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *models.Snapshot) any { return s.insights.Analyze(snap) })
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	report, err := s.pipe.Quality(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	reg := s.pipe.Registry()
	writeJSON(w, http.StatusOK, map[string]any{
		"sources":    reg.Statuses(),
		"categories": reg.CountsByCategory(),
	})
}

// handleExportCSV streams the daily totals as a flat CSV, one row per day.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := s.pipe.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	fields := models.BaseFields()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=daily-totals-%s.csv", time.Now().UTC().Format("2006-01-02")))

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(fields)+1)
	header = append(header, "date")
	for _, f := range fields {
		header = append(header, string(f))
	}
	_ = cw.Write(header)

	for _, d := range snap.Trends.Daily {
		rec := make([]string, 0, len(fields)+1)
		rec = append(rec, d.Date.Format("2006-01-02"))
		for _, f := range fields {
			if v, ok := d.Values[f]; ok {
				rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		_ = cw.Write(rec)
	}
	cw.Flush()
}

func (s *Server) withSnapshot(w http.ResponseWriter, r *http.Request, view func(*models.Snapshot) any) {
	snap, err := s.pipe.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, view(snap))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

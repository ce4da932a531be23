package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/angelcm/marketing-pulse/internal/config"
	"github.com/angelcm/marketing-pulse/internal/connector"
	"github.com/angelcm/marketing-pulse/internal/connector/demo"
	"github.com/angelcm/marketing-pulse/internal/httpx"
	"github.com/angelcm/marketing-pulse/internal/insight"
	"github.com/angelcm/marketing-pulse/internal/kpi"
	"github.com/angelcm/marketing-pulse/internal/models"
	"github.com/angelcm/marketing-pulse/internal/normalize"
	"github.com/angelcm/marketing-pulse/internal/pipeline"
	"github.com/angelcm/marketing-pulse/internal/store"
	"github.com/angelcm/marketing-pulse/internal/telemetry"
)

func main() {
	cfg := config.FromEnv()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	reg := connector.NewRegistry()
	if cfg.DemoMode {
		demo.Register(reg, cfg.DemoSeed)
		log.Info("demo mode: simulated sources registered", slog.Int64("seed", cfg.DemoSeed))
	} else {
		if cfg.SourcesFile == "" {
			log.Error("no SOURCES_FILE configured and DEMO_MODE is off")
			os.Exit(1)
		}
		specs, err := config.LoadSources(cfg.SourcesFile)
		if err != nil {
			log.Error("loading sources", slog.String("err", err.Error()))
			os.Exit(1)
		}
		client := connector.NewHTTPClient(cfg.HTTPTimeout)
		for _, sp := range specs {
			c := connector.NewHTTP(sp.ID, models.SourceType(sp.Type), sp.URL, client)
			reg.Register(c, connector.Info{Name: sp.ID, Category: string(c.Type()), Priority: "medium"})
		}
	}

	maps := normalize.Default()
	if cfg.MappingsFile != "" {
		m, err := normalize.LoadFile(cfg.MappingsFile)
		if err != nil {
			log.Error("loading mappings", slog.String("err", err.Error()))
			os.Exit(1)
		}
		maps = m
	}
	norm := normalize.New(maps, log)

	var cache store.SnapshotCache
	if cfg.RedisAddr != "" {
		cache = store.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.CacheTTL)
		log.Info("using redis snapshot cache", slog.String("addr", cfg.RedisAddr))
	} else {
		cache = store.NewMemoryCache(cfg.CacheTTL)
	}

	tel := telemetry.New("marketing_pulse")
	pipe := pipeline.New(reg, norm, cache, tel, log, cfg)
	eng := insight.NewEngine(benchmarksFrom(cfg))
	th := kpi.Thresholds{ROASBenchmark: cfg.ROASBenchmark, ROASGood: cfg.ROASGood, ROASWarn: cfg.ROASWarn}

	srv := httpx.NewServer(pipe, eng, th, tel, log)

	addr := ":" + cfg.Port
	log.Info("listening", slog.String("addr", addr))
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: cfg.HTTPTimeout,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Error("server stopped", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func benchmarksFrom(cfg config.Config) insight.Benchmarks {
	b := insight.DefaultBenchmarks()
	b.ROASGood = cfg.ROASGood
	b.ROASWarn = cfg.ROASWarn
	return b
}

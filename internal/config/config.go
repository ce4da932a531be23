package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/angelcm/marketing-pulse/internal/models"
)

type Config struct {
	Port        string
	HTTPTimeout time.Duration
	// FetchTimeout bounds one source's fetch so a stalled platform cannot
	// hold the whole aggregation pass hostage.
	FetchTimeout time.Duration
	WindowDays   int
	CacheTTL     time.Duration
	RedisAddr    string
	DemoMode     bool
	DemoSeed     int64
	SourcesFile  string
	MappingsFile string
	// ROAS grading used by charts and insights. Business defaults, not
	// constants: override per deployment.
	ROASBenchmark float64
	ROASGood      float64
	ROASWarn      float64
	LogLevel      slog.Level
}

func FromEnv() Config {
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	return Config{
		Port:          envOr("PORT", "8080"),
		HTTPTimeout:   envSeconds("HTTP_TIMEOUT_SECONDS", 15*time.Second),
		FetchTimeout:  envSeconds("FETCH_TIMEOUT_SECONDS", 10*time.Second),
		WindowDays:    envInt("WINDOW_DAYS", 30),
		CacheTTL:      envSeconds("CACHE_TTL_SECONDS", 5*time.Minute),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		DemoMode:      os.Getenv("DEMO_MODE") == "true",
		DemoSeed:      int64(envInt("DEMO_SEED", 1)),
		SourcesFile:   os.Getenv("SOURCES_FILE"),
		MappingsFile:  os.Getenv("MAPPINGS_FILE"),
		ROASBenchmark: envFloat("ROAS_BENCHMARK", 3.0),
		ROASGood:      envFloat("ROAS_GOOD", 3.0),
		ROASWarn:      envFloat("ROAS_WARN", 2.0),
		LogLevel:      lvl,
	}
}

// SourceSpec configures one HTTP-bridged source.
type SourceSpec struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
}

type sourcesFile struct {
	Sources []SourceSpec `yaml:"sources"`
}

// LoadSources reads the YAML source list used outside demo mode.
func LoadSources(path string) ([]SourceSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}
	var f sourcesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}
	for i, s := range f.Sources {
		if s.ID == "" || s.URL == "" {
			return nil, fmt.Errorf("sources file: entry %d missing id or url", i)
		}
		switch models.SourceType(s.Type) {
		case models.SourceAds, models.SourceEcommerce, models.SourceEmail, models.SourceAnalytics, models.SourceGeneric:
		default:
			return nil, fmt.Errorf("sources file: entry %d has unknown type %q", i, s.Type)
		}
	}
	return f.Sources, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envSeconds(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			return d
		}
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// pulsectl runs the aggregation pipeline in-process and prints the results,
// useful for eyeballing the numbers without standing up the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/angelcm/marketing-pulse/internal/config"
	"github.com/angelcm/marketing-pulse/internal/connector"
	"github.com/angelcm/marketing-pulse/internal/connector/demo"
	"github.com/angelcm/marketing-pulse/internal/insight"
	"github.com/angelcm/marketing-pulse/internal/kpi"
	"github.com/angelcm/marketing-pulse/internal/models"
	"github.com/angelcm/marketing-pulse/internal/normalize"
	"github.com/angelcm/marketing-pulse/internal/pipeline"
	"github.com/angelcm/marketing-pulse/internal/store"
)

type commonOpts struct {
	Days int   `long:"days" default:"30" description:"Trailing window in days"`
	Seed int64 `long:"seed" default:"1" description:"Demo data seed"`
	JSON bool  `long:"json" description:"Emit raw JSON instead of text"`
}

type reportCmd struct {
	commonOpts
}

type insightsCmd struct {
	commonOpts
}

func main() {
	parser := flags.NewNamedParser("pulsectl", flags.Default)
	_, _ = parser.AddCommand("report", "Print the dashboard summary", "Runs a demo aggregation pass and prints overview, channels and trends.", &reportCmd{})
	_, _ = parser.AddCommand("insights", "Print the recommendation report", "Runs a demo aggregation pass and prints every insight rule that fired.", &insightsCmd{})
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}

func runPipeline(days int, seed int64) (*models.Snapshot, error) {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	reg := connector.NewRegistry()
	demo.Register(reg, seed)

	cfg := config.FromEnv()
	cfg.WindowDays = days
	cfg.DemoMode = true
	cfg.DemoSeed = seed

	pipe := pipeline.New(reg, normalize.New(nil, log), store.NewMemoryCache(0), nil, log, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return pipe.Refresh(ctx)
}

func (c *reportCmd) Execute(_ []string) error {
	snap, err := runPipeline(c.Days, c.Seed)
	if err != nil {
		return err
	}
	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(snap)
	}

	o := snap.Overview
	fmt.Printf("Marketing summary (%d days, %d channels)\n\n", c.Days, len(snap.Channels))
	fmt.Printf("  Spend        $%.2f\n", o.TotalSpend)
	fmt.Printf("  Revenue      $%.2f\n", o.TotalRevenue)
	fmt.Printf("  ROAS         %.2fx\n", o.OverallROAS)
	fmt.Printf("  Conversions  %d\n", o.TotalConversions)
	fmt.Printf("  CTR          %.2f%%\n\n", o.OverallCTR)

	for _, card := range kpi.Cards(snap) {
		if card.TrendPct != nil {
			fmt.Printf("  %-14s %+.1f%% week over week\n", card.Label, *card.TrendPct)
		}
	}

	fmt.Println("\nChannel ranking:")
	for i, rc := range snap.Performance.ChannelRanking {
		fmt.Printf("  %d. %-12s ROAS %.2fx  spend $%.2f (%.1f%%)\n", i+1, rc.Channel, rc.ROAS, rc.Spend, rc.SpendPercentage)
	}

	ids := make([]string, 0, len(snap.Channels))
	for id := range snap.Channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Println("\nChannels:")
	for _, id := range ids {
		ch := snap.Channels[id]
		fmt.Printf("  %-12s (%s)  revenue $%.2f", id, ch.SourceType, ch.TotalRevenue)
		if ch.RevenueTrendPct != nil {
			fmt.Printf("  trend %+.1f%%", *ch.RevenueTrendPct)
		}
		fmt.Println()
	}

	for _, w := range snap.Warnings {
		fmt.Printf("\nwarning: %s skipped: %s\n", w.Source, w.Error)
	}
	return nil
}

func (c *insightsCmd) Execute(_ []string) error {
	snap, err := runPipeline(c.Days, c.Seed)
	if err != nil {
		return err
	}
	report := insight.NewEngine(insight.DefaultBenchmarks()).Analyze(snap)
	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	printSection("Performance", report.PerformanceInsights)
	printSection("Optimization", report.OptimizationOpportunities)
	printSection("Scaling", report.ScalingRecommendations)
	printSection("Budget", report.BudgetRecommendations)
	printSection("Anomalies", report.AnomalyAlerts)
	printSection("Audience", report.AudienceInsights)
	return nil
}

func printSection(name string, items []insight.Insight) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", name)
	for _, in := range items {
		fmt.Printf("  [%s] %s\n      %s\n", in.Priority, in.Title, in.Description)
		if in.Action != "" {
			fmt.Printf("      -> %s\n", in.Action)
		}
		for _, a := range in.Actions {
			fmt.Printf("      -> %s\n", a)
		}
	}
	fmt.Println()
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gramlens/internal/cmdlog"
	"gramlens/internal/config"
	"gramlens/internal/igclient"
	"gramlens/internal/jobs"
	"gramlens/internal/metrics"
	"gramlens/internal/report"
	"gramlens/internal/schedule"
	"gramlens/internal/store/sqlitestore"
	"gramlens/internal/theme"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "collect":
		cmdCollect()
	case "report":
		cmdReport()
	case "analyze":
		cmdAnalyze()
	case "schedule":
		cmdSchedule()
	case "monitor":
		cmdMonitor()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: gramlens <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./gramlens.yaml")
	fmt.Println("  collect     Walk the follow graph and store posts/snapshots")
	fmt.Println("  report      Generate and store the full engagement report")
	fmt.Println("  analyze     Print temporal and category breakdowns")
	fmt.Println("  schedule    Show the next recommended posting window")
	fmt.Println("  monitor     Serve metrics and collect on an interval")
}

func mustLoadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Println("error loading config:", err)
		os.Exit(1)
	}
	if cfg.Account.Username == "" {
		fmt.Println("error: account.username not set in", path)
		os.Exit(1)
	}
	return cfg
}

func loadClient(cfg config.Config) *igclient.HTTPClient {
	if cfg.Credentials.SessionToken == "" {
		fmt.Println("warning: missing IG_SESSION_TOKEN; API calls will fail")
	}
	return igclient.NewHTTPClient(cfg.Credentials.SessionToken)
}

func cmdInit() {
	out := flag.NewFlagSet("init", flag.ExitOnError)
	path := out.String("path", "./gramlens.yaml", "path to write config")
	_ = out.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdCollect() {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	cfgPath := fs.String("config", "./gramlens.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("collect", func() error {
		db, err := sqlitestore.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		return jobs.RunCollectOnce(context.Background(), db, loadClient(cfg), cfg)
	})
}

func cmdReport() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	cfgPath := fs.String("config", "./gramlens.yaml", "config path")
	asJSON := fs.Bool("json", false, "print the full report as JSON")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("report", func() error {
		r, err := jobs.RunReportOnce(context.Background(), cfg)
		if err != nil {
			return err
		}
		if *asJSON {
			b, _ := json.MarshalIndent(r, "", "  ")
			fmt.Println(string(b))
			return nil
		}
		theme.PrintBanner()
		fmt.Printf("Report %s for @%s (generated %s)\n", r.ID, r.Username, r.GeneratedAt.Format(time.RFC3339))
		if r.NetworkSummary.Partial {
			fmt.Println("note: network summary is partial")
		}
		for _, n := range r.Notes {
			fmt.Println("note:", n)
		}
		fmt.Println("Recommendations:")
		for i, rec := range r.Recommendations {
			fmt.Printf("  %d. [%s] %s (score %.3f)\n", i+1, rec.Signal, rec.Text, rec.Score)
		}
		return nil
	})
}

func cmdAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfgPath := fs.String("config", "./gramlens.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("analyze", func() error {
		db, err := sqlitestore.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		r, err := report.Build(context.Background(), db, cfg)
		if err != nil {
			return err
		}
		fmt.Println("Category preferences:")
		for _, c := range r.ContentPreferences {
			fmt.Printf("  %-14s %3d posts  share %.2f  mean rate %.4f\n", c.Category, c.Posts, c.Share, c.MeanRate)
		}
		fmt.Println("Hour buckets (ranked):")
		for _, b := range r.TemporalRecommendations.HourBuckets {
			fmt.Printf("  %02d:00  %3d posts  mean rate %.4f\n", b.Key, b.Posts, b.MeanRate)
		}
		fmt.Println("Top hashtags:")
		for _, h := range r.HashtagStats {
			fmt.Printf("  #%-20s x%-3d avg likes %.0f\n", h.Hashtag, h.Frequency, h.AvgLikes)
		}
		return nil
	})
}

func cmdSchedule() {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	cfgPath := fs.String("config", "./gramlens.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("schedule", func() error {
		db, err := sqlitestore.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		r, err := report.Build(context.Background(), db, cfg)
		if err != nil {
			return err
		}
		next := schedule.NextPostWindow(time.Now().UTC(), r.TemporalRecommendations.HourBuckets, cfg.Schedule.QuietHours)
		fmt.Println("Next posting window:", next.Format(time.RFC3339))
		return nil
	})
}

func cmdMonitor() {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	cfgPath := fs.String("config", "./gramlens.yaml", "config path")
	interval := fs.Duration("interval", time.Hour, "collection interval")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("monitor", func() error {
		metrics.StartServer(cfg.Metrics.Addr)
		db, err := sqlitestore.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err = jobs.RunCollectLoop(ctx, db, loadClient(cfg), cfg, *interval)
		if err == context.Canceled {
			return nil
		}
		return err
	})
}

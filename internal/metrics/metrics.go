package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CollectRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gramlens_collect_runs_total",
		Help: "Total collection runs",
	})
	CollectErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gramlens_collect_errors_total",
		Help: "Total collection errors",
	})
	CollectDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gramlens_collect_duration_seconds",
		Help:    "Collection run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	ReportRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gramlens_report_runs_total",
		Help: "Total report generations",
	})
	ReportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gramlens_report_duration_seconds",
		Help:    "Report generation duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	NetworkNodes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gramlens_network_nodes_total",
		Help: "Total users discovered by graph traversal",
	})
	SkippedPosts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gramlens_skipped_posts_total",
		Help: "Posts skipped due to invalid raw counts",
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gramlens_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gramlens_command_runs_total",
		Help: "Total command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gramlens_command_errors_total",
		Help: "Total command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(
		CollectRuns, CollectErrors, CollectDuration,
		ReportRuns, ReportDuration,
		NetworkNodes, SkippedPosts, APIRetries,
		CommandRuns, CommandErrors,
	)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveCollectDuration records a collection run duration.
func ObserveCollectDuration(start time.Time) {
	CollectDuration.Observe(time.Since(start).Seconds())
}

// ObserveReportDuration records a report generation duration.
func ObserveReportDuration(start time.Time) {
	ReportDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

// IncCommandRun increments the invocation counter for a CLI command.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError increments the failure counter for a CLI command.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }

// Package metrics 报表运行指标（Prometheus）
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aerokpi/internal/model"
)

// Recorder 运行指标记录器；每个实例持有独立的 registry
type Recorder struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	rows     *prometheus.CounterVec
	days     prometheus.Gauge
}

// New 创建记录器并注册指标
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aerokpi",
			Name:      "report_runs_total",
			Help:      "Report runs by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aerokpi",
			Name:      "report_duration_seconds",
			Help:      "Wall time of a report run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aerokpi",
			Name:      "source_rows_total",
			Help:      "Source rows by source and outcome (used, filtered, dropped).",
		}, []string{"source", "outcome"}),
		days: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aerokpi",
			Name:      "report_last_days",
			Help:      "Days in the consolidated table of the last successful run.",
		}),
	}
	r.registry.MustRegister(
		r.runs, r.duration, r.rows, r.days,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRun 记录一次运行
func (r *Recorder) ObserveRun(report *model.Report, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case report.NoData():
		status = "empty"
	}
	r.runs.WithLabelValues(status).Inc()
	r.duration.Observe(elapsed.Seconds())
	if err != nil || report == nil {
		return
	}

	if report.Daily != nil {
		r.days.Set(float64(len(report.Daily.Rows)))
	}
	for _, s := range report.Sources {
		if !s.Provided {
			continue
		}
		source := string(s.Source)
		r.rows.WithLabelValues(source, "used").Add(float64(s.RowsUsed))
		r.rows.WithLabelValues(source, "filtered").Add(float64(s.RowsFiltered))
		r.rows.WithLabelValues(source, "dropped").Add(float64(s.RowsDropped))
	}
}

// Handler /metrics 处理器
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Package metrics exposes Prometheus instruments for generation jobs and HTTP
// traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genstudio/internal/domain"
)

// Collector owns its registry so several instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	generationsTotal *prometheus.CounterVec
	videoPollsTotal  prometheus.Counter
	videoJobDuration *prometheus.HistogramVec
	videoJobPolls    prometheus.Histogram
	videoJobsActive  prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Generation requests by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		videoPollsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "video_polls_total",
				Help:      "Status checks issued for video operations",
			},
		),
		videoJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "video_job_duration_seconds",
				Help:      "Wall time of video jobs from submission to resolution",
				Buckets:   []float64{10, 30, 60, 120, 180, 300, 600, 1200},
			},
			[]string{"state"},
		),
		videoJobPolls: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "video_job_polls",
				Help:      "Status checks per finished video job",
				Buckets:   prometheus.LinearBuckets(0, 3, 10),
			},
		),
		videoJobsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "video_jobs_active",
				Help:      "Video jobs currently running",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordGeneration counts a single-shot or video outcome. A nil err counts as
// success.
func (c *Collector) RecordGeneration(kind domain.RequestKind, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	c.generationsTotal.WithLabelValues(string(kind), outcome).Inc()
}

func (c *Collector) JobStarted() {
	c.videoJobsActive.Inc()
}

func (c *Collector) ObservePoll() {
	c.videoPollsTotal.Inc()
}

func (c *Collector) ObserveJob(state domain.JobState, kind domain.ErrorKind, polls int, elapsed time.Duration) {
	c.videoJobsActive.Dec()
	c.videoJobDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
	c.videoJobPolls.Observe(float64(polls))
	outcome := "success"
	if kind != "" {
		outcome = string(kind)
	}
	c.generationsTotal.WithLabelValues(string(domain.RequestVideo), outcome).Inc()
}

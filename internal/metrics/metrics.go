package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "gilts_"

	ResultSuccess = "success"
	ResultError   = "error"

	RefreshPrices = "prices"
	RefreshList   = "list"
)

var (
	registerOnce sync.Once

	refreshTotal   *prometheus.CounterVec
	refreshLatency *prometheus.HistogramVec
	giltsListed    prometheus.Gauge
	pricesAge      prometheus.Gauge
	priceSources   *prometheus.GaugeVec
	yieldMissing   prometheus.Counter
	httpRequests   *prometheus.CounterVec
)

// Init registers the monitor metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		refreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "refresh_total",
				Help: "Total refreshes by kind and result",
			},
			[]string{"kind", "result"},
		)
		refreshLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "refresh_latency_seconds",
				Help:    "Refresh latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)
		giltsListed = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "listed",
				Help: "Number of gilts in the list",
			},
		)
		pricesAge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "prices_timestamp_seconds",
				Help: "Unix time of the last successful price refresh",
			},
		)
		priceSources = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "prices_by_source",
				Help: "Gilts priced from each source in the last refresh",
			},
			[]string{"source"},
		)
		yieldMissing = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "yield_unsolved_total",
				Help: "Total valuations where no yield could be solved",
			},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status",
			},
			[]string{"route", "status"},
		)

		prometheus.MustRegister(
			refreshTotal,
			refreshLatency,
			giltsListed,
			pricesAge,
			priceSources,
			yieldMissing,
			httpRequests,
		)
	})
}

// ObserveRefresh records a refresh duration and result.
func ObserveRefresh(kind string, err error, duration time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	if refreshTotal != nil {
		refreshTotal.WithLabelValues(kind, result).Inc()
	}
	if refreshLatency != nil {
		refreshLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

func SetGiltsListed(n int) {
	if giltsListed != nil {
		giltsListed.Set(float64(n))
	}
}

// SetPrices records when prices were refreshed and how many came from each source.
func SetPrices(at time.Time, bySource map[string]int) {
	if pricesAge != nil {
		pricesAge.Set(float64(at.Unix()))
	}
	if priceSources != nil {
		priceSources.Reset()
		for source, n := range bySource {
			priceSources.WithLabelValues(source).Set(float64(n))
		}
	}
}

func IncYieldMissing() {
	if yieldMissing != nil {
		yieldMissing.Inc()
	}
}

func ObserveHTTP(route string, status int) {
	if route == "" {
		route = "unknown"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dim"

var (
	ProviderCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "cache_requests_total",
		Help:      "Metadata provider requests by cache outcome (hit, miss, coalesced).",
	}, []string{"outcome"})

	ProviderCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "cache_evictions_total",
		Help:      "Cached provider responses evicted to stay under the memory limit.",
	})

	ProviderCacheBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "cache_bytes",
		Help:      "Approximate size of cached provider responses.",
	})

	CDCEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cdc",
		Name:      "events_total",
		Help:      "Committed row changes delivered by the change reactor.",
	}, []string{"table", "kind"})

	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "subscribers",
		Help:      "Authenticated websocket subscribers.",
	})

	ScannedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scanner",
		Name:      "files_total",
		Help:      "Files processed by the scanner by result.",
	}, []string{"result"})

	Matches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matcher",
		Name:      "matches_total",
		Help:      "Match attempts by media type and result.",
	}, []string{"media_type", "result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Api requests by route template and status code.",
	}, []string{"route", "code"})

	AssetFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fetcher",
		Name:      "fetches_total",
		Help:      "Asset downloads by result.",
	}, []string{"result"})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the page service.
type Metrics struct {
	// Forecast loader metrics.
	ForecastLoads         *prometheus.CounterVec // labels: outcome={rendered,fallback}
	ForecastFetchDuration prometheus.Histogram
	ForecastDays          prometheus.Gauge

	SectionSwitches *prometheus.CounterVec // labels: section
	MapResizes      prometheus.Counter

	SearchesDebounced prometheus.Counter
	SearchesHandled   prometheus.Counter

	Notifications   prometheus.Counter
	PagesOpen       prometheus.Gauge
	AnalyticsEvents *prometheus.CounterVec // labels: event, outcome={tracked,error}

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: method={forward,reverse}, result={hit,miss}
	GeocodeEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ForecastLoads,
		m.ForecastFetchDuration,
		m.ForecastDays,
		m.SectionSwitches,
		m.MapResizes,
		m.SearchesDebounced,
		m.SearchesHandled,
		m.Notifications,
		m.PagesOpen,
		m.AnalyticsEvents,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ForecastLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "forecast_loads_total",
			Help:      "Forecast loads by outcome.",
		}, []string{"outcome"}),
		ForecastFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shoresquad",
			Name:      "forecast_fetch_duration_seconds",
			Help:      "Duration of the upstream forecast request, including parsing.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ForecastDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shoresquad",
			Name:      "forecast_days",
			Help:      "Number of forecast cards currently rendered.",
		}),
		SectionSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "section_switches_total",
			Help:      "Section navigations by target section.",
		}, []string{"section"}),
		MapResizes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "map_resizes_total",
			Help:      "Deferred map layout recomputations fired.",
		}),
		SearchesDebounced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "search_inputs_total",
			Help:      "Search input events received before debouncing.",
		}),
		SearchesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "searches_total",
			Help:      "Search handler invocations after debouncing.",
		}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "notifications_total",
			Help:      "Notifications shown to the user.",
		}),
		PagesOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shoresquad",
			Name:      "pages_open",
			Help:      "Browser pages currently holding state on the server.",
		}),
		AnalyticsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "analytics_events_total",
			Help:      "Analytics events by name and outcome.",
		}, []string{"event", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoresquad",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shoresquad",
			Name:      "geocode_enabled",
			Help:      "1 when Mapbox geocoding is enabled, 0 otherwise.",
		}),
	}
}

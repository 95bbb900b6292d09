package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service collectors. It is separate from the default
// registry so tests and the API share one set of names.
var Registry = prometheus.NewRegistry()

var (
	registrationsTotal = counter("docchat_registrations_total", "Users registered")
	loginFailedTotal   = counter("docchat_login_failed_total", "Rejected login attempts")
	uploadsTotal       = counter("docchat_uploads_total", "PDF uploads stored")
	updatesTotal       = counter("docchat_updates_total", "PDF texts appended")
	extractFailedTotal = counter("docchat_extract_failed_total", "PDF extractions that failed")
	queriesTotal       = counter("docchat_queries_total", "Questions answered")
	queryFailedTotal   = counter("docchat_query_failed_total", "Questions where the LLM call failed")

	extractDuration = histogram("docchat_extract_duration_ms", "PDF extraction duration in milliseconds",
		[]float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
	llmDuration = histogram("docchat_llm_duration_ms", "LLM call duration in milliseconds",
		[]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	Registry.MustRegister(c)
	return c
}

func histogram(name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
	Registry.MustRegister(h)
	return h
}

func IncUploads()       { uploadsTotal.Inc() }
func IncUpdates()       { updatesTotal.Inc() }
func IncExtractFailed() { extractFailedTotal.Inc() }
func IncQueries()       { queriesTotal.Inc() }
func IncQueryFailed()   { queryFailedTotal.Inc() }
func IncLoginFailed()   { loginFailedTotal.Inc() }
func IncRegistrations() { registrationsTotal.Inc() }

// ObserveExtractDuration records how long one PDF extraction took.
func ObserveExtractDuration(d time.Duration) {
	extractDuration.Observe(durationMs(d))
}

// ObserveLLMDuration records the latency of one LLM call.
func ObserveLLMDuration(d time.Duration) {
	llmDuration.Observe(durationMs(d))
}

// Handler exposes Registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry}))
}

func durationMs(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d.Microseconds()) / 1000.0
}

package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus metrics for API calls and form rejections.
type Metrics struct {
	// Registry is exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration      *prometheus.HistogramVec
	apiErrors            *prometheus.CounterVec
	validationRejections *prometheus.CounterVec
}

// NewMetrics registers everything in a private registry so several
// instances can coexist in tests.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "estoque_api_request_duration_seconds",
				Help:    "Duration of API requests by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		apiErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estoque_api_errors_total",
				Help: "Failed API requests by HTTP status (0 for transport failures).",
			},
			[]string{"status"},
		),
		validationRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estoque_validation_rejections_total",
				Help: "Form submissions rejected before reaching the API.",
			},
			[]string{"form"},
		),
	}
}

// RecordRequest observes one API call.
func (m *Metrics) RecordRequest(method, route string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncrAPIError counts a failed call.
func (m *Metrics) IncrAPIError(status int) {
	if m == nil {
		return
	}
	m.apiErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// IncrValidationRejection counts a form that failed local validation.
func (m *Metrics) IncrValidationRejection(form string) {
	if m == nil {
		return
	}
	m.validationRejections.WithLabelValues(form).Inc()
}

// Snapshot is a cumulative view used by the status line.
type Snapshot struct {
	Requests   uint64
	APIErrors  float64
	Rejections float64
}

// Snapshot gathers current totals from the registry.
func (m *Metrics) Snapshot() Snapshot {
	var s Snapshot
	if m == nil {
		return s
	}
	families, err := m.Registry.Gather()
	if err != nil {
		return s
	}
	for _, mf := range families {
		switch mf.GetName() {
		case "estoque_api_request_duration_seconds":
			for _, metric := range mf.GetMetric() {
				s.Requests += metric.GetHistogram().GetSampleCount()
			}
		case "estoque_api_errors_total":
			s.APIErrors = sumCounters(mf)
		case "estoque_validation_rejections_total":
			s.Rejections = sumCounters(mf)
		}
	}
	return s
}

func sumCounters(mf *dto.MetricFamily) float64 {
	var total float64
	for _, metric := range mf.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	return total
}

// ServeMetrics exposes the registry on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string, m *Metrics, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener stopped", zap.Error(err))
		}
	}()
}

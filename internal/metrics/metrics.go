// Package metrics define las métricas Prometheus del servicio.
//
// Metrics implementa social.Observer (validaciones y grants) y expone un middleware
// HTTP. Las métricas se registran en el Registerer indicado; los duplicados se ignoran.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	validations        *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	grants             *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	gatherer prometheus.Gatherer
}

// Config agrupa dependencias opcionales.
type Config struct {
	// Registry nil => prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
	// AuditPool expone stats del pool de Postgres del audit (opcional).
	AuditPool func() *pgxpool.Pool
}

// New crea y registra las métricas.
func New(cfg Config) (*Metrics, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_validations_total",
			Help: "Validaciones de token social por provider y resultado",
		}, []string{"provider", "outcome"}),

		validationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "social_validation_duration_seconds",
			Help:    "Latencia de ValidateLogin por provider (incluye llamadas de red)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),

		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_grants_total",
			Help: "Grants sociales por resultado",
		}, []string{"outcome"}),

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
	}

	collectors := []prometheus.Collector{
		m.validations, m.validationDuration, m.grants,
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
	}
	if cfg.AuditPool != nil {
		collectors = append(collectors, newPoolCollector(cfg.AuditPool))
	}
	for _, c := range collectors {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m, nil
}

// ObserveValidation implementa social.Observer.
func (m *Metrics) ObserveValidation(provider, outcome string, elapsed time.Duration) {
	m.validations.WithLabelValues(provider, outcome).Inc()
	m.validationDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveGrant implementa social.Observer. providerType no se usa como label:
// viene del cliente y no está acotado.
func (m *Metrics) ObserveGrant(_ string, outcome string) {
	m.grants.WithLabelValues(outcome).Inc()
}

// Handler devuelve el handler de /metrics para el registry usado.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware instrumenta requests HTTP (contadores, latencia, inflight).
// El label path es el patrón de ruta de chi; rutas sin match van como "unmatched".
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		m.httpInflight.Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.Dec()
			path := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				path = rc.RoutePattern()
			}
			m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// registerCollector registra el collector en el registry indicado, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// poolCollector expone gauges del pool de Postgres del audit.
type poolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(pool func() *pgxpool.Pool) *poolCollector {
	return &poolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("audit_pgxpool_acquired", "Conexiones adquiridas del pool de audit", nil, nil),
		idleDesc:     prometheus.NewDesc("audit_pgxpool_idle", "Conexiones inactivas del pool de audit", nil, nil),
		totalDesc:    prometheus.NewDesc("audit_pgxpool_total", "Conexiones totales del pool de audit", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Resultados posibles de una operación del motor.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected" // regla de negocio o entrada inválida
	OutcomeNotFound = "not_found"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)

var _ inventory.OperationObserver = (*Observer)(nil)

// Observer métricas Prometheus del motor de inventario sobre un registry propio.
type Observer struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retries    *prometheus.CounterVec
	reorders   *prometheus.CounterVec
}

// NewObserver registra los colectores; incluye los del runtime de Go y del proceso.
func NewObserver() *Observer {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Observer{
		registry: reg,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_operations_total",
				Help: "Operaciones del motor de inventario por tipo y resultado",
			},
			[]string{"operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inventory_operation_duration_seconds",
				Help:    "Duración de las operaciones, incluida la espera por la variante",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_operation_retries_total",
				Help: "Reintentos por conflicto de versión",
			},
			[]string{"operation"},
		),
		reorders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_reorder_signals_total",
				Help: "Señales de reorden emitidas",
			},
			[]string{"triggered_by"},
		),
	}
}

func (o *Observer) OperationCompleted(op entity.TransactionType, err error, elapsed time.Duration) {
	o.operations.WithLabelValues(string(op), Outcome(err)).Inc()
	o.duration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

func (o *Observer) RetryAttempted(op entity.TransactionType) {
	o.retries.WithLabelValues(string(op)).Inc()
}

func (o *Observer) ReorderSignalled(s inventory.ReorderSignal) {
	o.reorders.WithLabelValues(string(s.TriggeredBy)).Inc()
}

// Registry expone el registry (tests y colectores adicionales).
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler endpoint de scraping.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry})
}

// Outcome clasifica el error de una operación en una etiqueta de baja cardinalidad.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case domain.IsTransient(err):
		return OutcomeBusy
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidInput):
		return OutcomeRejected
	}
	return OutcomeError
}

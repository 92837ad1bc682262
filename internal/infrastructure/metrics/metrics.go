// Package metrics expone los contadores del ledger y de HTTP en formato Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-sucursales/internal/application/ports"
)

const namespace = "stock_sucursales"

// Metrics agrupa los colectores registrados en un registro propio.
type Metrics struct {
	registry *prometheus.Registry

	salesTotal        *prometheus.CounterVec
	saleItemsTotal    *prometheus.CounterVec
	salesAmountTotal  *prometheus.CounterVec
	salesRejected     *prometheus.CounterVec
	transfersTotal    *prometheus.CounterVec
	transferredUnits  *prometheus.CounterVec
	atomicConflicts   *prometheus.CounterVec
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New crea y registra los colectores, más los de proceso y runtime de Go.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		salesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sales_total", Help: "Ventas confirmadas.",
		}, []string{"branch_id"}),
		saleItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sale_items_total", Help: "Registros de venta (ítems) confirmados.",
		}, []string{"branch_id"}),
		salesAmountTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sales_amount_total", Help: "Monto vendido.",
		}, []string{"branch_id"}),
		salesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sales_rejected_total", Help: "Ventas rechazadas por motivo.",
		}, []string{"branch_id", "reason"}),
		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_transfers_total", Help: "Transferencias de bodega central a sucursal.",
		}, []string{"branch_id"}),
		transferredUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_transferred_units_total", Help: "Unidades transferidas a sucursales.",
		}, []string{"branch_id"}),
		atomicConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "atomic_conflicts_total", Help: "Unidades atómicas rechazadas por conflicto.",
		}, []string{"operation"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total", Help: "Peticiones HTTP.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "Duración de las peticiones HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.salesTotal, m.saleItemsTotal, m.salesAmountTotal, m.salesRejected,
		m.transfersTotal, m.transferredUnits, m.atomicConflicts,
		m.httpRequestsTotal, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

var _ ports.LedgerMetrics = (*Metrics)(nil)

func (m *Metrics) SaleRecorded(branchID string, items int, amount decimal.Decimal) {
	m.salesTotal.WithLabelValues(branchID).Inc()
	m.saleItemsTotal.WithLabelValues(branchID).Add(float64(items))
	m.salesAmountTotal.WithLabelValues(branchID).Add(amount.InexactFloat64())
}

func (m *Metrics) SaleRejected(branchID, reason string) {
	m.salesRejected.WithLabelValues(branchID, reason).Inc()
}

func (m *Metrics) StockTransferred(branchID string, quantity int64) {
	m.transfersTotal.WithLabelValues(branchID).Inc()
	m.transferredUnits.WithLabelValues(branchID).Add(float64(quantity))
}

func (m *Metrics) AtomicConflict(operation string) {
	m.atomicConflicts.WithLabelValues(operation).Inc()
}

// ObserveHTTP registra una petición. route es la plantilla de la ruta, no el path concreto.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler expone el registro para /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry devuelve el registro (tests y colectores adicionales).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

package ports

import "github.com/shopspring/decimal"

// LedgerMetrics recibe los eventos contables que se exponen como métricas.
type LedgerMetrics interface {
	SaleRecorded(branchID string, items int, amount decimal.Decimal)
	SaleRejected(branchID, reason string)
	StockTransferred(branchID string, quantity int64)
	AtomicConflict(operation string)
}

// NopMetrics descarta todas las métricas.
type NopMetrics struct{}

func (NopMetrics) SaleRecorded(string, int, decimal.Decimal) {}
func (NopMetrics) SaleRejected(string, string)               {}
func (NopMetrics) StockTransferred(string, int64)            {}
func (NopMetrics) AtomicConflict(string)                     {}

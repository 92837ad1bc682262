package inventory

import "math"

// AddQuantity suma una entrada de stock a un saldo. ok es false si el resultado desborda int64.
func AddQuantity(balance, delta int64) (sum int64, ok bool) {
	if delta > 0 && balance > math.MaxInt64-delta {
		return balance, false
	}
	return balance + delta, true
}

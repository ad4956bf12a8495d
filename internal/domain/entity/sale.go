package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Sale representa una venta de mostrador. Una venta completada produce
// exactamente un movimiento OUT en el ledger, en la misma transacción.
type Sale struct {
	ID          string
	ProductID   string
	UserID      string
	Quantity    int64           // > 0
	UnitPrice   decimal.Decimal // > 0
	TotalAmount decimal.Decimal // Quantity × UnitPrice
	Status      string
	SaleDate    time.Time
	CreatedAt   time.Time
}

// ComputeTotal devuelve Quantity × UnitPrice con la precisión del decimal.
func (s *Sale) ComputeTotal() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(s.Quantity))
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario con su cantidad disponible.
// Quantity nunca es negativa: el Ledger es el único componente autorizado a
// modificarla y aplica clamp a cero en salidas administrativas.
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta unitario
	Quantity    int64           // cantidad disponible (>= 0)
	CategoryID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessSaleRequest entrada para procesar una venta.
type ProcessSaleRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleResponse venta registrada.
type SaleResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	UserID      string          `json:"user_id"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	SaleDate    time.Time       `json:"sale_date"`
}

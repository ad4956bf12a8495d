package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplyMovementRequest entrada para registrar un movimiento de stock.
// type solo aplica a la vía cruda /movements; /movements/in y /movements/out
// lo fijan por ruta.
type ApplyMovementRequest struct {
	ProductID string           `json:"product_id"`
	Type      string           `json:"type"` // in, out
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Reference string           `json:"reference,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// UpdateMovementMetaRequest actualización de metadatos de un movimiento.
// Las cantidades y snapshots no admiten cambios.
type UpdateMovementMetaRequest struct {
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// MovementResponse movimiento aplicado, con snapshots antes/después.
type MovementResponse struct {
	ID            string           `json:"id"`
	ProductID     string           `json:"product_id"`
	UserID        string           `json:"user_id"`
	Type          string           `json:"type"`
	Quantity      int64            `json:"quantity"`
	PreviousStock int64            `json:"previous_stock"`
	NewStock      int64            `json:"new_stock"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	Reference     string           `json:"reference,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// MovementSummaryResponse acumulados por producto.
type MovementSummaryResponse struct {
	ProductID string `json:"product_id"`
	TotalIn   int64  `json:"total_in"`
	TotalOut  int64  `json:"total_out"`
	Movements int64  `json:"movements"`
}

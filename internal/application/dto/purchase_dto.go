package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea de una orden de compra.
type OrderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest entrada para crear una orden de compra.
type CreateOrderRequest struct {
	SupplierID  string             `json:"supplier_id"`
	OrderNumber string             `json:"order_number"`
	Items       []OrderItemRequest `json:"items"`
}

// RejectOrderRequest motivo del rechazo (obligatorio).
type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

// UpdateOrderStatusRequest escape administrativo de estado.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// OrderItemResponse línea persistida con su total.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderResponse orden de compra con ítems.
type OrderResponse struct {
	ID              string              `json:"id"`
	SupplierID      string              `json:"supplier_id"`
	UserID          string              `json:"user_id"`
	OrderNumber     string              `json:"order_number"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Status          string              `json:"status"`
	ApprovedBy      string              `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time          `json:"approved_at,omitempty"`
	RejectedBy      string              `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time          `json:"rejected_at,omitempty"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
const (
	PurchaseOrderStatusPending  = "pending"
	PurchaseOrderStatusApproved = "approved"
	PurchaseOrderStatusRejected = "rejected"
)

// IsValidPurchaseOrderStatus valida un estado de orden de compra.
// Lo usa el escape administrativo UpdateStatus para no admitir valores libres.
func IsValidPurchaseOrderStatus(s string) bool {
	switch s {
	case PurchaseOrderStatusPending, PurchaseOrderStatusApproved, PurchaseOrderStatusRejected:
		return true
	}
	return false
}

// PurchaseOrder representa una orden de compra a proveedor. La aplicación de
// entrada de stock al recibir mercancía ocurre por fuera de este flujo.
type PurchaseOrder struct {
	ID              string
	SupplierID      string
	UserID          string
	OrderNumber     string // único, obligatorio
	TotalAmount     decimal.Decimal // > 0
	Status          string
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectedBy      string
	RejectedAt      *time.Time
	RejectionReason string
	Items           []PurchaseOrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PurchaseOrderItem es una línea de la orden.
type PurchaseOrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int64           // > 0
	UnitPrice decimal.Decimal // > 0
	LineTotal decimal.Decimal // Quantity × UnitPrice
}

// ComputeLineTotal devuelve Quantity × UnitPrice.
func (i *PurchaseOrderItem) ComputeLineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

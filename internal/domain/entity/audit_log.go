package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Severidades de una entrada de auditoría.
const (
	AuditSeverityInfo    = "info"
	AuditSeverityWarning = "warning"
	AuditSeverityError   = "error"
)

// Acciones auditadas por el núcleo.
const (
	AuditActionStockMovement    = "stock.movement"
	AuditActionSaleCompleted    = "sale.completed"
	AuditActionReturnCreated    = "return.created"
	AuditActionReturnApproved   = "return.approved"
	AuditActionReturnRejected   = "return.rejected"
	AuditActionOrderCreated     = "purchase_order.created"
	AuditActionOrderApproved    = "purchase_order.approved"
	AuditActionOrderRejected    = "purchase_order.rejected"
	AuditActionOrderStatusForce = "purchase_order.status.force"
)

// AuditLog es una entrada append-only del registro de auditoría. El núcleo
// nunca la actualiza ni la borra, y un fallo al escribirla jamás se propaga
// a la operación de negocio que la originó.
type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	TableName string
	RecordID  string
	Details   json.RawMessage
	Severity  string
	CreatedAt time.Time
}

// AuditDetails es el payload tipado por acción. Cada variante sabe a qué
// acción corresponde; el recorder la serializa a JSON al persistir.
type AuditDetails interface {
	AuditAction() string
}

// MovementDetails detalla un movimiento de stock aplicado.
// Clamped indica que la salida excedía el disponible y se recortó a cero
// (solo posible por la vía administrativa, ver ledger).
type MovementDetails struct {
	MovementID    string `json:"movement_id"`
	ProductID     string `json:"product_id"`
	Type          string `json:"type"`
	Quantity      int64  `json:"quantity"`
	PreviousStock int64  `json:"previous_stock"`
	NewStock      int64  `json:"new_stock"`
	Clamped       bool   `json:"clamped,omitempty"`
	Reference     string `json:"reference,omitempty"`
}

func (MovementDetails) AuditAction() string { return AuditActionStockMovement }

// SaleDetails detalla una venta completada.
type SaleDetails struct {
	SaleID      string          `json:"sale_id"`
	ProductID   string          `json:"product_id"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (SaleDetails) AuditAction() string { return AuditActionSaleCompleted }

// ReturnDetails detalla una transición de devolución.
type ReturnDetails struct {
	ReturnID    string          `json:"return_id"`
	ProductName string          `json:"product_name"`
	ProductID   string          `json:"product_id,omitempty"`
	Quantity    int64           `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
}

// AuditAction se resuelve por el estado resultante de la transición.
func (d ReturnDetails) AuditAction() string {
	switch d.Status {
	case ReturnStatusApproved:
		return AuditActionReturnApproved
	case ReturnStatusRejected:
		return AuditActionReturnRejected
	}
	return AuditActionReturnCreated
}

// OrderDetails detalla una transición de orden de compra.
type OrderDetails struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	Forced      bool            `json:"forced,omitempty"`
}

func (d OrderDetails) AuditAction() string {
	if d.Forced {
		return AuditActionOrderStatusForce
	}
	switch d.Status {
	case PurchaseOrderStatusApproved:
		return AuditActionOrderApproved
	case PurchaseOrderStatusRejected:
		return AuditActionOrderRejected
	}
	return AuditActionOrderCreated
}

// OpaqueDetails permite auditar payloads heterogéneos que no ameritan una
// variante propia.
type OpaqueDetails struct {
	Action  string          `json:"-"`
	Payload json.RawMessage `json:"payload"`
}

func (d OpaqueDetails) AuditAction() string { return d.Action }

package repository

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// PurchaseOrderRepository define el puerto de persistencia para órdenes de
// compra. Create inserta cabecera e ítems con el mismo Querier, por lo que es
// atómico cuando se usa dentro de una transacción.
type PurchaseOrderRepository interface {
	Create(order *entity.PurchaseOrder) error
	GetByID(id string) (*entity.PurchaseOrder, error)
	GetByOrderNumber(orderNumber string) (*entity.PurchaseOrder, error)
	List(status string, limit, offset int) ([]*entity.PurchaseOrder, error)
	// ApproveFromPending y RejectFromPending son compare-and-swap sobre el
	// estado: devuelven false sin modificar nada si la orden ya no está pending.
	ApproveFromPending(id, approvedBy string, approvedAt time.Time) (bool, error)
	RejectFromPending(id, rejectedBy, reason string, rejectedAt time.Time) (bool, error)
	// ForceStatus fija el estado sin pasar por la máquina de estados.
	// Escape administrativo: siempre debe auditarse en el caller.
	ForceStatus(id, status string) error
}

// Package purchase gestiona órdenes de compra a proveedores:
// pending → approved | rejected vía compare-and-swap sobre el estado.
// La aplicación de entrada de stock al recibir la mercancía va por el ledger,
// fuera de este flujo.
package purchase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/audit"
	"github.com/tu-usuario/stock-ledger/internal/application/notify"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

const tablePurchaseOrders = "purchase_orders"

// TxRunner inicia una transacción para insertar cabecera e ítems juntos.
type TxRunner interface {
	RunPurchase(ctx context.Context, fn func(
		orderRepo repository.PurchaseOrderRepository,
	) error) error
}

// OrderPDFGenerator genera el documento PDF de una orden para el proveedor.
type OrderPDFGenerator interface {
	GenerateOrderPDF(ctx context.Context, order *entity.PurchaseOrder, supplier *entity.Supplier, products map[string]*entity.Product) ([]byte, error)
}

// PurchaseOrderUseCase gestiona el ciclo de vida de órdenes de compra.
type PurchaseOrderUseCase struct {
	txRunner     TxRunner
	orderRepo    repository.PurchaseOrderRepository
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
	auditor      audit.Recorder
	notifier     notify.Notifier
	pdfGenerator OrderPDFGenerator
}

// NewPurchaseOrderUseCase construye el caso de uso.
func NewPurchaseOrderUseCase(
	txRunner TxRunner,
	orderRepo repository.PurchaseOrderRepository,
	supplierRepo repository.SupplierRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	auditor audit.Recorder,
	notifier notify.Notifier,
	pdfGenerator OrderPDFGenerator,
) *PurchaseOrderUseCase {
	return &PurchaseOrderUseCase{
		txRunner:     txRunner,
		orderRepo:    orderRepo,
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		auditor:      auditor,
		notifier:     notifier,
		pdfGenerator: pdfGenerator,
	}
}

// OrderItemInput línea de la orden a crear.
type OrderItemInput struct {
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// OrderInput entrada para crear una orden de compra.
type OrderInput struct {
	SupplierID  string
	UserID      string
	OrderNumber string
	Items       []OrderItemInput
}

// Create valida proveedor activo, número de orden único e ítems, calcula los
// totales de línea y persiste cabecera e ítems en una transacción.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, input OrderInput) (*entity.PurchaseOrder, error) {
	if input.SupplierID == "" || input.UserID == "" || input.OrderNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(input.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	supplier, err := uc.supplierRepo.GetByID(input.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.ErrNotFound
	}
	if !supplier.Active {
		return nil, domain.ErrSupplierInactive
	}
	if user, err := uc.userRepo.GetByID(input.UserID); err != nil {
		return nil, err
	} else if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if existing, err := uc.orderRepo.GetByOrderNumber(input.OrderNumber); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	order := &entity.PurchaseOrder{
		ID:          uuid.New().String(),
		SupplierID:  input.SupplierID,
		UserID:      input.UserID,
		OrderNumber: input.OrderNumber,
		Status:      entity.PurchaseOrderStatusPending,
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, it := range input.Items {
		if it.ProductID == "" || it.Quantity <= 0 || !it.UnitPrice.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		item := entity.PurchaseOrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
		item.LineTotal = item.ComputeLineTotal()
		order.Items = append(order.Items, item)
		order.TotalAmount = order.TotalAmount.Add(item.LineTotal)
	}
	if !order.TotalAmount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	err = uc.txRunner.RunPurchase(ctx, func(orderRepo repository.PurchaseOrderRepository) error {
		return orderRepo.Create(order)
	})
	if err != nil {
		return nil, err
	}

	uc.auditor.Record(input.UserID, tablePurchaseOrders, order.ID, entity.OrderDetails{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		SupplierID:  order.SupplierID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	})
	return order, nil
}

// Approve aprueba una orden pendiente, registrando quién y cuándo. Una orden
// ya dispuesta devuelve ErrInvalidTransition: re-aprobar en silencio
// sobreescribiría aprobador y fecha, que son datos de auditoría.
func (uc *PurchaseOrderUseCase) Approve(ctx context.Context, orderID, approverID string) (*entity.PurchaseOrder, error) {
	order, err := uc.requireOrder(orderID)
	if err != nil {
		return nil, err
	}
	if approverID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	swapped, err := uc.orderRepo.ApproveFromPending(order.ID, approverID, now)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, domain.ErrInvalidTransition
	}

	order.Status = entity.PurchaseOrderStatusApproved
	order.ApprovedBy = approverID
	order.ApprovedAt = &now

	uc.auditor.Record(approverID, tablePurchaseOrders, order.ID, entity.OrderDetails{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		SupplierID:  order.SupplierID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	})
	uc.notifier.Notify(ctx, notify.Event{
		Type:     notify.EventOrderApproved,
		RecordID: order.ID,
		UserID:   approverID,
		Message:  "orden de compra aprobada: " + order.OrderNumber,
	})
	return order, nil
}

// Reject rechaza una orden pendiente. El motivo es obligatorio.
func (uc *PurchaseOrderUseCase) Reject(ctx context.Context, orderID, rejectorID, reason string) (*entity.PurchaseOrder, error) {
	order, err := uc.requireOrder(orderID)
	if err != nil {
		return nil, err
	}
	if rejectorID == "" || reason == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	swapped, err := uc.orderRepo.RejectFromPending(order.ID, rejectorID, reason, now)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, domain.ErrInvalidTransition
	}

	order.Status = entity.PurchaseOrderStatusRejected
	order.RejectedBy = rejectorID
	order.RejectedAt = &now
	order.RejectionReason = reason

	uc.auditor.Record(rejectorID, tablePurchaseOrders, order.ID, entity.OrderDetails{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		SupplierID:  order.SupplierID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		Reason:      reason,
	})
	uc.notifier.Notify(ctx, notify.Event{
		Type:     notify.EventOrderRejected,
		RecordID: order.ID,
		UserID:   rejectorID,
		Message:  "orden de compra rechazada: " + order.OrderNumber,
	})
	return order, nil
}

// UpdateStatus es el escape administrativo que fija el estado por fuera de la
// máquina pending→approved/rejected. No registra aprobador ni rechazador;
// solo admite estados conocidos y siempre deja rastro en auditoría.
func (uc *PurchaseOrderUseCase) UpdateStatus(ctx context.Context, orderID, status, actorID string) (*entity.PurchaseOrder, error) {
	order, err := uc.requireOrder(orderID)
	if err != nil {
		return nil, err
	}
	if actorID == "" || !entity.IsValidPurchaseOrderStatus(status) {
		return nil, domain.ErrInvalidInput
	}

	if err := uc.orderRepo.ForceStatus(order.ID, status); err != nil {
		return nil, err
	}
	order.Status = status

	uc.auditor.RecordWarning(actorID, tablePurchaseOrders, order.ID, entity.OrderDetails{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		SupplierID:  order.SupplierID,
		TotalAmount: order.TotalAmount,
		Status:      status,
		Forced:      true,
	})
	return order, nil
}

// GeneratePDF genera el documento de la orden para enviar al proveedor.
func (uc *PurchaseOrderUseCase) GeneratePDF(ctx context.Context, orderID string) ([]byte, error) {
	order, err := uc.requireOrder(orderID)
	if err != nil {
		return nil, err
	}
	supplier, err := uc.supplierRepo.GetByID(order.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.ErrNotFound
	}
	products := make(map[string]*entity.Product, len(order.Items))
	for _, item := range order.Items {
		product, err := uc.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			products[item.ProductID] = product
		}
	}
	return uc.pdfGenerator.GenerateOrderPDF(ctx, order, supplier, products)
}

// GetByID devuelve una orden con sus ítems.
func (uc *PurchaseOrderUseCase) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return uc.requireOrder(id)
}

// List lista órdenes, opcionalmente filtradas por estado.
func (uc *PurchaseOrderUseCase) List(ctx context.Context, status string, limit, offset int) ([]*entity.PurchaseOrder, error) {
	return uc.orderRepo.List(status, limit, offset)
}

func (uc *PurchaseOrderUseCase) requireOrder(orderID string) (*entity.PurchaseOrder, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// Package sale procesa ventas de mostrador. La venta y su salida de stock se
// persisten en una sola transacción: si el movimiento falla, la venta no queda
// registrada.
package sale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/audit"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/application/notify"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

const tableSales = "sales"

// TxRunner inicia una transacción con los repositorios que necesita una venta.
type TxRunner interface {
	RunSale(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// ProcessSaleUseCase valida y registra ventas, descontando inventario vía ledger.
type ProcessSaleUseCase struct {
	txRunner    TxRunner
	ledgerUC    *ledger.StockLedgerUseCase
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	saleRepo    repository.SaleRepository
	auditor     audit.Recorder
	notifier    notify.Notifier
}

// NewProcessSaleUseCase construye el caso de uso.
func NewProcessSaleUseCase(
	txRunner TxRunner,
	ledgerUC *ledger.StockLedgerUseCase,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	saleRepo repository.SaleRepository,
	auditor audit.Recorder,
	notifier notify.Notifier,
) *ProcessSaleUseCase {
	return &ProcessSaleUseCase{
		txRunner:    txRunner,
		ledgerUC:    ledgerUC,
		productRepo: productRepo,
		userRepo:    userRepo,
		saleRepo:    saleRepo,
		auditor:     auditor,
		notifier:    notifier,
	}
}

// SaleInput entrada para procesar una venta.
type SaleInput struct {
	ProductID string
	UserID    string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// ProcessSale valida producto, cantidad, precio y disponibilidad; persiste la
// venta completada y aplica la salida de stock en la misma transacción.
func (uc *ProcessSaleUseCase) ProcessSale(ctx context.Context, input SaleInput) (*entity.Sale, error) {
	if input.ProductID == "" || input.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.Quantity <= 0 || !input.UnitPrice.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if user, err := uc.userRepo.GetByID(input.UserID); err != nil {
		return nil, err
	} else if user == nil {
		return nil, domain.ErrUserNotFound
	}
	product, err := uc.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	// Chequeo temprano para rechazar sin abrir transacción; la guardia
	// definitiva corre dentro de la tx con la fila bloqueada.
	if ok, err := uc.ledgerUC.CanApplyOut(ctx, input.ProductID, input.Quantity); err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrInsufficientStock
	}

	now := time.Now()
	sale := &entity.Sale{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Quantity:  input.Quantity,
		UnitPrice: input.UnitPrice,
		Status:    entity.SaleStatusCompleted,
		SaleDate:  now,
		CreatedAt: now,
	}
	sale.TotalAmount = sale.ComputeTotal()

	err = uc.txRunner.RunSale(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		if err := saleRepo.Create(sale); err != nil {
			return err
		}
		_, err := uc.ledgerUC.ApplyOutInTx(movRepo, productRepo, ledger.MovementInput{
			ProductID: input.ProductID,
			UserID:    input.UserID,
			Type:      entity.MovementTypeOut,
			Quantity:  input.Quantity,
			UnitPrice: &input.UnitPrice,
			Reference: "sale:" + sale.ID,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.auditor.Record(input.UserID, tableSales, sale.ID, entity.SaleDetails{
		SaleID:      sale.ID,
		ProductID:   sale.ProductID,
		Quantity:    sale.Quantity,
		UnitPrice:   sale.UnitPrice,
		TotalAmount: sale.TotalAmount,
	})
	uc.notifier.Notify(ctx, notify.Event{
		Type:     notify.EventSaleCompleted,
		RecordID: sale.ID,
		UserID:   input.UserID,
		Message:  "venta completada: " + product.Name,
	})
	return sale, nil
}

// GetByID devuelve una venta.
func (uc *ProcessSaleUseCase) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	sale, err := uc.saleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

// List lista ventas en un rango de fechas.
func (uc *ProcessSaleUseCase) List(ctx context.Context, from, to *time.Time, limit, offset int) ([]*entity.Sale, error) {
	return uc.saleRepo.List(from, to, limit, offset)
}

// Package ledger implementa el libro de movimientos de stock: el único
// componente autorizado a modificar la cantidad disponible de un producto.
// Cada delta aplicado queda registrado como un StockMovement inmutable con
// snapshot de la cantidad anterior y la nueva, dentro de la misma transacción
// que actualiza el producto.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/audit"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Nombre de la tabla afectada, para las entradas de auditoría.
const tableStockMovements = "stock_movements"

// StockLedgerUseCase aplica movimientos de stock de forma transaccional con
// bloqueo de fila (SELECT FOR UPDATE) sobre el producto.
type StockLedgerUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	userRepo     repository.UserRepository
	auditor      audit.Recorder
	log          *logger.Logger
}

// NewStockLedgerUseCase construye el caso de uso.
func NewStockLedgerUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	userRepo repository.UserRepository,
	auditor audit.Recorder,
	log *logger.Logger,
) *StockLedgerUseCase {
	return &StockLedgerUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		userRepo:     userRepo,
		auditor:      auditor,
		log:          log,
	}
}

// MovementInput entrada para aplicar un movimiento de stock.
type MovementInput struct {
	ProductID string
	UserID    string
	Type      string // in, out
	Quantity  int64  // > 0
	UnitPrice *decimal.Decimal
	Reference string
	Notes     string
}

func (in *MovementInput) validate() error {
	if in.ProductID == "" || in.UserID == "" {
		return domain.ErrInvalidInput
	}
	if !entity.IsValidMovementType(in.Type) {
		return domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	if in.UnitPrice != nil && in.UnitPrice.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	return nil
}

// ApplyMovement es la vía cruda del ledger: override administrativo que no
// exige stock suficiente en salidas. Si la salida excede el disponible, la
// cantidad resultante se recorta a cero y el recorte queda en el log y en la
// auditoría con severidad warning. Las vías orquestadas (venta, devolución,
// ProcessStockOut) usan la variante con guardia.
func (uc *StockLedgerUseCase) ApplyMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	return uc.apply(ctx, input, false)
}

// ProcessStockIn registra una entrada de stock.
func (uc *StockLedgerUseCase) ProcessStockIn(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	input.Type = entity.MovementTypeIn
	return uc.apply(ctx, input, false)
}

// ProcessStockOut registra una salida de stock con guardia: falla con
// ErrInsufficientStock, sin escribir nada, si la cantidad excede el disponible.
func (uc *StockLedgerUseCase) ProcessStockOut(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	input.Type = entity.MovementTypeOut
	return uc.apply(ctx, input, true)
}

func (uc *StockLedgerUseCase) apply(ctx context.Context, input MovementInput, guarded bool) (*entity.StockMovement, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	// Precondiciones fuera de la tx (solo lectura).
	if user, err := uc.userRepo.GetByID(input.UserID); err != nil {
		return nil, err
	} else if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if product, err := uc.productRepo.GetByID(input.ProductID); err != nil {
		return nil, err
	} else if product == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	var movement *entity.StockMovement
	var clamped bool
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		var err error
		if guarded {
			movement, err = uc.ApplyOutInTx(movRepo, productRepo, input, now)
		} else {
			movement, clamped, err = uc.applyRawInTx(movRepo, productRepo, input, now)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	details := movementDetails(movement, clamped)
	if clamped {
		uc.log.Warn().
			Str("product_id", input.ProductID).
			Int64("quantity", input.Quantity).
			Int64("previous_stock", movement.PreviousStock).
			Msg("salida excede el disponible, cantidad recortada a cero")
		uc.auditor.RecordWarning(input.UserID, tableStockMovements, movement.ID, details)
	} else {
		uc.auditor.Record(input.UserID, tableStockMovements, movement.ID, details)
	}
	return movement, nil
}

// applyRawInTx aplica el movimiento sin guardia, con clamp a cero en salidas.
func (uc *StockLedgerUseCase) applyRawInTx(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	input MovementInput,
	now time.Time,
) (*entity.StockMovement, bool, error) {
	// Bloquea la fila del producto (SELECT FOR UPDATE) para evitar lost updates.
	product, err := productRepo.GetByIDForUpdate(input.ProductID)
	if err != nil {
		return nil, false, err
	}
	if product == nil {
		return nil, false, domain.ErrNotFound
	}
	newStock, clamped := entity.ApplyTo(product.Quantity, input.Type, input.Quantity)
	movement := buildMovement(input, product.Quantity, newStock, now)
	if err := movRepo.Create(movement); err != nil {
		return nil, false, err
	}
	if err := productRepo.UpdateQuantity(input.ProductID, newStock); err != nil {
		return nil, false, err
	}
	return movement, clamped, nil
}

// ApplyOutInTx ejecuta una salida con guardia usando los repositorios
// proporcionados (misma transacción del caller). La usan los flujos de venta
// y de aprobación de devoluciones para que la venta/devolución y el
// movimiento se confirmen o reviertan juntos.
func (uc *StockLedgerUseCase) ApplyOutInTx(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	input MovementInput,
	now time.Time,
) (*entity.StockMovement, error) {
	product, err := productRepo.GetByIDForUpdate(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if input.Quantity > product.Quantity {
		return nil, domain.ErrInsufficientStock
	}
	newStock := product.Quantity - input.Quantity
	movement := buildMovement(input, product.Quantity, newStock, now)
	if err := movRepo.Create(movement); err != nil {
		return nil, err
	}
	if err := productRepo.UpdateQuantity(input.ProductID, newStock); err != nil {
		return nil, err
	}
	return movement, nil
}

// ApplyInInTx ejecuta una entrada usando los repositorios del caller
// (misma transacción).
func (uc *StockLedgerUseCase) ApplyInInTx(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	input MovementInput,
	now time.Time,
) (*entity.StockMovement, error) {
	input.Type = entity.MovementTypeIn
	movement, _, err := uc.applyRawInTx(movRepo, productRepo, input, now)
	return movement, err
}

// CanApplyOut indica si hay stock suficiente para una salida de quantity
// unidades. Gatea las vías orquestadas; la vía cruda ApplyMovement no lo
// consulta (override administrativo documentado).
func (uc *StockLedgerUseCase) CanApplyOut(ctx context.Context, productID string, quantity int64) (bool, error) {
	if productID == "" || quantity <= 0 {
		return false, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return false, err
	}
	if product == nil {
		return false, domain.ErrNotFound
	}
	return quantity <= product.Quantity, nil
}

// UpdateMovementMeta actualiza solo los metadatos (referencia y nota) de un
// movimiento persistido. Las cantidades y snapshots son inmutables: un
// "update" de movimiento jamás re-aplica el delta.
func (uc *StockLedgerUseCase) UpdateMovementMeta(ctx context.Context, movementID, reference, notes string) error {
	if movementID == "" {
		return domain.ErrInvalidInput
	}
	movement, err := uc.movementRepo.GetByID(movementID)
	if err != nil {
		return err
	}
	if movement == nil {
		return domain.ErrNotFound
	}
	return uc.movementRepo.UpdateMeta(movementID, reference, notes)
}

// Summary devuelve los acumulados de entradas/salidas por producto calculados
// en la base de datos con una sola consulta agregada.
func (uc *StockLedgerUseCase) Summary(ctx context.Context, from, to *time.Time) ([]repository.MovementSummary, error) {
	return uc.movementRepo.SummaryByProduct(from, to)
}

// ListByProduct lista los movimientos de un producto.
func (uc *StockLedgerUseCase) ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movementRepo.ListByProduct(productID, from, to, limit, offset)
}

func buildMovement(input MovementInput, previous, newStock int64, now time.Time) *entity.StockMovement {
	movement := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     input.ProductID,
		UserID:        input.UserID,
		Type:          input.Type,
		Quantity:      input.Quantity,
		PreviousStock: previous,
		NewStock:      newStock,
		Reference:     input.Reference,
		Notes:         input.Notes,
		CreatedAt:     now,
	}
	if input.UnitPrice != nil {
		price := *input.UnitPrice
		total := price.Mul(decimal.NewFromInt(input.Quantity))
		movement.UnitPrice = &price
		movement.TotalAmount = &total
	}
	return movement
}

func movementDetails(m *entity.StockMovement, clamped bool) entity.MovementDetails {
	return entity.MovementDetails{
		MovementID:    m.ID,
		ProductID:     m.ProductID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Clamped:       clamped,
		Reference:     m.Reference,
	}
}

// Package returns gestiona el ciclo de vida de las devoluciones:
// pending → approved | rejected (terminales). La aprobación descuenta stock
// vía ledger dentro de la misma transacción que fija el estado, por lo que
// nunca queda una devolución aprobada sin su movimiento ni al revés.
package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/tu-usuario/stock-ledger/internal/application/audit"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/application/notify"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

const tableReturns = "returns"

// TxRunner inicia una transacción con los repositorios de una disposición.
type TxRunner interface {
	RunReturn(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		returnRepo repository.ReturnRepository,
	) error) error
}

// Config parámetros del flujo de devoluciones.
type Config struct {
	// SystemUserID identidad de sistema configurada, usada cuando el actor
	// de una disposición no se puede resolver por nombre. Reemplaza al
	// antiguo ID numérico mágico.
	SystemUserID string
}

// ReturnUseCase gestiona devoluciones de clientes.
type ReturnUseCase struct {
	txRunner    TxRunner
	ledgerUC    *ledger.StockLedgerUseCase
	returnRepo  repository.ReturnRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	auditor     audit.Recorder
	notifier    notify.Notifier
	cfg         Config
	log         *logger.Logger
}

// NewReturnUseCase construye el caso de uso.
func NewReturnUseCase(
	txRunner TxRunner,
	ledgerUC *ledger.StockLedgerUseCase,
	returnRepo repository.ReturnRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	auditor audit.Recorder,
	notifier notify.Notifier,
	cfg Config,
	log *logger.Logger,
) *ReturnUseCase {
	return &ReturnUseCase{
		txRunner:    txRunner,
		ledgerUC:    ledgerUC,
		returnRepo:  returnRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		auditor:     auditor,
		notifier:    notifier,
		cfg:         cfg,
		log:         log,
	}
}

// ReturnInput entrada para crear una devolución.
type ReturnInput struct {
	ProductName string
	Quantity    int64
	Reason      string
	RequestedBy string
}

// Create registra una devolución en estado pending. El producto se resuelve
// por nombre (normalizado NFC, sin distinguir mayúsculas); si no se resuelve,
// Amount queda en 0 y se deja constancia con un warning.
func (uc *ReturnUseCase) Create(ctx context.Context, input ReturnInput) (*entity.Return, error) {
	if input.ProductName == "" || input.Reason == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	ret := &entity.Return{
		ID:          uuid.New().String(),
		ProductName: input.ProductName,
		Quantity:    input.Quantity,
		Reason:      input.Reason,
		Amount:      decimal.Zero,
		Status:      entity.ReturnStatusPending,
		RequestedBy: input.RequestedBy,
		ReturnDate:  now,
		CreatedAt:   now,
	}

	product, err := uc.resolveProduct(input.ProductName)
	if err != nil {
		return nil, err
	}
	if product != nil {
		ret.ProductID = product.ID
		ret.Amount = product.Price.Mul(decimal.NewFromInt(input.Quantity))
	} else {
		uc.log.Warn().
			Str("product_name", input.ProductName).
			Msg("devolución sin producto resoluble, monto en cero")
	}

	if err := uc.returnRepo.Create(ret); err != nil {
		return nil, err
	}
	uc.auditor.Record(uc.cfg.SystemUserID, tableReturns, ret.ID, entity.ReturnDetails{
		ReturnID:    ret.ID,
		ProductName: ret.ProductName,
		ProductID:   ret.ProductID,
		Quantity:    ret.Quantity,
		Amount:      ret.Amount,
		Status:      ret.Status,
		Reason:      ret.Reason,
	})
	return ret, nil
}

// Approve dispone la devolución como aprobada y descuenta el stock. Solo
// procede desde pending: cualquier otro estado devuelve ErrInvalidTransition
// sin escribir nada. El cambio de estado y el movimiento OUT se confirman en
// una sola transacción.
func (uc *ReturnUseCase) Approve(ctx context.Context, returnID, actorName string) (*entity.Return, error) {
	ret, err := uc.pendingReturn(returnID)
	if err != nil {
		return nil, err
	}

	product, err := uc.resolveReturnProduct(ret)
	if err != nil {
		return nil, err
	}
	actorID := uc.resolveActor(actorName)

	// Guardia previa; la definitiva corre dentro de la tx con fila bloqueada.
	if ok, err := uc.ledgerUC.CanApplyOut(ctx, product.ID, ret.Quantity); err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrInsufficientStock
	}

	now := time.Now()
	err = uc.txRunner.RunReturn(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		returnRepo repository.ReturnRepository,
	) error {
		swapped, err := returnRepo.UpdateStatusFromPending(ret.ID, entity.ReturnStatusApproved, actorID, now)
		if err != nil {
			return err
		}
		if !swapped {
			return domain.ErrInvalidTransition
		}
		unitPrice := product.Price
		_, err = uc.ledgerUC.ApplyOutInTx(movRepo, productRepo, ledger.MovementInput{
			ProductID: product.ID,
			UserID:    actorID,
			Type:      entity.MovementTypeOut,
			Quantity:  ret.Quantity,
			UnitPrice: &unitPrice,
			Reference: "return:" + ret.ID,
			Notes:     ret.Reason,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	ret.Status = entity.ReturnStatusApproved
	ret.ProductID = product.ID
	ret.ProcessedDate = &now
	ret.ProcessedBy = actorID

	uc.auditor.Record(actorID, tableReturns, ret.ID, uc.transitionDetails(ret))
	uc.notifier.Notify(ctx, notify.Event{
		Type:     notify.EventReturnApproved,
		RecordID: ret.ID,
		UserID:   actorID,
		Message:  "devolución aprobada: " + ret.ProductName,
	})
	return ret, nil
}

// Reject dispone la devolución como rechazada. Sin efecto sobre el stock.
func (uc *ReturnUseCase) Reject(ctx context.Context, returnID, actorName string) (*entity.Return, error) {
	ret, err := uc.pendingReturn(returnID)
	if err != nil {
		return nil, err
	}
	actorID := uc.resolveActor(actorName)

	now := time.Now()
	swapped, err := uc.returnRepo.UpdateStatusFromPending(ret.ID, entity.ReturnStatusRejected, actorID, now)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, domain.ErrInvalidTransition
	}

	ret.Status = entity.ReturnStatusRejected
	ret.ProcessedDate = &now
	ret.ProcessedBy = actorID

	uc.auditor.Record(actorID, tableReturns, ret.ID, uc.transitionDetails(ret))
	uc.notifier.Notify(ctx, notify.Event{
		Type:     notify.EventReturnRejected,
		RecordID: ret.ID,
		UserID:   actorID,
		Message:  "devolución rechazada: " + ret.ProductName,
	})
	return ret, nil
}

// GetByID devuelve una devolución.
func (uc *ReturnUseCase) GetByID(ctx context.Context, id string) (*entity.Return, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	ret, err := uc.returnRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	return ret, nil
}

// List lista devoluciones, opcionalmente filtradas por estado.
func (uc *ReturnUseCase) List(ctx context.Context, status string, limit, offset int) ([]*entity.Return, error) {
	return uc.returnRepo.List(status, limit, offset)
}

func (uc *ReturnUseCase) pendingReturn(returnID string) (*entity.Return, error) {
	if returnID == "" {
		return nil, domain.ErrInvalidInput
	}
	ret, err := uc.returnRepo.GetByID(returnID)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	// Chequeo rápido; el compare-and-swap posterior es el autoritativo.
	if ret.Status != entity.ReturnStatusPending {
		return nil, domain.ErrInvalidTransition
	}
	return ret, nil
}

// resolveProduct busca el producto por nombre. Los nombres llegan de clientes
// distintos con los acentos compuestos o descompuestos; se normalizan a NFC
// antes de comparar.
func (uc *ReturnUseCase) resolveProduct(name string) (*entity.Product, error) {
	return uc.productRepo.GetByName(norm.NFC.String(name))
}

func (uc *ReturnUseCase) resolveReturnProduct(ret *entity.Return) (*entity.Product, error) {
	if ret.ProductID != "" {
		product, err := uc.productRepo.GetByID(ret.ProductID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			return product, nil
		}
	}
	product, err := uc.resolveProduct(ret.ProductName)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// resolveActor resuelve el usuario que dispone por nombre; si no existe, usa
// la identidad de sistema configurada.
func (uc *ReturnUseCase) resolveActor(actorName string) string {
	if actorName != "" {
		user, err := uc.userRepo.GetByName(actorName)
		if err == nil && user != nil {
			return user.ID
		}
		uc.log.Warn().
			Str("actor", actorName).
			Msg("actor no resoluble, usando identidad de sistema")
	}
	return uc.cfg.SystemUserID
}

func (uc *ReturnUseCase) transitionDetails(ret *entity.Return) entity.ReturnDetails {
	return entity.ReturnDetails{
		ReturnID:    ret.ID,
		ProductName: ret.ProductName,
		ProductID:   ret.ProductID,
		Quantity:    ret.Quantity,
		Amount:      ret.Amount,
		Status:      ret.Status,
		Reason:      ret.Reason,
	}
}

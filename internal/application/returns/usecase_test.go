package returns_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/apptest"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/application/notify"
	"github.com/tu-usuario/stock-ledger/internal/application/returns"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

const (
	testProductID    = "prod-1"
	testProductName  = "Café molido 500g"
	testApproverID   = "user-1"
	testApproverName = "Laura"
	systemUserID     = "system"
)

type returnFixture struct {
	uc        *returns.ReturnUseCase
	products  *apptest.ProductStore
	movements *apptest.MovementStore
	returns   *apptest.ReturnStore
	auditor   *apptest.RecorderSpy
	notifier  *apptest.NotifierSpy
}

func newReturnFixture(t *testing.T, initialStock int64) *returnFixture {
	t.Helper()
	products := apptest.NewProductStore(&entity.Product{
		ID:       testProductID,
		SKU:      "SKU-001",
		Name:     testProductName,
		Price:    decimal.RequireFromString("12.50"),
		Quantity: initialStock,
	})
	users := apptest.NewUserStore(&entity.User{ID: testApproverID, Name: testApproverName, Role: entity.RoleAdmin})
	movements := apptest.NewMovementStore()
	tx := apptest.NewTxRunner(products, movements)
	auditor := apptest.NewRecorderSpy()
	notifier := apptest.NewNotifierSpy()
	ledgerUC := ledger.NewStockLedgerUseCase(tx, products, movements, users, auditor, logger.Nop())
	uc := returns.NewReturnUseCase(
		tx, ledgerUC, tx.Returns, products, users, auditor, notifier,
		returns.Config{SystemUserID: systemUserID}, logger.Nop(),
	)
	return &returnFixture{uc: uc, products: products, movements: movements, returns: tx.Returns, auditor: auditor, notifier: notifier}
}

func (f *returnFixture) createPending(t *testing.T, qty int64) *entity.Return {
	t.Helper()
	ret, err := f.uc.Create(context.Background(), returns.ReturnInput{
		ProductName: testProductName,
		Quantity:    qty,
		Reason:      "producto defectuoso",
	})
	require.NoError(t, err)
	return ret
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ResuelveProductoYCalculaMonto(t *testing.T) {
	f := newReturnFixture(t, 10)

	ret := f.createPending(t, 2)

	assert.Equal(t, entity.ReturnStatusPending, ret.Status)
	assert.Equal(t, testProductID, ret.ProductID)
	assert.True(t, ret.Amount.Equal(decimal.RequireFromString("25")),
		"monto esperado 2 × 12.50 = 25, obtenido %s", ret.Amount)
	assert.Equal(t, int64(10), f.products.Quantity(testProductID),
		"crear la devolución no toca el stock")
}

// Los nombres llegan con los acentos compuestos o descompuestos según el
// cliente; ambos deben resolver al mismo producto.
func TestCreate_NombreDescompuestoResuelveProducto(t *testing.T) {
	f := newReturnFixture(t, 10)

	// "Café" con e + combining acute (NFD) en lugar de é precompuesta.
	ret, err := f.uc.Create(context.Background(), returns.ReturnInput{
		ProductName: "Café molido 500g",
		Quantity:    1,
		Reason:      "empaque roto",
	})
	require.NoError(t, err)
	assert.Equal(t, testProductID, ret.ProductID)
	assert.True(t, ret.Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestCreate_ProductoNoResolubleDejaMontoEnCero(t *testing.T) {
	f := newReturnFixture(t, 10)

	ret, err := f.uc.Create(context.Background(), returns.ReturnInput{
		ProductName: "producto que no existe",
		Quantity:    3,
		Reason:      "no era lo pedido",
	})
	require.NoError(t, err, "la devolución se registra igual, con monto cero")
	assert.Empty(t, ret.ProductID)
	assert.True(t, ret.Amount.IsZero())
}

func TestCreate_Validaciones(t *testing.T) {
	f := newReturnFixture(t, 10)
	ctx := context.Background()

	casos := []struct {
		nombre string
		input  returns.ReturnInput
	}{
		{"sin nombre de producto", returns.ReturnInput{Quantity: 1, Reason: "x"}},
		{"sin motivo", returns.ReturnInput{ProductName: testProductName, Quantity: 1}},
		{"cantidad cero", returns.ReturnInput{ProductName: testProductName, Reason: "x"}},
		{"cantidad negativa", returns.ReturnInput{ProductName: testProductName, Quantity: -2, Reason: "x"}},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := f.uc.Create(ctx, tc.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobación
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_DescuentaStockYFijaEstado(t *testing.T) {
	f := newReturnFixture(t, 10)
	ret := f.createPending(t, 2)

	out, err := f.uc.Approve(context.Background(), ret.ID, testApproverName)
	require.NoError(t, err)

	assert.Equal(t, entity.ReturnStatusApproved, out.Status)
	assert.Equal(t, testApproverID, out.ProcessedBy, "el actor se resuelve por nombre al usuario")
	require.NotNil(t, out.ProcessedDate)
	assert.Equal(t, int64(8), f.products.Quantity(testProductID))

	movs := f.movements.All()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeOut, movs[0].Type)
	assert.Equal(t, "return:"+ret.ID, movs[0].Reference)
}

func TestApprove_ActorNoResolubleUsaIdentidadDeSistema(t *testing.T) {
	f := newReturnFixture(t, 10)
	ret := f.createPending(t, 1)

	out, err := f.uc.Approve(context.Background(), ret.ID, "nadie con ese nombre")
	require.NoError(t, err)
	assert.Equal(t, systemUserID, out.ProcessedBy)
}

// La doble aprobación es imposible: el segundo intento falla con
// ErrInvalidTransition y el stock se descuenta exactamente una vez.
func TestApprove_DobleAprobacionDescuentaUnaSolaVez(t *testing.T) {
	f := newReturnFixture(t, 10)
	ret := f.createPending(t, 2)
	ctx := context.Background()

	_, err := f.uc.Approve(ctx, ret.ID, testApproverName)
	require.NoError(t, err)

	_, err = f.uc.Approve(ctx, ret.ID, testApproverName)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, int64(8), f.products.Quantity(testProductID),
		"el segundo intento no debe volver a descontar")
	assert.Len(t, f.movements.All(), 1)
}

func TestApprove_StockInsuficienteNoCambiaEstado(t *testing.T) {
	f := newReturnFixture(t, 1)
	ret := f.createPending(t, 5)

	_, err := f.uc.Approve(context.Background(), ret.ID, testApproverName)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	stored, err := f.returns.GetByID(ret.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusPending, stored.Status,
		"la devolución sigue pendiente si no se pudo descontar")
	assert.Equal(t, int64(1), f.products.Quantity(testProductID))
}

func TestApprove_ProductoNoResolubleFalla(t *testing.T) {
	f := newReturnFixture(t, 10)
	ret, err := f.uc.Create(context.Background(), returns.ReturnInput{
		ProductName: "producto fantasma",
		Quantity:    1,
		Reason:      "x",
	})
	require.NoError(t, err)

	_, err = f.uc.Approve(context.Background(), ret.ID, testApproverName)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApprove_DevolucionInexistente(t *testing.T) {
	f := newReturnFixture(t, 10)
	_, err := f.uc.Approve(context.Background(), "ret-x", testApproverName)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazo
// ──────────────────────────────────────────────────────────────────────────────

func TestReject_FijaEstadoSinTocarStock(t *testing.T) {
	f := newReturnFixture(t, 10)
	ret := f.createPending(t, 2)

	out, err := f.uc.Reject(context.Background(), ret.ID, testApproverName)
	require.NoError(t, err)

	assert.Equal(t, entity.ReturnStatusRejected, out.Status)
	assert.Equal(t, int64(10), f.products.Quantity(testProductID))
	assert.Empty(t, f.movements.All())

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventReturnRejected, events[0].Type)
}

func TestReject_DespuesDeAprobarFalla(t *testing.T) {
	f := newReturnFixture(t, 10)
	ret := f.createPending(t, 1)
	ctx := context.Background()

	_, err := f.uc.Approve(ctx, ret.ID, testApproverName)
	require.NoError(t, err)

	_, err = f.uc.Reject(ctx, ret.ID, testApproverName)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition,
		"approved es terminal, no admite rechazo posterior")
}

package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/apptest"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	testProductID = "prod-1"
	testUserID    = "user-1"
)

type ledgerFixture struct {
	uc        *ledger.StockLedgerUseCase
	products  *apptest.ProductStore
	movements *apptest.MovementStore
	tx        *apptest.TxRunner
	auditor   *apptest.RecorderSpy
}

func newLedgerFixture(t *testing.T, initialStock int64) *ledgerFixture {
	t.Helper()
	products := apptest.NewProductStore(&entity.Product{
		ID:       testProductID,
		SKU:      "SKU-001",
		Name:     "Tornillo 3/8",
		Price:    decimal.RequireFromString("0.50"),
		Quantity: initialStock,
	})
	users := apptest.NewUserStore(&entity.User{
		ID:   testUserID,
		Name: "Marta",
		Role: entity.RoleBodeguero,
	})
	movements := apptest.NewMovementStore()
	tx := apptest.NewTxRunner(products, movements)
	auditor := apptest.NewRecorderSpy()
	uc := ledger.NewStockLedgerUseCase(tx, products, movements, users, auditor, logger.Nop())
	return &ledgerFixture{uc: uc, products: products, movements: movements, tx: tx, auditor: auditor}
}

func inMovement(qty int64) ledger.MovementInput {
	return ledger.MovementInput{ProductID: testProductID, UserID: testUserID, Quantity: qty}
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas y salidas
// ──────────────────────────────────────────────────────────────────────────────

func TestProcessStockIn_SumaYRegistraSnapshots(t *testing.T) {
	f := newLedgerFixture(t, 10)

	mov, err := f.uc.ProcessStockIn(context.Background(), inMovement(5))
	require.NoError(t, err)

	assert.Equal(t, entity.MovementTypeIn, mov.Type)
	assert.Equal(t, int64(10), mov.PreviousStock)
	assert.Equal(t, int64(15), mov.NewStock)
	assert.Equal(t, int64(15), f.products.Quantity(testProductID),
		"la cantidad del producto debe reflejar la entrada")
	require.Len(t, f.movements.All(), 1)
}

func TestProcessStockOut_RestaConGuardia(t *testing.T) {
	f := newLedgerFixture(t, 10)

	mov, err := f.uc.ProcessStockOut(context.Background(), inMovement(4))
	require.NoError(t, err)

	assert.Equal(t, entity.MovementTypeOut, mov.Type)
	assert.Equal(t, int64(10), mov.PreviousStock)
	assert.Equal(t, int64(6), mov.NewStock)
	assert.Equal(t, int64(6), f.products.Quantity(testProductID))
}

func TestProcessStockOut_StockInsuficienteNoEscribeNada(t *testing.T) {
	f := newLedgerFixture(t, 3)

	_, err := f.uc.ProcessStockOut(context.Background(), inMovement(7))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(3), f.products.Quantity(testProductID),
		"una salida rechazada no debe tocar la cantidad")
	assert.Empty(t, f.movements.All(), "una salida rechazada no debe dejar movimiento")
	assert.Empty(t, f.auditor.Entries())
}

// Después de una serie de entradas y salidas la cantidad debe igualar la suma
// de entradas menos la suma de salidas aplicadas.
func TestLedger_CantidadIgualaEntradasMenosSalidas(t *testing.T) {
	f := newLedgerFixture(t, 0)
	ctx := context.Background()

	for _, qty := range []int64{10, 25, 5} {
		_, err := f.uc.ProcessStockIn(ctx, inMovement(qty))
		require.NoError(t, err)
	}
	for _, qty := range []int64{8, 12} {
		_, err := f.uc.ProcessStockOut(ctx, inMovement(qty))
		require.NoError(t, err)
	}

	assert.Equal(t, int64(40-20), f.products.Quantity(testProductID))

	summary, err := f.uc.Summary(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, int64(40), summary[0].TotalIn)
	assert.Equal(t, int64(20), summary[0].TotalOut)
	assert.Equal(t, int64(5), summary[0].Movements)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vía cruda: clamp a cero
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovement_SalidaExcedenteRecortaACeroConWarning(t *testing.T) {
	f := newLedgerFixture(t, 3)

	input := inMovement(7)
	input.Type = entity.MovementTypeOut
	mov, err := f.uc.ApplyMovement(context.Background(), input)
	require.NoError(t, err, "la vía administrativa no rechaza por stock insuficiente")

	assert.Equal(t, int64(3), mov.PreviousStock)
	assert.Equal(t, int64(0), mov.NewStock, "el recorte deja la cantidad en cero, nunca negativa")
	assert.Equal(t, int64(0), f.products.Quantity(testProductID))

	entries := f.auditor.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditSeverityWarning, entries[0].Severity,
		"el recorte debe auditarse con severidad warning")
	details, ok := entries[0].Details.(entity.MovementDetails)
	require.True(t, ok)
	assert.True(t, details.Clamped)
}

func TestApplyMovement_SalidaNormalAuditaConInfo(t *testing.T) {
	f := newLedgerFixture(t, 10)

	input := inMovement(10)
	input.Type = entity.MovementTypeOut
	_, err := f.uc.ApplyMovement(context.Background(), input)
	require.NoError(t, err)

	entries := f.auditor.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditSeverityInfo, entries[0].Severity,
		"consumir exactamente el disponible no es un recorte")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones y metadatos
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovement_Validaciones(t *testing.T) {
	f := newLedgerFixture(t, 10)
	ctx := context.Background()

	casos := []struct {
		nombre string
		mutar  func(*ledger.MovementInput)
		want   error
	}{
		{"cantidad cero", func(in *ledger.MovementInput) { in.Quantity = 0 }, domain.ErrInvalidInput},
		{"cantidad negativa", func(in *ledger.MovementInput) { in.Quantity = -5 }, domain.ErrInvalidInput},
		{"tipo desconocido", func(in *ledger.MovementInput) { in.Type = "transfer" }, domain.ErrInvalidInput},
		{"sin producto", func(in *ledger.MovementInput) { in.ProductID = "" }, domain.ErrInvalidInput},
		{"producto inexistente", func(in *ledger.MovementInput) { in.ProductID = "prod-x" }, domain.ErrNotFound},
		{"usuario inexistente", func(in *ledger.MovementInput) { in.UserID = "user-x" }, domain.ErrUserNotFound},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			input := inMovement(5)
			input.Type = entity.MovementTypeIn
			tc.mutar(&input)
			_, err := f.uc.ApplyMovement(ctx, input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.movements.All(), "ninguna entrada inválida debe dejar movimiento")
}

func TestUpdateMovementMeta_SoloTocaReferenciaYNotas(t *testing.T) {
	f := newLedgerFixture(t, 10)
	ctx := context.Background()

	mov, err := f.uc.ProcessStockIn(ctx, inMovement(5))
	require.NoError(t, err)

	require.NoError(t, f.uc.UpdateMovementMeta(ctx, mov.ID, "ajuste:123", "conteo físico"))

	movs := f.movements.All()
	require.Len(t, movs, 1)
	assert.Equal(t, "ajuste:123", movs[0].Reference)
	assert.Equal(t, "conteo físico", movs[0].Notes)
	// Cantidades y snapshots intactos: el update jamás re-aplica el delta.
	assert.Equal(t, int64(5), movs[0].Quantity)
	assert.Equal(t, int64(10), movs[0].PreviousStock)
	assert.Equal(t, int64(15), movs[0].NewStock)
	assert.Equal(t, int64(15), f.products.Quantity(testProductID))
}

func TestUpdateMovementMeta_MovimientoInexistente(t *testing.T) {
	f := newLedgerFixture(t, 10)
	err := f.uc.UpdateMovementMeta(context.Background(), "mov-x", "ref", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuildMovement_PrecioUnitarioCalculaTotal(t *testing.T) {
	f := newLedgerFixture(t, 10)

	price := decimal.RequireFromString("19.99")
	input := inMovement(3)
	input.UnitPrice = &price
	mov, err := f.uc.ProcessStockIn(context.Background(), input)
	require.NoError(t, err)

	require.NotNil(t, mov.TotalAmount)
	assert.True(t, mov.TotalAmount.Equal(decimal.RequireFromString("59.97")))
}

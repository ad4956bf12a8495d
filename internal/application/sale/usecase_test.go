package sale_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/apptest"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/application/notify"
	"github.com/tu-usuario/stock-ledger/internal/application/sale"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

const (
	testProductID = "prod-1"
	testUserID    = "user-1"
)

type saleFixture struct {
	uc        *sale.ProcessSaleUseCase
	products  *apptest.ProductStore
	movements *apptest.MovementStore
	sales     *apptest.SaleStore
	auditor   *apptest.RecorderSpy
	notifier  *apptest.NotifierSpy
}

func newSaleFixture(t *testing.T, initialStock int64) *saleFixture {
	t.Helper()
	products := apptest.NewProductStore(&entity.Product{
		ID:       testProductID,
		SKU:      "SKU-001",
		Name:     "Aceite 1L",
		Price:    decimal.RequireFromString("19.99"),
		Quantity: initialStock,
	})
	users := apptest.NewUserStore(&entity.User{ID: testUserID, Name: "Pedro", Role: entity.RoleVendedor})
	movements := apptest.NewMovementStore()
	tx := apptest.NewTxRunner(products, movements)
	auditor := apptest.NewRecorderSpy()
	notifier := apptest.NewNotifierSpy()
	ledgerUC := ledger.NewStockLedgerUseCase(tx, products, movements, users, auditor, logger.Nop())
	uc := sale.NewProcessSaleUseCase(tx, ledgerUC, products, users, tx.Sales, auditor, notifier)
	return &saleFixture{uc: uc, products: products, movements: movements, sales: tx.Sales, auditor: auditor, notifier: notifier}
}

func saleInput(qty int64, price string) sale.SaleInput {
	return sale.SaleInput{
		ProductID: testProductID,
		UserID:    testUserID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func TestProcessSale_RegistraVentaYDescuentaStock(t *testing.T) {
	f := newSaleFixture(t, 10)

	out, err := f.uc.ProcessSale(context.Background(), saleInput(3, "19.99"))
	require.NoError(t, err)

	assert.Equal(t, entity.SaleStatusCompleted, out.Status)
	assert.True(t, out.TotalAmount.Equal(decimal.RequireFromString("59.97")),
		"total esperado 59.97, obtenido %s", out.TotalAmount)
	assert.Equal(t, int64(7), f.products.Quantity(testProductID))

	// La venta produce exactamente un movimiento OUT referenciándola.
	movs := f.movements.All()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeOut, movs[0].Type)
	assert.Equal(t, int64(3), movs[0].Quantity)
	assert.Equal(t, "sale:"+out.ID, movs[0].Reference)

	assert.Equal(t, 1, f.sales.Count())
}

func TestProcessSale_StockInsuficienteNoEscribeNada(t *testing.T) {
	f := newSaleFixture(t, 2)

	_, err := f.uc.ProcessSale(context.Background(), saleInput(5, "19.99"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(2), f.products.Quantity(testProductID))
	assert.Equal(t, 0, f.sales.Count(), "una venta rechazada no debe persistirse")
	assert.Empty(t, f.movements.All())
	assert.Empty(t, f.notifier.Events())
}

// Venta y movimiento viven en la misma transacción: si el movimiento falla,
// la venta tampoco queda registrada.
func TestProcessSale_FalloDelMovimientoRevierteLaVenta(t *testing.T) {
	f := newSaleFixture(t, 10)
	f.movements.FailCreate = errors.New("disco lleno")

	_, err := f.uc.ProcessSale(context.Background(), saleInput(3, "19.99"))
	require.Error(t, err)

	assert.Equal(t, 0, f.sales.Count(), "la venta debe revertirse junto con el movimiento")
	assert.Equal(t, int64(10), f.products.Quantity(testProductID))
}

func TestProcessSale_Validaciones(t *testing.T) {
	f := newSaleFixture(t, 10)
	ctx := context.Background()

	casos := []struct {
		nombre string
		input  sale.SaleInput
		want   error
	}{
		{"cantidad cero", saleInput(0, "19.99"), domain.ErrInvalidInput},
		{"precio cero", saleInput(3, "0"), domain.ErrInvalidInput},
		{"precio negativo", saleInput(3, "-1"), domain.ErrInvalidInput},
		{"producto inexistente", sale.SaleInput{ProductID: "prod-x", UserID: testUserID, Quantity: 1, UnitPrice: decimal.New(1, 0)}, domain.ErrNotFound},
		{"usuario inexistente", sale.SaleInput{ProductID: testProductID, UserID: "user-x", Quantity: 1, UnitPrice: decimal.New(1, 0)}, domain.ErrUserNotFound},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := f.uc.ProcessSale(ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 0, f.sales.Count())
}

func TestProcessSale_AuditaYNotifica(t *testing.T) {
	f := newSaleFixture(t, 10)

	out, err := f.uc.ProcessSale(context.Background(), saleInput(2, "5.00"))
	require.NoError(t, err)

	var saleEntries []apptest.RecordedEntry
	for _, e := range f.auditor.Entries() {
		if e.TableName == "sales" {
			saleEntries = append(saleEntries, e)
		}
	}
	require.Len(t, saleEntries, 1)
	assert.Equal(t, out.ID, saleEntries[0].RecordID)
	assert.Equal(t, testUserID, saleEntries[0].UserID)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventSaleCompleted, events[0].Type)
	assert.Equal(t, out.ID, events[0].RecordID)
}

func TestGetByID_VentaInexistente(t *testing.T) {
	f := newSaleFixture(t, 10)
	_, err := f.uc.GetByID(context.Background(), "sale-x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package purchase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/apptest"
	"github.com/tu-usuario/stock-ledger/internal/application/notify"
	"github.com/tu-usuario/stock-ledger/internal/application/purchase"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

const (
	testSupplierID = "sup-1"
	testProductID  = "prod-1"
	testUserID     = "user-1"
)

// pdfStub evita generar un PDF real en los tests del caso de uso.
type pdfStub struct {
	calls int
}

func (p *pdfStub) GenerateOrderPDF(_ context.Context, _ *entity.PurchaseOrder, _ *entity.Supplier, _ map[string]*entity.Product) ([]byte, error) {
	p.calls++
	return []byte("%PDF-stub"), nil
}

type purchaseFixture struct {
	uc       *purchase.PurchaseOrderUseCase
	orders   *apptest.OrderStore
	auditor  *apptest.RecorderSpy
	notifier *apptest.NotifierSpy
	pdf      *pdfStub
}

func newPurchaseFixture(t *testing.T, supplierActive bool) *purchaseFixture {
	t.Helper()
	products := apptest.NewProductStore(&entity.Product{
		ID:       testProductID,
		SKU:      "SKU-001",
		Name:     "Cable UTP cat6",
		Price:    decimal.RequireFromString("1.20"),
		Quantity: 100,
	})
	suppliers := apptest.NewSupplierStore(&entity.Supplier{
		ID:     testSupplierID,
		Name:   "Distribuidora Norte",
		Active: supplierActive,
	})
	users := apptest.NewUserStore(&entity.User{ID: testUserID, Name: "Carlos", Role: entity.RoleAdmin})
	tx := apptest.NewTxRunner(products, apptest.NewMovementStore())
	auditor := apptest.NewRecorderSpy()
	notifier := apptest.NewNotifierSpy()
	pdf := &pdfStub{}
	uc := purchase.NewPurchaseOrderUseCase(tx, tx.Orders, suppliers, products, users, auditor, notifier, pdf)
	return &purchaseFixture{uc: uc, orders: tx.Orders, auditor: auditor, notifier: notifier, pdf: pdf}
}

func orderInput(orderNumber string) purchase.OrderInput {
	return purchase.OrderInput{
		SupplierID:  testSupplierID,
		UserID:      testUserID,
		OrderNumber: orderNumber,
		Items: []purchase.OrderItemInput{
			{ProductID: testProductID, Quantity: 10, UnitPrice: decimal.RequireFromString("2.50")},
			{ProductID: testProductID, Quantity: 4, UnitPrice: decimal.RequireFromString("1.25")},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_CalculaTotalesDeLineaYOrden(t *testing.T) {
	f := newPurchaseFixture(t, true)

	order, err := f.uc.Create(context.Background(), orderInput("OC-2026-001"))
	require.NoError(t, err)

	assert.Equal(t, entity.PurchaseOrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].LineTotal.Equal(decimal.RequireFromString("25")))
	assert.True(t, order.Items[1].LineTotal.Equal(decimal.RequireFromString("5")))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("30")),
		"total esperado 30, obtenido %s", order.TotalAmount)
}

func TestCreate_NumeroDeOrdenDuplicado(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, orderInput("OC-2026-001"))
	require.NoError(t, err)

	_, err = f.uc.Create(ctx, orderInput("OC-2026-001"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreate_ProveedorInactivo(t *testing.T) {
	f := newPurchaseFixture(t, false)

	_, err := f.uc.Create(context.Background(), orderInput("OC-2026-001"))
	assert.ErrorIs(t, err, domain.ErrSupplierInactive)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()

	sinItems := orderInput("OC-1")
	sinItems.Items = nil

	cantidadCero := orderInput("OC-2")
	cantidadCero.Items[0].Quantity = 0

	precioCero := orderInput("OC-3")
	precioCero.Items[0].UnitPrice = decimal.Zero

	productoFantasma := orderInput("OC-4")
	productoFantasma.Items[0].ProductID = "prod-x"

	casos := []struct {
		nombre string
		input  purchase.OrderInput
		want   error
	}{
		{"sin ítems", sinItems, domain.ErrInvalidInput},
		{"cantidad cero", cantidadCero, domain.ErrInvalidInput},
		{"precio cero", precioCero, domain.ErrInvalidInput},
		{"producto inexistente", productoFantasma, domain.ErrNotFound},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := f.uc.Create(ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobación y rechazo
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_RegistraQuienYCuando(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, orderInput("OC-2026-001"))
	require.NoError(t, err)

	out, err := f.uc.Approve(ctx, order.ID, testUserID)
	require.NoError(t, err)

	assert.Equal(t, entity.PurchaseOrderStatusApproved, out.Status)
	assert.Equal(t, testUserID, out.ApprovedBy)
	require.NotNil(t, out.ApprovedAt)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventOrderApproved, events[0].Type)
}

// La segunda aprobación falla: re-aprobar sobreescribiría aprobador y fecha.
func TestApprove_DobleAprobacionFalla(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, orderInput("OC-2026-001"))
	require.NoError(t, err)

	_, err = f.uc.Approve(ctx, order.ID, testUserID)
	require.NoError(t, err)

	_, err = f.uc.Approve(ctx, order.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, testUserID, stored.ApprovedBy, "el aprobador original no debe cambiar")
}

// El rechazo sin motivo se bloquea antes de tocar la orden: sigue pendiente y
// aun puede aprobarse.
func TestReject_SinMotivoNoCambiaNada(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, orderInput("OC-2026-001"))
	require.NoError(t, err)

	_, err = f.uc.Reject(ctx, order.ID, testUserID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	stored, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseOrderStatusPending, stored.Status)

	_, err = f.uc.Approve(ctx, order.ID, testUserID)
	assert.NoError(t, err, "la orden sigue aprobable tras el rechazo inválido")
}

func TestReject_ConMotivoFijaEstadoYRazon(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, orderInput("OC-2026-001"))
	require.NoError(t, err)

	out, err := f.uc.Reject(ctx, order.ID, testUserID, "precios desactualizados")
	require.NoError(t, err)

	assert.Equal(t, entity.PurchaseOrderStatusRejected, out.Status)
	assert.Equal(t, "precios desactualizados", out.RejectionReason)
	require.NotNil(t, out.RejectedAt)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escape administrativo y PDF
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateStatus_FuerzaEstadoYAuditaConWarning(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, orderInput("OC-2026-001"))
	require.NoError(t, err)
	_, err = f.uc.Approve(ctx, order.ID, testUserID)
	require.NoError(t, err)

	// Volver a pending, algo que la máquina de estados no permite.
	out, err := f.uc.UpdateStatus(ctx, order.ID, entity.PurchaseOrderStatusPending, testUserID)
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseOrderStatusPending, out.Status)

	entries := f.auditor.Entries()
	var forced *apptest.RecordedEntry
	for i := range entries {
		if entries[i].Severity == entity.AuditSeverityWarning {
			forced = &entries[i]
		}
	}
	require.NotNil(t, forced, "el escape administrativo siempre deja rastro con warning")
	details, ok := forced.Details.(entity.OrderDetails)
	require.True(t, ok)
	assert.True(t, details.Forced)
}

func TestUpdateStatus_EstadoDesconocidoFalla(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, orderInput("OC-2026-001"))
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, order.ID, "shipped", testUserID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGeneratePDF_DelegaAlGenerador(t *testing.T) {
	f := newPurchaseFixture(t, true)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, orderInput("OC-2026-001"))
	require.NoError(t, err)

	pdf, err := f.uc.GeneratePDF(ctx, order.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, 1, f.pdf.calls)
}

func TestGetByID_OrdenInexistente(t *testing.T) {
	f := newPurchaseFixture(t, true)
	_, err := f.uc.GetByID(context.Background(), "order-x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

func TestApplyTo_EntradaSumaAlDisponible(t *testing.T) {
	newStock, clamped := entity.ApplyTo(10, entity.MovementTypeIn, 5)
	assert.Equal(t, int64(15), newStock)
	assert.False(t, clamped)
}

func TestApplyTo_SalidaRestaDelDisponible(t *testing.T) {
	newStock, clamped := entity.ApplyTo(10, entity.MovementTypeOut, 4)
	assert.Equal(t, int64(6), newStock)
	assert.False(t, clamped)
}

func TestApplyTo_SalidaExactaDejaCero(t *testing.T) {
	newStock, clamped := entity.ApplyTo(10, entity.MovementTypeOut, 10)
	assert.Equal(t, int64(0), newStock)
	assert.False(t, clamped, "consumir todo el stock no es un recorte")
}

// La salida que excede el disponible se recorta a cero y se reporta: la
// cantidad de un producto jamás queda negativa.
func TestApplyTo_SalidaExcedenteRecortaACero(t *testing.T) {
	newStock, clamped := entity.ApplyTo(3, entity.MovementTypeOut, 7)
	assert.Equal(t, int64(0), newStock)
	assert.True(t, clamped)
}

func TestIsValidMovementType(t *testing.T) {
	assert.True(t, entity.IsValidMovementType(entity.MovementTypeIn))
	assert.True(t, entity.IsValidMovementType(entity.MovementTypeOut))
	assert.False(t, entity.IsValidMovementType("transfer"))
	assert.False(t, entity.IsValidMovementType(""))
}

// El total de la venta se calcula con aritmética decimal exacta, sin los
// errores de redondeo de float64 (3 × 19.99 debe dar 59.97 exacto).
func TestSale_ComputeTotal_DecimalExacto(t *testing.T) {
	s := &entity.Sale{
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("19.99"),
	}
	assert.True(t, s.ComputeTotal().Equal(decimal.RequireFromString("59.97")),
		"total esperado 59.97, obtenido %s", s.ComputeTotal())
}

func TestPurchaseOrderItem_ComputeLineTotal(t *testing.T) {
	item := &entity.PurchaseOrderItem{
		Quantity:  12,
		UnitPrice: decimal.RequireFromString("2.50"),
	}
	assert.True(t, item.ComputeLineTotal().Equal(decimal.RequireFromString("30")))
}

func TestIsValidPurchaseOrderStatus(t *testing.T) {
	assert.True(t, entity.IsValidPurchaseOrderStatus(entity.PurchaseOrderStatusPending))
	assert.True(t, entity.IsValidPurchaseOrderStatus(entity.PurchaseOrderStatusApproved))
	assert.True(t, entity.IsValidPurchaseOrderStatus(entity.PurchaseOrderStatusRejected))
	assert.False(t, entity.IsValidPurchaseOrderStatus("shipped"))
	assert.False(t, entity.IsValidPurchaseOrderStatus(""))
}

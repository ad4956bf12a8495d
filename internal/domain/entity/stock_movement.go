package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIn  = "in"  // entrada
	MovementTypeOut = "out" // salida
)

// IsValidMovementType valida el tipo de movimiento.
func IsValidMovementType(t string) bool {
	return t == MovementTypeIn || t == MovementTypeOut
}

// StockMovement representa un delta aplicado a la cantidad de un producto,
// con snapshot de la cantidad anterior y la nueva. El registro es inmutable
// después de creado: solo Notes y Reference admiten actualización posterior,
// nunca las cantidades ni los snapshots.
type StockMovement struct {
	ID            string
	ProductID     string
	UserID        string
	Type          string // in, out
	Quantity      int64  // siempre > 0; la dirección la da Type
	PreviousStock int64
	NewStock      int64
	UnitPrice     *decimal.Decimal
	TotalAmount   *decimal.Decimal
	Reference     string // venta, devolución, orden, nota de ajuste, etc.
	Notes         string
	CreatedAt     time.Time
}

// ApplyTo calcula la cantidad resultante de aplicar el movimiento sobre
// previous. Las salidas se recortan a cero (clamp); el caller decide si el
// recorte es esperado (override administrativo) o una inconsistencia.
func ApplyTo(previous int64, movementType string, quantity int64) (newStock int64, clamped bool) {
	switch movementType {
	case MovementTypeIn:
		return previous + quantity, false
	case MovementTypeOut:
		if quantity > previous {
			return 0, true
		}
		return previous - quantity, false
	}
	return previous, false
}

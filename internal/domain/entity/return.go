package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una devolución. pending es el inicial; approved y rejected son
// terminales: ninguna transición es válida desde ellos.
const (
	ReturnStatusPending  = "pending"
	ReturnStatusApproved = "approved"
	ReturnStatusRejected = "rejected"
)

// Return representa una devolución de cliente. Se captura por nombre de
// producto (el mostrador no siempre conoce el ID) y se resuelve al producto
// al momento de procesarla. La aprobación descuenta stock vía ledger.
type Return struct {
	ID            string
	ProductName   string
	ProductID     string // resuelto al crear si el nombre coincide; vacío si no
	Quantity      int64  // > 0
	Reason        string // obligatorio
	Amount        decimal.Decimal // Quantity × precio resuelto, o 0 si no se resolvió
	Status        string
	RequestedBy   string // nombre del solicitante, se resuelve a User al procesar
	ReturnDate    time.Time
	ProcessedDate *time.Time // se fija al aprobar o rechazar
	ProcessedBy   string     // UserID que dispuso la devolución
	CreatedAt     time.Time
}

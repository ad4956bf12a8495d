package repository

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// MovementSummary es el agregado por producto calculado en la base de datos
// (una sola consulta GROUP BY, no agrupación en memoria).
type MovementSummary struct {
	ProductID string
	TotalIn   int64
	TotalOut  int64
	Movements int64
}

// StockMovementRepository define el puerto de persistencia para movimientos.
// Los movimientos son inmutables: UpdateMeta solo toca Notes y Reference.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	UpdateMeta(id, reference, notes string) error
	SummaryByProduct(from, to *time.Time) ([]MovementSummary, error)
}

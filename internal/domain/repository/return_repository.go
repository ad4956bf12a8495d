package repository

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// ReturnRepository define el puerto de persistencia para devoluciones.
// UpdateStatusFromPending implementa compare-and-swap sobre el estado: solo
// actualiza si el estado actual es pending y reporta si hubo coincidencia,
// lo que vuelve imposible la doble aprobación (no solo improbable).
type ReturnRepository interface {
	Create(ret *entity.Return) error
	GetByID(id string) (*entity.Return, error)
	List(status string, limit, offset int) ([]*entity.Return, error)
	// UpdateStatusFromPending fija status, processed_date y processed_by
	// únicamente si la fila sigue en pending. Devuelve false si no lo estaba.
	UpdateStatusFromPending(id, newStatus, processedBy string, processedAt time.Time) (bool, error)
}

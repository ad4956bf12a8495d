package repository

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// AuditLogRepository define el puerto de persistencia del registro de
// auditoría. Append-only: no existen Update ni Delete.
type AuditLogRepository interface {
	Create(log *entity.AuditLog) error
	List(tableName string, from, to *time.Time, limit, offset int) ([]*entity.AuditLog, error)
}

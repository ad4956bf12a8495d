package repository

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas.
type SaleRepository interface {
	Create(sale *entity.Sale) error
	GetByID(id string) (*entity.Sale, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Sale, error)
	List(from, to *time.Time, limit, offset int) ([]*entity.Sale, error)
}

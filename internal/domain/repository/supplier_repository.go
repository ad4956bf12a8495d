package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// SupplierRepository define el puerto de persistencia para Supplier (DIP).
type SupplierRepository interface {
	Create(supplier *entity.Supplier) error
	GetByID(id string) (*entity.Supplier, error)
	List(onlyActive bool, limit, offset int) ([]*entity.Supplier, error)
	Update(supplier *entity.Supplier) error
}

package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
// UpdateQuantity solo debe invocarse desde el ledger, dentro de la misma
// transacción que insertó el movimiento correspondiente.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	// GetByIDForUpdate bloquea la fila del producto (SELECT FOR UPDATE);
	// usar solo dentro de una transacción.
	GetByIDForUpdate(id string) (*entity.Product, error)
	// GetByName resuelve un producto por nombre, sin distinguir mayúsculas
	// (primera coincidencia).
	GetByName(name string) (*entity.Product, error)
	Update(product *entity.Product) error
	UpdateQuantity(productID string, quantity int64) error
	List(limit, offset int) ([]*entity.Product, error)
	Delete(id string) error
}

package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	// GetByName resuelve un usuario por nombre visible, sin distinguir
	// mayúsculas (primera coincidencia). Lo usa el flujo de devoluciones.
	GetByName(name string) (*entity.User, error)
	List(limit, offset int) ([]*entity.User, error)
	Update(user *entity.User) error
	Delete(id string) error
}

package entity

import "time"

// Supplier representa un proveedor. Solo proveedores activos pueden recibir
// órdenes de compra nuevas.
type Supplier struct {
	ID        string
	Name      string
	TaxID     string
	Email     string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

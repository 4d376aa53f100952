package entity

import "time"

// ProductType indica si el activo vuelve al inventario tras su uso.
type ProductType string

const (
	ProductReturnable    ProductType = "returnable"
	ProductNonReturnable ProductType = "non-returnable"
)

// Valid informa si el tipo es uno de los conocidos.
func (t ProductType) Valid() bool {
	return t == ProductReturnable || t == ProductNonReturnable
}

// Asset activo físico registrado por un hr. ProductQuantity nunca es negativo;
// con 0 el activo no admite nuevas solicitudes.
type Asset struct {
	ID              string
	ProductName     string
	ProductType     ProductType
	ProductQuantity int
	CompanyName     string
	HREmail         string // hr dueño del activo
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Available informa si quedan unidades para solicitar.
func (a *Asset) Available() bool {
	return a != nil && a.ProductQuantity > 0
}

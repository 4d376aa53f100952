package repository

import (
	"context"

	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// AssetFilter filtros de listado de activos. Campos vacíos no filtran.
type AssetFilter struct {
	HREmail       string
	Search        string
	ProductType   entity.ProductType
	OnlyAvailable bool
	Limit         int
	Offset        int
}

// AssetRepository define el puerto de persistencia para Asset (DIP).
type AssetRepository interface {
	Create(ctx context.Context, asset *entity.Asset) error
	GetByID(ctx context.Context, id string) (*entity.Asset, error)
	// Update escribe nombre y tipo. Nunca toca product_quantity.
	Update(ctx context.Context, asset *entity.Asset) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f AssetFilter) ([]*entity.Asset, int, error)
	// AdjustQuantity suma delta a product_quantity de forma atómica.
	// Devuelve domain.ErrInsufficientStock si el resultado sería negativo.
	AdjustQuantity(ctx context.Context, id string, delta int) error
	// SetQuantity fija product_quantity en to solo si sigue valiendo from.
	// Devuelve domain.ErrConflict si otra escritura la cambió entre medio.
	SetQuantity(ctx context.Context, id string, from, to int) error
}

package repository

import (
	"context"

	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Las búsquedas por email esperan el email ya normalizado.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context, role entity.Role, limit, offset int) ([]*entity.User, int, error)
	Delete(ctx context.Context, email string) error
	// AdjustEmployees suma delta a current_employees del hr respetando package_limit.
	// Devuelve domain.ErrPackageLimit si el incremento excede el límite.
	AdjustEmployees(ctx context.Context, hrEmail string, delta int) error
}

// AdminRepository consulta la membresía de administradores de plataforma.
// Es la fuente autoritativa del rol admin (el campo role del usuario no basta).
type AdminRepository interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

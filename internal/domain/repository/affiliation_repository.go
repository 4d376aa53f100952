package repository

import (
	"context"

	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// AffiliationRepository define el puerto de persistencia para afiliaciones empleado–empresa.
type AffiliationRepository interface {
	Exists(ctx context.Context, employeeEmail, hrEmail string) (bool, error)
	Create(ctx context.Context, a *entity.Affiliation) error
	ListByHR(ctx context.Context, hrEmail string) ([]*entity.Affiliation, error)
	Delete(ctx context.Context, employeeEmail, hrEmail string) error
}

// AuditRepository registro append-only de acciones.
type AuditRepository interface {
	Append(ctx context.Context, e *entity.AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]*entity.AuditEntry, error)
}

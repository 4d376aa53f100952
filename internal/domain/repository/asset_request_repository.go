package repository

import (
	"context"

	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// RequestFilter filtros de listado de solicitudes. Campos vacíos no filtran.
type RequestFilter struct {
	HREmail       string
	EmployeeEmail string
	Status        entity.RequestStatus
	Search        string
	Limit         int
	Offset        int
}

// AssetRequestRepository define el puerto de persistencia para AssetRequest (DIP).
type AssetRequestRepository interface {
	Create(ctx context.Context, req *entity.AssetRequest) error
	GetByID(ctx context.Context, id string) (*entity.AssetRequest, error)
	List(ctx context.Context, f RequestFilter) ([]*entity.AssetRequest, int, error)
	// FindPending devuelve la solicitud pending del empleado sobre el activo, o nil.
	FindPending(ctx context.Context, assetID, employeeEmail string) (*entity.AssetRequest, error)
	// FindApproved devuelve la solicitud approved más antigua del empleado sobre el activo, o nil.
	FindApproved(ctx context.Context, assetID, employeeEmail string) (*entity.AssetRequest, error)
	// UpdateStatus persiste estado, fechas y versión solo si la fila sigue en from
	// con la versión prevVersion. Si otra escritura ganó, devuelve domain.ErrConflict.
	UpdateStatus(ctx context.Context, req *entity.AssetRequest, from entity.RequestStatus, prevVersion int) error
	Delete(ctx context.Context, id string) error
	// AssignedTo activos approved sin devolver del empleado.
	AssignedTo(ctx context.Context, employeeEmail string) ([]entity.AssetRef, error)
}

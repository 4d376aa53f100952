package request

import (
	"context"

	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

// LifecycleRepos repositorios atados a una misma transacción.
type LifecycleRepos struct {
	Assets       repository.AssetRepository
	Requests     repository.AssetRequestRepository
	Users        repository.UserRepository
	Affiliations repository.AffiliationRepository
	Audit        repository.AuditRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD con repositorios atados a esa tx.
// Garantiza que estado de la solicitud, cantidad del activo y afiliación cambien juntos.
type TxRunner interface {
	RunLifecycle(ctx context.Context, fn func(r LifecycleRepos) error) error
}

// TransitionObserver recibe cada transición confirmada (métricas).
type TransitionObserver interface {
	ObserveTransition(from, to entity.RequestStatus)
}

// ReceiptGenerator genera el comprobante imprimible de una solicitud.
// asset puede ser nil si el activo ya no existe.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, req *entity.AssetRequest, asset *entity.Asset) ([]byte, error)
}

// Package request implementa el ciclo de vida de las solicitudes de activos del lado
// del servidor: creación, aprobación/rechazo por hr, devolución por el empleado y
// borrado. Las transiciones son condicionales al estado y versión leídos
// (concurrencia optimista): si otra escritura ganó, se devuelve domain.ErrConflict.
package request

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/lifecycle"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

// Acciones registradas en auditoría.
const (
	AuditCreate  = "request.create"
	AuditApprove = "request.approve"
	AuditReject  = "request.reject"
	AuditReturn  = "request.return"
	AuditDelete  = "request.delete"
)

// UseCase casos de uso del ciclo de vida de solicitudes.
type UseCase struct {
	tx       TxRunner
	repos    LifecycleRepos
	receipts ReceiptGenerator
	observer TransitionObserver
	now      func() time.Time
}

// NewUseCase construye el caso de uso. repos son los repositorios fuera de transacción
// (lecturas); observer puede ser nil.
func NewUseCase(tx TxRunner, repos LifecycleRepos, receipts ReceiptGenerator, observer TransitionObserver) *UseCase {
	return &UseCase{tx: tx, repos: repos, receipts: receipts, observer: observer, now: time.Now}
}

// Create registra una solicitud pending del empleado sobre un activo con unidades disponibles.
func (uc *UseCase) Create(ctx context.Context, p access.Principal, in dto.CreateAssetRequestRequest) (*dto.RequestResponse, error) {
	if p.Role() != entity.RoleEmployee {
		return nil, domain.ErrForbidden
	}
	if in.AssetID == "" {
		return nil, domain.ErrInvalidInput
	}
	asset, err := uc.repos.Assets.GetByID(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, domain.ErrNotFound
	}
	if !lifecycle.CanRequest(asset) {
		return nil, domain.ErrUnavailable
	}
	pending, err := uc.repos.Requests.FindPending(ctx, asset.ID, p.Email)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, domain.ErrDuplicate
	}
	user, err := uc.repos.Users.GetByEmail(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	req := &entity.AssetRequest{
		ID:            uuid.New().String(),
		AssetID:       asset.ID,
		EmployeeEmail: user.Email,
		EmployeeName:  user.Name,
		ProductName:   asset.ProductName,
		ProductType:   asset.ProductType,
		CompanyName:   asset.CompanyName,
		HREmail:       asset.HREmail,
		RequestDate:   uc.now(),
		Status:        entity.StatusPending,
		Note:          in.Note,
		Version:       1,
	}
	err = uc.tx.RunLifecycle(ctx, func(r LifecycleRepos) error {
		if err := r.Requests.Create(ctx, req); err != nil {
			return err
		}
		return r.Audit.Append(ctx, uc.audit(p.Email, AuditCreate, req.ID, asset.ProductName))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToRequestResponse(req), nil
}

// UpdateStatus aprueba o rechaza una solicitud pending de un activo del hr.
// Aprobar descuenta una unidad y afilia al empleado a la empresa si aún no lo está.
func (uc *UseCase) UpdateStatus(ctx context.Context, p access.Principal, id string, in dto.UpdateStatusRequest) (*dto.RequestResponse, error) {
	var action lifecycle.Action
	switch entity.RequestStatus(in.Status) {
	case entity.StatusApproved:
		action = lifecycle.ActionApprove
	case entity.StatusRejected:
		action = lifecycle.ActionReject
	default:
		return nil, domain.ErrInvalidInput
	}

	req, err := uc.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if in.Version != nil && *in.Version != req.Version {
		return nil, domain.ErrConflict
	}
	from, prevVersion := req.Status, req.Version
	if err := lifecycle.Apply(req, action, p.Role(), uc.now()); err != nil {
		return nil, err
	}

	err = uc.tx.RunLifecycle(ctx, func(r LifecycleRepos) error {
		if err := r.Requests.UpdateStatus(ctx, req, from, prevVersion); err != nil {
			return err
		}
		if action == lifecycle.ActionApprove {
			if err := r.Assets.AdjustQuantity(ctx, req.AssetID, lifecycle.QuantityDelta(from, req.Status, req.ProductType)); err != nil {
				return err
			}
			if err := uc.affiliate(ctx, r, req); err != nil {
				return err
			}
		}
		auditAction := AuditReject
		if action == lifecycle.ActionApprove {
			auditAction = AuditApprove
		}
		return r.Audit.Append(ctx, uc.audit(p.Email, auditAction, req.ID, req.EmployeeEmail))
	})
	if err != nil {
		return nil, err
	}
	uc.observe(from, req.Status)
	return dto.ToRequestResponse(req), nil
}

func (uc *UseCase) affiliate(ctx context.Context, r LifecycleRepos, req *entity.AssetRequest) error {
	ok, err := r.Affiliations.Exists(ctx, req.EmployeeEmail, req.HREmail)
	if err != nil || ok {
		return err
	}
	if err := r.Users.AdjustEmployees(ctx, req.HREmail, 1); err != nil {
		return err
	}
	return r.Affiliations.Create(ctx, &entity.Affiliation{
		EmployeeEmail: req.EmployeeEmail,
		EmployeeName:  req.EmployeeName,
		HREmail:       req.HREmail,
		CompanyName:   req.CompanyName,
		AffiliatedAt:  uc.now(),
	})
}

// Return devuelve una unidad returnable aprobada al inventario.
func (uc *UseCase) Return(ctx context.Context, p access.Principal, in dto.ReturnAssetRequest) (*dto.RequestResponse, error) {
	if in.AssetID == "" && in.RequestID == "" {
		return nil, domain.ErrInvalidInput
	}
	var (
		req *entity.AssetRequest
		err error
	)
	if in.RequestID != "" {
		req, err = uc.repos.Requests.GetByID(ctx, in.RequestID)
		if req != nil && in.AssetID != "" && req.AssetID != in.AssetID {
			return nil, domain.ErrInvalidInput
		}
	} else {
		req, err = uc.repos.Requests.FindApproved(ctx, in.AssetID, p.Email)
	}
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if req.EmployeeEmail != p.Email {
		return nil, domain.ErrForbidden
	}

	from, prevVersion := req.Status, req.Version
	if err := lifecycle.Apply(req, lifecycle.ActionReturn, p.Role(), uc.now()); err != nil {
		return nil, err
	}
	err = uc.tx.RunLifecycle(ctx, func(r LifecycleRepos) error {
		if err := r.Requests.UpdateStatus(ctx, req, from, prevVersion); err != nil {
			return err
		}
		if err := r.Assets.AdjustQuantity(ctx, req.AssetID, lifecycle.QuantityDelta(from, req.Status, req.ProductType)); err != nil {
			return err
		}
		return r.Audit.Append(ctx, uc.audit(p.Email, AuditReturn, req.ID, req.AssetID))
	})
	if err != nil {
		return nil, err
	}
	uc.observe(from, req.Status)
	return dto.ToRequestResponse(req), nil
}

// Delete borra una solicitud del hr sin importar su estado. No ajusta cantidades.
func (uc *UseCase) Delete(ctx context.Context, p access.Principal, id string) error {
	req, err := uc.owned(ctx, p, id)
	if err != nil {
		return err
	}
	if !lifecycle.Actions(req, p.Role()).Delete {
		return domain.ErrForbidden
	}
	return uc.tx.RunLifecycle(ctx, func(r LifecycleRepos) error {
		if err := r.Requests.Delete(ctx, req.ID); err != nil {
			return err
		}
		return r.Audit.Append(ctx, uc.audit(p.Email, AuditDelete, req.ID, string(req.Status)))
	})
}

// ListForHR lista las solicitudes sobre activos del hr.
func (uc *UseCase) ListForHR(ctx context.Context, p access.Principal, q dto.RequestQuery) (*dto.RequestListResponse, error) {
	return uc.list(ctx, repository.RequestFilter{HREmail: p.Email}, q)
}

// ListMine lista las solicitudes del empleado.
func (uc *UseCase) ListMine(ctx context.Context, p access.Principal, q dto.RequestQuery) (*dto.RequestListResponse, error) {
	return uc.list(ctx, repository.RequestFilter{EmployeeEmail: p.Email}, q)
}

func (uc *UseCase) list(ctx context.Context, f repository.RequestFilter, q dto.RequestQuery) (*dto.RequestListResponse, error) {
	if q.Status != "" && q.Status != "all" {
		st, ok := entity.ParseStatus(q.Status)
		if !ok {
			return nil, domain.ErrInvalidInput
		}
		f.Status = st
	}
	q.Normalize()
	f.Search, f.Limit, f.Offset = q.Search, q.Limit, q.Offset

	list, total, err := uc.repos.Requests.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.RequestResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *dto.ToRequestResponse(r))
	}
	return &dto.RequestListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

// Receipt genera el PDF de la solicitud para el empleado dueño o el hr del activo.
func (uc *UseCase) Receipt(ctx context.Context, p access.Principal, id string) ([]byte, error) {
	req, err := uc.repos.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if req.EmployeeEmail != p.Email && req.HREmail != p.Email {
		return nil, domain.ErrForbidden
	}
	asset, err := uc.repos.Assets.GetByID(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}
	return uc.receipts.GenerateReceipt(ctx, req, asset)
}

// owned obtiene la solicitud y verifica que el activo pertenezca al hr.
func (uc *UseCase) owned(ctx context.Context, p access.Principal, id string) (*entity.AssetRequest, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	req, err := uc.repos.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if req.HREmail != p.Email {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

func (uc *UseCase) audit(actor, action, requestID, detail string) *entity.AuditEntry {
	return &entity.AuditEntry{
		ID:         uuid.New().String(),
		ActorEmail: actor,
		Action:     action,
		EntityType: "asset_request",
		EntityID:   requestID,
		Detail:     detail,
		CreatedAt:  uc.now(),
	}
}

func (uc *UseCase) observe(from, to entity.RequestStatus) {
	if uc.observer != nil {
		uc.observer.ObserveTransition(from, to)
	}
}


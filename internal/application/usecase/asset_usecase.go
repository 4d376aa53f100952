package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

// AssetUseCase casos de uso CRUD para activos. La cantidad la ajustan además las
// transiciones de solicitudes (aprobación y devolución).
type AssetUseCase struct {
	repo  repository.AssetRepository
	users repository.UserRepository
}

// NewAssetUseCase construye el caso de uso.
func NewAssetUseCase(repo repository.AssetRepository, users repository.UserRepository) *AssetUseCase {
	return &AssetUseCase{repo: repo, users: users}
}

// Create registra un activo de la empresa del hr.
func (uc *AssetUseCase) Create(ctx context.Context, p access.Principal, in dto.CreateAssetRequest) (*dto.AssetResponse, error) {
	name := strings.TrimSpace(in.ProductName)
	pt := entity.ProductType(in.ProductType)
	if name == "" || !pt.Valid() || in.ProductQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	hr, err := uc.users.GetByEmail(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	if hr == nil {
		return nil, domain.ErrUserNotFound
	}
	now := time.Now()
	asset := &entity.Asset{
		ID:              uuid.New().String(),
		ProductName:     name,
		ProductType:     pt,
		ProductQuantity: in.ProductQuantity,
		CompanyName:     hr.CompanyName,
		HREmail:         hr.Email,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(ctx, asset); err != nil {
		return nil, err
	}
	return dto.ToAssetResponse(asset), nil
}

// GetByID obtiene un activo por ID.
func (uc *AssetUseCase) GetByID(ctx context.Context, id string) (*dto.AssetResponse, error) {
	asset, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, domain.ErrNotFound
	}
	return dto.ToAssetResponse(asset), nil
}

// Update actualiza un activo del hr. Nombre y tipo se escriben sin tocar la cantidad;
// una cantidad nueva se fija solo si nadie la cambió desde la lectura (domain.ErrConflict
// si una aprobación o devolución llegó antes).
func (uc *AssetUseCase) Update(ctx context.Context, p access.Principal, id string, in dto.UpdateAssetRequest) (*dto.AssetResponse, error) {
	asset, err := uc.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if in.ProductName != nil {
		name := strings.TrimSpace(*in.ProductName)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		asset.ProductName = name
	}
	if in.ProductType != nil {
		pt := entity.ProductType(*in.ProductType)
		if !pt.Valid() {
			return nil, domain.ErrInvalidInput
		}
		asset.ProductType = pt
	}
	if in.ProductQuantity != nil {
		if *in.ProductQuantity < 0 {
			return nil, domain.ErrInvalidInput
		}
		if *in.ProductQuantity != asset.ProductQuantity {
			if err := uc.repo.SetQuantity(ctx, id, asset.ProductQuantity, *in.ProductQuantity); err != nil {
				return nil, err
			}
		}
	}
	if in.ProductName != nil || in.ProductType != nil {
		asset.UpdatedAt = time.Now()
		if err := uc.repo.Update(ctx, asset); err != nil {
			return nil, err
		}
	}
	return uc.GetByID(ctx, id)
}

// Delete elimina un activo del hr (y en cascada sus solicitudes).
func (uc *AssetUseCase) Delete(ctx context.Context, p access.Principal, id string) error {
	if _, err := uc.owned(ctx, p, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

// List lista activos. hr ve solo los de su empresa; employee y admin ven todos.
func (uc *AssetUseCase) List(ctx context.Context, p access.Principal, q dto.AssetQuery) (*dto.AssetListResponse, error) {
	q.Normalize()
	f := repository.AssetFilter{
		Search:        strings.TrimSpace(q.Search),
		OnlyAvailable: q.Available,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	if q.Type != "" && q.Type != "all" {
		pt := entity.ProductType(q.Type)
		if !pt.Valid() {
			return nil, domain.ErrInvalidInput
		}
		f.ProductType = pt
	}
	if p.Role() == entity.RoleHR {
		f.HREmail = p.Email
	}
	list, total, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AssetResponse, 0, len(list))
	for _, a := range list {
		items = append(items, *dto.ToAssetResponse(a))
	}
	return &dto.AssetListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

func (uc *AssetUseCase) owned(ctx context.Context, p access.Principal, id string) (*entity.Asset, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	asset, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, domain.ErrNotFound
	}
	if asset.HREmail != p.Email {
		return nil, domain.ErrForbidden
	}
	return asset, nil
}

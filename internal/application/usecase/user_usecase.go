package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

// Acciones de auditoría de usuarios.
const (
	AuditUserDelete     = "user.delete"
	AuditEmployeeRemove = "employee.remove"
)

// RoleInvalidator descarta el rol cacheado de un email.
type RoleInvalidator interface {
	Invalidate(ctx context.Context, email string)
}

// UserUseCase perfiles, administración de usuarios y empleados afiliados.
type UserUseCase struct {
	users        repository.UserRepository
	admins       repository.AdminRepository
	requests     repository.AssetRequestRepository
	affiliations repository.AffiliationRepository
	audit        repository.AuditRepository
	tx           request.TxRunner
	roles        RoleInvalidator
}

// NewUserUseCase construye el caso de uso. roles puede ser nil.
func NewUserUseCase(repos request.LifecycleRepos, admins repository.AdminRepository, tx request.TxRunner, roles RoleInvalidator) *UserUseCase {
	return &UserUseCase{
		users:        repos.Users,
		admins:       admins,
		requests:     repos.Requests,
		affiliations: repos.Affiliations,
		audit:        repos.Audit,
		tx:           tx,
		roles:        roles,
	}
}

// AdminCheck informa si email es administrador de plataforma.
func (uc *UserUseCase) AdminCheck(ctx context.Context, email string) (*dto.AdminCheckResponse, error) {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrInvalidInput
	}
	ok, err := uc.admins.IsAdmin(ctx, email)
	if err != nil {
		return nil, err
	}
	return &dto.AdminCheckResponse{IsAdmin: ok}, nil
}

// GetProfile devuelve el usuario con sus activos asignados. Lo pueden ver el propio
// usuario, un admin o el hr de una empresa a la que está afiliado.
func (uc *UserUseCase) GetProfile(ctx context.Context, p access.Principal, email string) (*dto.UserResponse, error) {
	email = entity.NormalizeEmail(email)
	if err := uc.canView(ctx, p, email); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	assets, err := uc.requests.AssignedTo(ctx, email)
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(user, assets), nil
}

func (uc *UserUseCase) canView(ctx context.Context, p access.Principal, email string) error {
	switch {
	case email == "":
		return domain.ErrInvalidInput
	case p.Email == email, p.Role() == entity.RoleAdmin:
		return nil
	case p.Role() == entity.RoleHR:
		ok, err := uc.affiliations.Exists(ctx, email, p.Email)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return domain.ErrForbidden
}

// UpdateProfile actualiza nombre y (solo hr) logo de empresa del propio usuario.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, p access.Principal, email string, in dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	email = entity.NormalizeEmail(email)
	if email != p.Email {
		return nil, domain.ErrForbidden
	}
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		user.Name = name
	}
	if in.CompanyLogo != nil {
		if user.Role != entity.RoleHR {
			return nil, domain.ErrInvalidInput
		}
		user.CompanyLogo = strings.TrimSpace(*in.CompanyLogo)
	}
	user.UpdatedAt = time.Now()
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	assets, err := uc.requests.AssignedTo(ctx, email)
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(user, assets), nil
}

// ListUsers lista usuarios para el panel de admin; role vacío no filtra.
func (uc *UserUseCase) ListUsers(ctx context.Context, role string, q dto.PageRequest) (*dto.UserListResponse, error) {
	var r entity.Role
	if role != "" && role != "all" {
		parsed, ok := entity.ParseRole(role)
		if !ok {
			return nil, domain.ErrInvalidInput
		}
		r = parsed
	}
	return uc.list(ctx, r, q)
}

// ListOrganizations lista las empresas (usuarios hr) con su paquete y ocupación.
func (uc *UserUseCase) ListOrganizations(ctx context.Context, q dto.PageRequest) (*dto.UserListResponse, error) {
	return uc.list(ctx, entity.RoleHR, q)
}

func (uc *UserUseCase) list(ctx context.Context, role entity.Role, q dto.PageRequest) (*dto.UserListResponse, error) {
	q.Normalize()
	list, total, err := uc.users.List(ctx, role, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *dto.ToUserResponse(u, nil))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

// DeleteUser borra un usuario (admin) e invalida su rol cacheado. Un admin no puede
// borrarse a sí mismo.
func (uc *UserUseCase) DeleteUser(ctx context.Context, p access.Principal, email string) error {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return domain.ErrInvalidInput
	}
	if email == p.Email {
		return domain.ErrForbidden
	}
	err := uc.tx.RunLifecycle(ctx, func(r request.LifecycleRepos) error {
		if err := r.Users.Delete(ctx, email); err != nil {
			return err
		}
		return r.Audit.Append(ctx, newAudit(p.Email, AuditUserDelete, "user", email, ""))
	})
	if err != nil {
		return err
	}
	if uc.roles != nil {
		uc.roles.Invalidate(ctx, email)
	}
	return nil
}

// ListEmployees lista los empleados afiliados a la empresa del hr.
func (uc *UserUseCase) ListEmployees(ctx context.Context, p access.Principal) ([]dto.EmployeeResponse, error) {
	list, err := uc.affiliations.ListByHR(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EmployeeResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.EmployeeResponse{
			Email:        a.EmployeeEmail,
			Name:         a.EmployeeName,
			CompanyName:  a.CompanyName,
			AffiliatedAt: a.AffiliatedAt,
		})
	}
	return out, nil
}

// RemoveEmployee desafilia un empleado y libera su cupo en el paquete del hr.
func (uc *UserUseCase) RemoveEmployee(ctx context.Context, p access.Principal, email string) error {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return domain.ErrInvalidInput
	}
	return uc.tx.RunLifecycle(ctx, func(r request.LifecycleRepos) error {
		if err := r.Affiliations.Delete(ctx, email, p.Email); err != nil {
			return err
		}
		if err := r.Users.AdjustEmployees(ctx, p.Email, -1); err != nil {
			return err
		}
		return r.Audit.Append(ctx, newAudit(p.Email, AuditEmployeeRemove, "affiliation", email, ""))
	})
}

// ListAudit devuelve el registro de auditoría, más reciente primero.
func (uc *UserUseCase) ListAudit(ctx context.Context, q dto.PageRequest) ([]dto.AuditEntryResponse, error) {
	q.Normalize()
	list, err := uc.audit.List(ctx, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.ToAuditEntryResponse(e))
	}
	return out, nil
}

func newAudit(actor, action, entityType, entityID, detail string) *entity.AuditEntry {
	return &entity.AuditEntry{
		ID:         uuid.New().String(),
		ActorEmail: actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
}

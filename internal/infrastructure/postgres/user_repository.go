package postgres

import (
	"context"
	"fmt"

	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

var (
	_ repository.UserRepository  = (*UserRepo)(nil)
	_ repository.AdminRepository = (*AdminRepo)(nil)
)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, email, name, password_hash, role, company_name, company_logo,
	package_limit, current_employees, subscription, paid, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CompanyName, &u.CompanyLogo,
		&u.PackageLimit, &u.CurrentEmployees, &u.Subscription, &u.Paid, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.CompanyName, u.CompanyLogo,
		u.PackageLimit, u.CurrentEmployees, u.Subscription, u.Paid, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail obtiene un usuario por email. Devuelve nil, nil si no existe.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.q.QueryRow(ctx, query, email))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// Update actualiza los campos editables de un usuario.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	query := `
		UPDATE users SET name = $2, company_name = $3, company_logo = $4, package_limit = $5,
			subscription = $6, paid = $7, updated_at = $8
		WHERE email = $1`
	tag, err := r.q.Exec(ctx, query,
		u.Email, u.Name, u.CompanyName, u.CompanyLogo, u.PackageLimit, u.Subscription, u.Paid, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista usuarios ordenados por email; role vacío no filtra.
func (r *UserRepo) List(ctx context.Context, role entity.Role, limit, offset int) ([]*entity.User, int, error) {
	var total int
	if err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE ($1 = '' OR role = $1)`, string(role),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY email LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, string(role), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, total, rows.Err()
}

// Delete borra un usuario; sus afiliaciones caen por FK en cascada.
func (r *UserRepo) Delete(ctx context.Context, email string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustEmployees suma delta a current_employees con un UPDATE condicional: el límite del
// paquete se verifica en la misma sentencia para que dos aprobaciones simultáneas no lo excedan.
func (r *UserRepo) AdjustEmployees(ctx context.Context, hrEmail string, delta int) error {
	query := `
		UPDATE users SET current_employees = GREATEST(current_employees + $2, 0), updated_at = NOW()
		WHERE email = $1
		  AND ($2 <= 0 OR package_limit IS NULL OR current_employees + $2 <= package_limit)`
	tag, err := r.q.Exec(ctx, query, hrEmail, delta)
	if err != nil {
		return fmt.Errorf("adjust employees: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	u, err := r.GetByEmail(ctx, hrEmail)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrNotFound
	}
	return domain.ErrPackageLimit
}

// UserRole devuelve el campo role del registro ("" si no existe). Implementa role.UserRoleSource.
func (r *UserRepo) UserRole(ctx context.Context, email string) (string, error) {
	var role string
	err := r.q.QueryRow(ctx, `SELECT role FROM users WHERE email = $1`, email).Scan(&role)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("get user role: %w", err)
	}
	return role, nil
}

// AdminRepo membresía de administradores (tabla platform_admins).
type AdminRepo struct {
	q Querier
}

// NewAdminRepository construye el adaptador de administradores.
func NewAdminRepository(q Querier) *AdminRepo {
	return &AdminRepo{q: q}
}

// IsAdmin informa si email está en platform_admins.
func (r *AdminRepo) IsAdmin(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM platform_admins WHERE email = $1)`, email).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return ok, nil
}

// Grant agrega email a platform_admins (idempotente).
func (r *AdminRepo) Grant(ctx context.Context, email string) error {
	_, err := r.q.Exec(ctx, `INSERT INTO platform_admins (email) VALUES ($1) ON CONFLICT DO NOTHING`, email)
	if err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	return nil
}

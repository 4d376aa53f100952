package postgres

import (
	"context"
	"fmt"

	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

var (
	_ repository.AffiliationRepository = (*AffiliationRepo)(nil)
	_ repository.AuditRepository       = (*AuditRepo)(nil)
)

// AffiliationRepo afiliaciones empleado–empresa sobre PostgreSQL.
type AffiliationRepo struct {
	q Querier
}

// NewAffiliationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAffiliationRepository(q Querier) *AffiliationRepo {
	return &AffiliationRepo{q: q}
}

func (r *AffiliationRepo) Exists(ctx context.Context, employeeEmail, hrEmail string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM affiliations WHERE employee_email = $1 AND hr_email = $2)`,
		employeeEmail, hrEmail,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check affiliation: %w", err)
	}
	return ok, nil
}

func (r *AffiliationRepo) Create(ctx context.Context, a *entity.Affiliation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO affiliations (employee_email, employee_name, hr_email, company_name, affiliated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.EmployeeEmail, a.EmployeeName, a.HREmail, a.CompanyName, a.AffiliatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		// El empleado o el hr fueron borrados después de crear la solicitud.
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert affiliation: %w", err)
	}
	return nil
}

func (r *AffiliationRepo) ListByHR(ctx context.Context, hrEmail string) ([]*entity.Affiliation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT employee_email, employee_name, hr_email, company_name, affiliated_at
		FROM affiliations WHERE hr_email = $1 ORDER BY employee_email`, hrEmail)
	if err != nil {
		return nil, fmt.Errorf("list affiliations: %w", err)
	}
	defer rows.Close()

	var out []*entity.Affiliation
	for rows.Next() {
		var a entity.Affiliation
		if err := rows.Scan(&a.EmployeeEmail, &a.EmployeeName, &a.HREmail, &a.CompanyName, &a.AffiliatedAt); err != nil {
			return nil, fmt.Errorf("scan affiliation: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *AffiliationRepo) Delete(ctx context.Context, employeeEmail, hrEmail string) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM affiliations WHERE employee_email = $1 AND hr_email = $2`, employeeEmail, hrEmail)
	if err != nil {
		return fmt.Errorf("delete affiliation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AuditRepo registro de auditoría append-only.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Append(ctx context.Context, e *entity.AuditEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_log (id, actor_email, action, entity_type, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ActorEmail, e.Action, e.EntityType, e.EntityID, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]*entity.AuditEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, actor_email, action, entity_type, entity_id, detail, created_at
		FROM audit_log ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var out []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorEmail, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

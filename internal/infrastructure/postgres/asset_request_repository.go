package postgres

import (
	"context"
	"fmt"

	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

var _ repository.AssetRequestRepository = (*AssetRequestRepo)(nil)

// AssetRequestRepo implementación del puerto AssetRequestRepository sobre PostgreSQL.
type AssetRequestRepo struct {
	q Querier
}

// NewAssetRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssetRequestRepository(q Querier) *AssetRequestRepo {
	return &AssetRequestRepo{q: q}
}

const requestColumns = `id, asset_id, employee_email, employee_name, product_name, product_type,
	company_name, hr_email, request_date, status, action_date, return_date, note, version`

func scanRequest(row scanner) (*entity.AssetRequest, error) {
	var req entity.AssetRequest
	var pt, st string
	err := row.Scan(
		&req.ID, &req.AssetID, &req.EmployeeEmail, &req.EmployeeName, &req.ProductName, &pt,
		&req.CompanyName, &req.HREmail, &req.RequestDate, &st, &req.ActionDate, &req.ReturnDate,
		&req.Note, &req.Version,
	)
	if err != nil {
		return nil, err
	}
	req.ProductType = entity.ProductType(pt)
	req.Status = entity.RequestStatus(st)
	return &req, nil
}

// Create persiste una nueva solicitud.
func (r *AssetRequestRepo) Create(ctx context.Context, req *entity.AssetRequest) error {
	query := `
		INSERT INTO asset_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.AssetID, req.EmployeeEmail, req.EmployeeName, req.ProductName, string(req.ProductType),
		req.CompanyName, req.HREmail, req.RequestDate, string(req.Status), req.ActionDate, req.ReturnDate,
		req.Note, req.Version,
	)
	if err != nil {
		// uq_asset_requests_pending: una sola solicitud pending por empleado y activo.
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert asset request: %w", err)
	}
	return nil
}

// GetByID obtiene una solicitud por ID. Devuelve nil, nil si no existe.
func (r *AssetRequestRepo) GetByID(ctx context.Context, id string) (*entity.AssetRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, `SELECT `+requestColumns+` FROM asset_requests WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset request: %w", err)
	}
	return req, nil
}

// List lista solicitudes filtradas, más recientes primero.
func (r *AssetRequestRepo) List(ctx context.Context, f repository.RequestFilter) ([]*entity.AssetRequest, int, error) {
	search := ""
	if f.Search != "" {
		search = likePattern(f.Search)
	}
	where := `
		WHERE ($1 = '' OR hr_email = $1)
		  AND ($2 = '' OR employee_email = $2)
		  AND ($3 = '' OR status = $3)
		  AND ($4 = '' OR product_name ILIKE $4 OR employee_name ILIKE $4 OR employee_email ILIKE $4)`
	args := []any{f.HREmail, f.EmployeeEmail, string(f.Status), search}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM asset_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count asset requests: %w", err)
	}

	query := `SELECT ` + requestColumns + ` FROM asset_requests` + where + `
		ORDER BY request_date DESC, id LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list asset requests: %w", err)
	}
	defer rows.Close()

	var list []*entity.AssetRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan asset request: %w", err)
		}
		list = append(list, req)
	}
	return list, total, rows.Err()
}

func (r *AssetRequestRepo) findOldest(ctx context.Context, assetID, employeeEmail string, st entity.RequestStatus) (*entity.AssetRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM asset_requests
		WHERE asset_id = $1 AND employee_email = $2 AND status = $3
		ORDER BY request_date, id LIMIT 1`
	req, err := scanRequest(r.q.QueryRow(ctx, query, assetID, employeeEmail, string(st)))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s request: %w", st, err)
	}
	return req, nil
}

// FindPending devuelve la solicitud pending del empleado sobre el activo, o nil.
func (r *AssetRequestRepo) FindPending(ctx context.Context, assetID, employeeEmail string) (*entity.AssetRequest, error) {
	return r.findOldest(ctx, assetID, employeeEmail, entity.StatusPending)
}

// FindApproved devuelve la solicitud approved más antigua del empleado sobre el activo, o nil.
func (r *AssetRequestRepo) FindApproved(ctx context.Context, assetID, employeeEmail string) (*entity.AssetRequest, error) {
	return r.findOldest(ctx, assetID, employeeEmail, entity.StatusApproved)
}

// UpdateStatus compare-and-set sobre (status, version).
func (r *AssetRequestRepo) UpdateStatus(ctx context.Context, req *entity.AssetRequest, from entity.RequestStatus, prevVersion int) error {
	query := `
		UPDATE asset_requests SET status = $2, action_date = $3, return_date = $4, version = $5
		WHERE id = $1 AND status = $6 AND version = $7`
	tag, err := r.q.Exec(ctx, query,
		req.ID, string(req.Status), req.ActionDate, req.ReturnDate, req.Version, string(from), prevVersion,
	)
	if err != nil {
		return fmt.Errorf("update asset request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// Delete borra una solicitud.
func (r *AssetRequestRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM asset_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AssignedTo activos approved sin devolver del empleado.
func (r *AssetRequestRepo) AssignedTo(ctx context.Context, employeeEmail string) ([]entity.AssetRef, error) {
	query := `
		SELECT id, asset_id, product_name, product_type, company_name, COALESCE(action_date, request_date)
		FROM asset_requests
		WHERE employee_email = $1 AND status = 'approved'
		ORDER BY action_date, id`
	rows, err := r.q.Query(ctx, query, employeeEmail)
	if err != nil {
		return nil, fmt.Errorf("list assigned assets: %w", err)
	}
	defer rows.Close()

	var out []entity.AssetRef
	for rows.Next() {
		var ref entity.AssetRef
		var pt string
		if err := rows.Scan(&ref.RequestID, &ref.AssetID, &ref.ProductName, &pt, &ref.CompanyName, &ref.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan assigned asset: %w", err)
		}
		ref.ProductType = entity.ProductType(pt)
		out = append(out, ref)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"fmt"

	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

var _ repository.AssetRepository = (*AssetRepo)(nil)

// AssetRepo implementación del puerto AssetRepository sobre PostgreSQL (usable con pool o tx).
type AssetRepo struct {
	q Querier
}

// NewAssetRepository construye el adaptador de persistencia para activos. Pasar pool o tx (Querier).
func NewAssetRepository(q Querier) *AssetRepo {
	return &AssetRepo{q: q}
}

const assetColumns = `id, product_name, product_type, product_quantity, company_name, hr_email, created_at, updated_at`

func scanAsset(row scanner) (*entity.Asset, error) {
	var a entity.Asset
	var pt string
	err := row.Scan(&a.ID, &a.ProductName, &pt, &a.ProductQuantity, &a.CompanyName, &a.HREmail, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ProductType = entity.ProductType(pt)
	return &a, nil
}

// Create persiste un nuevo activo.
func (r *AssetRepo) Create(ctx context.Context, a *entity.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.ProductName, string(a.ProductType), a.ProductQuantity, a.CompanyName, a.HREmail, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// GetByID obtiene un activo por ID. Devuelve nil, nil si no existe.
func (r *AssetRepo) GetByID(ctx context.Context, id string) (*entity.Asset, error) {
	a, err := scanAsset(r.q.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// Update actualiza nombre y tipo. La cantidad solo cambia vía AdjustQuantity o SetQuantity.
func (r *AssetRepo) Update(ctx context.Context, a *entity.Asset) error {
	query := `
		UPDATE assets SET product_name = $2, product_type = $3, updated_at = $4
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, a.ID, a.ProductName, string(a.ProductType), a.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra un activo; sus solicitudes caen por FK en cascada.
func (r *AssetRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista activos filtrados, más recientes primero.
func (r *AssetRepo) List(ctx context.Context, f repository.AssetFilter) ([]*entity.Asset, int, error) {
	search := ""
	if f.Search != "" {
		search = likePattern(f.Search)
	}
	where := `
		WHERE ($1 = '' OR hr_email = $1)
		  AND ($2 = '' OR product_name ILIKE $2)
		  AND ($3 = '' OR product_type = $3)
		  AND (NOT $4 OR product_quantity > 0)`
	args := []any{f.HREmail, search, string(f.ProductType), f.OnlyAvailable}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM assets`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	query := `SELECT ` + assetColumns + ` FROM assets` + where + `
		ORDER BY created_at DESC, id LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var list []*entity.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan asset: %w", err)
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

// AdjustQuantity suma delta a product_quantity en un UPDATE condicional: nunca baja de 0
// aunque dos aprobaciones compitan por la última unidad.
func (r *AssetRepo) AdjustQuantity(ctx context.Context, id string, delta int) error {
	query := `
		UPDATE assets SET product_quantity = product_quantity + $2, updated_at = NOW()
		WHERE id = $1 AND product_quantity + $2 >= 0`
	tag, err := r.q.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("adjust asset quantity: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}

// SetQuantity fija product_quantity condicionado al valor leído antes (compare-and-set).
func (r *AssetRepo) SetQuantity(ctx context.Context, id string, from, to int) error {
	query := `
		UPDATE assets SET product_quantity = $3, updated_at = NOW()
		WHERE id = $1 AND product_quantity = $2`
	tag, err := r.q.Exec(ctx, query, id, from, to)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("set asset quantity: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

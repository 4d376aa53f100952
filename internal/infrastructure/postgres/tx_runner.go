package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetverse/assetverse-api/internal/application/request"
)

var _ request.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Repos repositorios sobre el pool, para lecturas fuera de transacción.
func Repos(q Querier) request.LifecycleRepos {
	return request.LifecycleRepos{
		Assets:       NewAssetRepository(q),
		Requests:     NewAssetRequestRepository(q),
		Users:        NewUserRepository(q),
		Affiliations: NewAffiliationRepository(q),
		Audit:        NewAuditRepository(q),
	}
}

// RunLifecycle inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) RunLifecycle(ctx context.Context, fn func(repos request.LifecycleRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(Repos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

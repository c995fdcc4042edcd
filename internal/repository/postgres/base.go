package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Querier is the subset of sqlx satisfied by both *sqlx.DB and *sqlx.Tx.
// Repositories are built over it so the same code serves transaction-scoped
// and standalone reads.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ Querier = (*sqlx.DB)(nil)
	_ Querier = (*sqlx.Tx)(nil)
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	q Querier
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(q Querier) BaseRepository {
	return BaseRepository{q: q}
}

// Q returns the underlying querier
func (r *BaseRepository) Q() Querier {
	return r.q
}

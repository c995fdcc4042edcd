package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/nutrition-api/internal/config"
	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository"
	"github.com/jwalitptl/nutrition-api/pkg/errors"
	"github.com/jwalitptl/nutrition-api/pkg/logger"
)

// SessionManager is the single choke point for tenant isolation: every
// mutating unit of work runs through WithSession, which binds the caller's
// identity into transaction-local session state read by the storage row
// policies. Session state is set with set_config(..., is_local=true) so it
// can never leak to another request reusing the pooled connection.
type SessionManager struct {
	db     *sqlx.DB
	cfg    config.SessionConfig
	logger *logger.Logger
}

func NewSessionManager(db *sqlx.DB, cfg config.SessionConfig, logger *logger.Logger) *SessionManager {
	return &SessionManager{db: db, cfg: cfg, logger: logger}
}

// NewRepositories builds the transaction-scoped repository bundle over q.
func NewRepositories(q Querier) *repository.Repositories {
	base := NewBaseRepository(q)
	return &repository.Repositories{
		Policies:    &dataPolicyRepository{base},
		Nutrients:   &nutrientRepository{base},
		Snapshots:   &snapshotRepository{base},
		CalcAudits:  &calcAuditRepository{base},
		AuditEvents: &auditEventRepository{base},
		Outbox:      &outboxRepository{base},
	}
}

func (m *SessionManager) WithSession(ctx context.Context, claims model.Claims, fn func(ctx context.Context, r *repository.Repositories) error, opts ...repository.SessionOption) error {
	if claims.Zero() {
		return errors.Unauthorized(fmt.Errorf("session requires complete identity claims"))
	}

	var options repository.SessionOptions
	for _, opt := range opts {
		opt(&options)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	// Best-effort privilege narrowing. Early-stage environments may not
	// have the tenant role provisioned yet; the row policies still deny
	// cross-tenant access by default, so this is logged, not fatal. The
	// savepoint matters: a failed SET LOCAL ROLE puts the whole
	// transaction into the aborted state, so rolling back to the
	// savepoint is what keeps it usable for the claim binding below.
	if m.cfg.TenantRole != "" {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT narrow_role"); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create role savepoint: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "SET LOCAL ROLE "+pq.QuoteIdentifier(m.cfg.TenantRole)); err != nil {
			m.logger.Warn("failed to narrow transaction role",
				"role", m.cfg.TenantRole, "error", err.Error())
			if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT narrow_role"); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to recover transaction after role change: %w", err)
			}
		} else if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT narrow_role"); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to release role savepoint: %w", err)
		}
	}

	// Binding the identity is fail-closed: if any of these cannot be set,
	// the transaction must not proceed without isolation.
	if err := m.bindClaims(ctx, tx, claims, options.OwnerMode); err != nil {
		tx.Rollback()
		return err
	}

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (m *SessionManager) bindClaims(ctx context.Context, tx *sqlx.Tx, claims model.Claims, ownerMode bool) error {
	settings := [][2]string{
		{"app.user_id", claims.UserID.String()},
		{"app.tenant_id", claims.TenantID.String()},
		{"app.role", string(claims.Role)},
		{"app.owner_mode", strconv.FormatBool(ownerMode)},
	}

	for _, s := range settings {
		if _, err := tx.ExecContext(ctx, "SELECT set_config($1, $2, true)", s[0], s[1]); err != nil {
			return fmt.Errorf("failed to bind %s to transaction: %w", s[0], err)
		}
	}

	if _, err := tx.ExecContext(ctx, "SET LOCAL row_security = on"); err != nil {
		return fmt.Errorf("failed to enable row security: %w", err)
	}

	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
)

// auditEventRepository exposes append and read only. The ledger has no
// update or delete path.
type auditEventRepository struct {
	BaseRepository
}

func (r *auditEventRepository) Append(ctx context.Context, event *model.AuditEvent) error {
	query := `
        INSERT INTO audit_events (
            id, tenant_id, actor_user_id, actor_role, action, entity_type, entity_id,
            before_json, after_json, reason, request_id, ip_hash, user_agent, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `

	_, err := r.Q().ExecContext(ctx, query,
		event.ID,
		event.TenantID,
		event.ActorUserID,
		event.ActorRole,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.BeforeJSON,
		event.AfterJSON,
		event.Reason,
		event.RequestID,
		event.IPHash,
		event.UserAgent,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	return nil
}

func (r *auditEventRepository) List(ctx context.Context, tenantID uuid.UUID, filter *model.AuditEventFilter) ([]*model.AuditEvent, error) {
	query := `
        SELECT id, tenant_id, actor_user_id, actor_role, action, entity_type, entity_id,
               before_json, after_json, reason, request_id, ip_hash, user_agent, created_at
        FROM audit_events
        WHERE tenant_id = $1
    `
	args := []interface{}{tenantID}

	if filter != nil {
		if filter.ActorUserID != nil {
			args = append(args, *filter.ActorUserID)
			query += fmt.Sprintf(" AND actor_user_id = $%d", len(args))
		}
		if filter.Action != nil {
			args = append(args, *filter.Action)
			query += fmt.Sprintf(" AND action = $%d", len(args))
		}
		if filter.EntityType != nil {
			args = append(args, *filter.EntityType)
			query += fmt.Sprintf(" AND entity_type = $%d", len(args))
		}
		if filter.StartDate != nil {
			args = append(args, *filter.StartDate)
			query += fmt.Sprintf(" AND created_at >= $%d", len(args))
		}
		if filter.EndDate != nil {
			args = append(args, *filter.EndDate)
			query += fmt.Sprintf(" AND created_at <= $%d", len(args))
		}
	}

	query += " ORDER BY created_at DESC"

	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	var events []*model.AuditEvent
	if err := r.Q().SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	return events, nil
}

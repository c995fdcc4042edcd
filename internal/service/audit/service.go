package audit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository"
	"github.com/jwalitptl/nutrition-api/pkg/metrics"
	"github.com/jwalitptl/nutrition-api/pkg/security"
)

// Service appends entries to the audit event ledger. The ledger is
// append-only by construction: neither this service nor the repository
// exposes a way to mutate or remove an entry.
type Service struct {
	ipHasher  *security.IPHasher
	encryptor security.Encryptor
	metrics   *metrics.Metrics
}

func NewService(ipHasher *security.IPHasher, encryptor security.Encryptor, metrics *metrics.Metrics) *Service {
	return &Service{
		ipHasher:  ipHasher,
		encryptor: encryptor,
		metrics:   metrics,
	}
}

type LogOptions struct {
	Before    interface{}
	After     interface{}
	Reason    string
	RequestID string
	IPAddress string
	UserAgent string
}

// Log appends one ledger entry and an outbox row in the caller's
// transaction, so the entry and its stream fan-out commit or roll back
// together.
func (s *Service) Log(ctx context.Context, r *repository.Repositories, claims model.Claims, action model.AuditAction, entityType string, entityID uuid.UUID, opts *LogOptions) error {
	if opts == nil {
		opts = &LogOptions{}
	}

	before, err := s.marshalPayload(opts.Before)
	if err != nil {
		return fmt.Errorf("failed to marshal before state: %w", err)
	}
	after, err := s.marshalPayload(opts.After)
	if err != nil {
		return fmt.Errorf("failed to marshal after state: %w", err)
	}

	event := &model.AuditEvent{
		ID:          uuid.New(),
		TenantID:    claims.TenantID,
		ActorUserID: claims.UserID,
		ActorRole:   claims.Role,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		BeforeJSON:  before,
		AfterJSON:   after,
		RequestID:   opts.RequestID,
		CreatedAt:   time.Now(),
	}

	if opts.Reason != "" {
		event.Reason = &opts.Reason
	}
	if opts.UserAgent != "" {
		event.UserAgent = &opts.UserAgent
	}
	if opts.IPAddress != "" && s.ipHasher != nil {
		hashed := s.ipHasher.Hash(opts.IPAddress)
		event.IPHash = &hashed
	}

	if err := r.AuditEvents.Append(ctx, event); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event for outbox: %w", err)
	}
	if err := r.Outbox.Create(ctx, &model.OutboxEvent{
		EventType: "audit." + string(action),
		Payload:   payload,
	}); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AuditEvents.WithLabelValues(string(action)).Inc()
	}

	return nil
}

// List reads back ledger entries for a tenant.
func (s *Service) List(ctx context.Context, r *repository.Repositories, claims model.Claims, filter *model.AuditEventFilter) ([]*model.AuditEvent, error) {
	return r.AuditEvents.List(ctx, claims.TenantID, filter)
}

func (s *Service) marshalPayload(v interface{}) (*json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if s.encryptor != nil {
		sealed, err := s.encryptor.Encrypt(raw)
		if err != nil {
			return nil, err
		}
		raw, err = json.Marshal(map[string]string{
			"enc": base64.StdEncoding.EncodeToString(sealed),
		})
		if err != nil {
			return nil, err
		}
	}

	msg := json.RawMessage(raw)
	return &msg, nil
}

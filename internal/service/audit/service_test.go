package audit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository"
	"github.com/jwalitptl/nutrition-api/pkg/security"
)

type fakeAuditEventRepo struct {
	appended []*model.AuditEvent
}

func (f *fakeAuditEventRepo) Append(ctx context.Context, event *model.AuditEvent) error {
	f.appended = append(f.appended, event)
	return nil
}

func (f *fakeAuditEventRepo) List(ctx context.Context, tenantID uuid.UUID, filter *model.AuditEventFilter) ([]*model.AuditEvent, error) {
	return f.appended, nil
}

type fakeOutboxRepo struct {
	created []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return f.created, nil
}

func (f *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func testRepos() (*repository.Repositories, *fakeAuditEventRepo, *fakeOutboxRepo) {
	events := &fakeAuditEventRepo{}
	outbox := &fakeOutboxRepo{}
	return &repository.Repositories{AuditEvents: events, Outbox: outbox}, events, outbox
}

func testClaims() model.Claims {
	return model.Claims{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     model.RoleTenantAdmin,
	}
}

func TestLogAppendsEventAndOutboxRow(t *testing.T) {
	repos, events, outbox := testRepos()
	claims := testClaims()
	entityID := uuid.New()

	svc := NewService(nil, nil, nil)
	err := svc.Log(context.Background(), repos, claims, model.AuditActionPolicyChange, model.AuditEntityDataPolicy, entityID, &LogOptions{
		Before:    map[string]interface{}{"allowed_sources": []string{"TACO"}},
		After:     map[string]interface{}{"allowed_sources": []string{"USDA", "TACO"}},
		Reason:    "patient moved to USDA-first policy",
		RequestID: "req-123",
	})
	require.NoError(t, err)

	require.Len(t, events.appended, 1)
	event := events.appended[0]
	assert.Equal(t, claims.TenantID, event.TenantID)
	assert.Equal(t, claims.UserID, event.ActorUserID)
	assert.Equal(t, model.RoleTenantAdmin, event.ActorRole)
	assert.Equal(t, model.AuditActionPolicyChange, event.Action)
	assert.Equal(t, model.AuditEntityDataPolicy, event.EntityType)
	assert.Equal(t, entityID, event.EntityID)
	assert.Equal(t, "req-123", event.RequestID)
	require.NotNil(t, event.Reason)
	assert.Equal(t, "patient moved to USDA-first policy", *event.Reason)
	require.NotNil(t, event.BeforeJSON)
	require.NotNil(t, event.AfterJSON)

	require.Len(t, outbox.created, 1)
	assert.Equal(t, "audit.POLICY_CHANGE", outbox.created[0].EventType)

	var published model.AuditEvent
	require.NoError(t, json.Unmarshal(outbox.created[0].Payload, &published))
	assert.Equal(t, event.ID, published.ID)
}

func TestLogHashesIPAddress(t *testing.T) {
	repos, events, _ := testRepos()
	claims := testClaims()

	hasher, err := security.NewIPHasher([]byte("audit-test-key"))
	require.NoError(t, err)

	svc := NewService(hasher, nil, nil)
	err = svc.Log(context.Background(), repos, claims, model.AuditActionLogin, model.AuditEntityPatient, uuid.New(), &LogOptions{
		IPAddress: "203.0.113.7",
	})
	require.NoError(t, err)

	require.Len(t, events.appended, 1)
	require.NotNil(t, events.appended[0].IPHash)
	assert.NotContains(t, *events.appended[0].IPHash, "203.0.113.7")
	assert.Equal(t, hasher.Hash("203.0.113.7"), *events.appended[0].IPHash)
}

func TestLogEncryptsPayloadsWhenConfigured(t *testing.T) {
	repos, events, _ := testRepos()
	claims := testClaims()

	encryptor, err := security.NewAESEncryptor([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	svc := NewService(nil, encryptor, nil)
	err = svc.Log(context.Background(), repos, claims, model.AuditActionUpdate, model.AuditEntityPlanVersion, uuid.New(), &LogOptions{
		After: map[string]interface{}{"status": "approved"},
	})
	require.NoError(t, err)

	require.Len(t, events.appended, 1)
	require.NotNil(t, events.appended[0].AfterJSON)

	var sealed map[string]string
	require.NoError(t, json.Unmarshal(*events.appended[0].AfterJSON, &sealed))
	require.Contains(t, sealed, "enc")

	ciphertext, err := base64.StdEncoding.DecodeString(sealed["enc"])
	require.NoError(t, err)
	plaintext, err := encryptor.Decrypt(ciphertext)
	require.NoError(t, err)

	var after map[string]interface{}
	require.NoError(t, json.Unmarshal(plaintext, &after))
	assert.Equal(t, "approved", after["status"])
}

func TestLogNilOptions(t *testing.T) {
	repos, events, outbox := testRepos()
	claims := testClaims()

	svc := NewService(nil, nil, nil)
	err := svc.Log(context.Background(), repos, claims, model.AuditActionCreate, model.AuditEntityPatient, uuid.New(), nil)
	require.NoError(t, err)

	require.Len(t, events.appended, 1)
	assert.Nil(t, events.appended[0].BeforeJSON)
	assert.Nil(t, events.appended[0].AfterJSON)
	assert.Nil(t, events.appended[0].Reason)
	assert.Len(t, outbox.created, 1)
}

func TestListReadsBackTenantEvents(t *testing.T) {
	repos, _, _ := testRepos()
	claims := testClaims()

	svc := NewService(nil, nil, nil)
	for _, action := range []model.AuditAction{model.AuditActionCreate, model.AuditActionApprove, model.AuditActionPublish} {
		require.NoError(t, svc.Log(context.Background(), repos, claims, action, model.AuditEntityPlanVersion, uuid.New(), nil))
	}

	events, err := svc.List(context.Background(), repos, claims, &model.AuditEventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

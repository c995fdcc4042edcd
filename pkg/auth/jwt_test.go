package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/nutrition-api/internal/model"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestExtract(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()

	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"user_id":   userID.String(),
		"tenant_id": tenantID.String(),
		"role":      "TEAM",
	})

	claims, err := NewClaimsExtractor(testSecret).Extract(tokenString)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tenantID, claims.TenantID)
	assert.Equal(t, model.RoleTeam, claims.Role)
	assert.False(t, claims.Zero())
}

func TestExtractRejectsWrongSecret(t *testing.T) {
	tokenString := signToken(t, "some-other-secret", jwt.MapClaims{
		"user_id":   uuid.New().String(),
		"tenant_id": uuid.New().String(),
		"role":      "TEAM",
	})

	_, err := NewClaimsExtractor(testSecret).Extract(tokenString)
	assert.Error(t, err)
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := NewClaimsExtractor(testSecret).Extract("not-a-jwt")
	assert.Error(t, err)
}

func TestExtractRejectsMissingClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{
			name: "missing user_id",
			claims: jwt.MapClaims{
				"tenant_id": uuid.New().String(),
				"role":      "TEAM",
			},
		},
		{
			name: "missing tenant_id",
			claims: jwt.MapClaims{
				"user_id": uuid.New().String(),
				"role":    "TEAM",
			},
		},
		{
			name: "missing role",
			claims: jwt.MapClaims{
				"user_id":   uuid.New().String(),
				"tenant_id": uuid.New().String(),
			},
		},
		{
			name: "malformed user_id",
			claims: jwt.MapClaims{
				"user_id":   "not-a-uuid",
				"tenant_id": uuid.New().String(),
				"role":      "TEAM",
			},
		},
		{
			name: "unknown role",
			claims: jwt.MapClaims{
				"user_id":   uuid.New().String(),
				"tenant_id": uuid.New().String(),
				"role":      "SUPERUSER",
			},
		},
	}

	extractor := NewClaimsExtractor(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(signToken(t, testSecret, tt.claims))
			assert.Error(t, err)
		})
	}
}

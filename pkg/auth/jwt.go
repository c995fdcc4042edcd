// Package auth bridges the external authentication layer and the core:
// it validates an access token and extracts the identity claims triple.
// The core never mints tokens; it only consumes already-issued ones.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
)

type ClaimsExtractor struct {
	secret []byte
}

func NewClaimsExtractor(secret string) *ClaimsExtractor {
	return &ClaimsExtractor{secret: []byte(secret)}
}

// Extract validates the token signature and maps its claims onto the
// identity triple consumed by the tenant transaction scope.
func (e *ClaimsExtractor) Extract(tokenString string) (model.Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return e.secret, nil
	})
	if err != nil {
		return model.Claims{}, fmt.Errorf("invalid token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Claims{}, fmt.Errorf("invalid token claims")
	}

	userID, err := parseUUIDClaim(mapClaims, "user_id")
	if err != nil {
		return model.Claims{}, err
	}
	tenantID, err := parseUUIDClaim(mapClaims, "tenant_id")
	if err != nil {
		return model.Claims{}, err
	}

	roleStr, ok := mapClaims["role"].(string)
	if !ok {
		return model.Claims{}, fmt.Errorf("missing role claim")
	}
	role := model.Role(roleStr)
	if !role.Valid() {
		return model.Claims{}, fmt.Errorf("unknown role %q", roleStr)
	}

	return model.Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}, nil
}

func parseUUIDClaim(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing %s claim", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s in token", key)
	}
	return id, nil
}

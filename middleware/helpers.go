package middleware

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	jwtClaimUserID = "user_id"
	jwtClaimName   = "name"
)

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errNoClaims
	}
	return userIDFromClaims(claims)
}

func GetUserNameFromContext(ctx context.Context) string {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return ""
	}
	name, _ := claims[jwtClaimName].(string)
	return name
}

func userIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, ok := claims[jwtClaimUserID]
	if !ok {
		return uuid.Nil, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimUserID, raw)
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid user ID value in '%s' claim: %q", jwtClaimUserID, s)
	}
	return id, nil
}

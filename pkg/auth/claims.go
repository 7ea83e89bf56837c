package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrMissingTenant = errors.New("token is missing user or store id")

// AccessTokenPayload is what a caller supplies when minting.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	JTI     string
}

// AccessTokenClaims binds a dashboard user to exactly one store.
type AccessTokenClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	StoreID uuid.UUID `json:"store_id"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks during parsing.
func (c AccessTokenClaims) Validate() error {
	if c.UserID == uuid.Nil || c.StoreID == uuid.Nil {
		return ErrMissingTenant
	}
	return nil
}

package types

import (
	"github.com/google/uuid"
)

// TokenClaims represents the claims we read from a bearer token
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
}

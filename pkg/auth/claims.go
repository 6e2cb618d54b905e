package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stockyardhq/stockyard-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.ActorRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the authenticated identity acting on an order, extracted from
// claims and threaded through every service operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// Actor converts validated claims into the service-layer actor.
func (c *AccessTokenClaims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

// IsSystem reports whether the actor is an internal scheduler or consumer.
func (a Actor) IsSystem() bool {
	return a.Role == enums.RoleSystem
}

// SystemActor is used by sweeps and webhook consumers.
func SystemActor() Actor {
	return Actor{Role: enums.RoleSystem}
}

package auth

import (
	"fmt"

	"github.com/google/uuid"
)

// Context is the caller identity resolved once at the request boundary and
// passed explicitly into operations that need authorization.
type Context struct {
	UserID     uuid.UUID
	Role       Role
	ProviderID *uuid.UUID
}

// ContextFromClaims converts verified claims into a Context.
func ContextFromClaims(claims *Claims) (Context, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Context{}, fmt.Errorf("invalid user id in token: %w", err)
	}
	actor := Context{UserID: userID, Role: claims.Role}
	if claims.ProviderID != "" {
		pid, err := uuid.Parse(claims.ProviderID)
		if err != nil {
			return Context{}, fmt.Errorf("invalid provider id in token: %w", err)
		}
		actor.ProviderID = &pid
	}
	return actor, nil
}

// IsAdmin reports whether the caller has the admin role.
func (c Context) IsAdmin() bool { return c.Role == RoleAdmin }

// ActsAsProvider reports whether the caller is the given provider.
func (c Context) ActsAsProvider(providerID uuid.UUID) bool {
	return c.Role == RoleProvider && c.ProviderID != nil && *c.ProviderID == providerID
}

// System is the identity used for internally triggered operations such as
// payment event handling.
func System() Context {
	return Context{UserID: uuid.Nil, Role: RoleAdmin}
}

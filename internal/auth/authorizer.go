package auth

import (
	"linkmart/internal/model"
	"linkmart/pkg/apperr"
)

// Authorizer is the single place role and ownership decisions are made.
type Authorizer struct{}

// RequireRole passes when the principal holds one of roles.
func (Authorizer) RequireRole(p Principal, roles ...model.Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("insufficient permissions")
}

// CanMutate passes for the owner of a resource and for admins.
func (Authorizer) CanMutate(p Principal, ownerID int64) error {
	if p.IsAdmin() || p.UserID == ownerID {
		return nil
	}
	return apperr.Forbidden("not allowed to modify this resource")
}

// Package authz decides whether an authenticated actor may mutate a
// resource. It never touches storage; callers pass the resource owner's id.
package authz

import (
	"github.com/google/uuid"

	"library/internal/models"
)

// CanModify reports whether the actor may update or delete a resource
// owned by ownerID. Admins may modify anything; everyone else only what
// they own. Unknown roles get no access.
func CanModify(actor models.Actor, ownerID uuid.UUID) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return actor.ID == ownerID
	}
	return false
}

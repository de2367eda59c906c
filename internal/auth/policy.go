package auth

import "github.com/google/uuid"

type AccessMode int

const (
	ModeRead AccessMode = iota
	ModeWrite
)

// CanAccess lets an admin reach anything and a user reach only what they own.
// Read and write follow the same rule today; mode is kept so callers state intent.
func CanAccess(actor Identity, owner uuid.UUID, mode AccessMode) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.ID != uuid.Nil && actor.ID == owner
}

// CanListAll reports whether the actor may see every user's resources.
func CanListAll(actor Identity) bool {
	return actor.IsAdmin()
}

package model

import "github.com/google/uuid"

// Role identifies the kind of actor performing a request. Transition
// permissions are keyed on it, so it is carried explicitly rather than
// inferred from session state.
type Role string

const (
	RolePatient   Role = "patient"
	RoleClinician Role = "clinician"
	RoleAdmin     Role = "administrator"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleClinician, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated principal behind a request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

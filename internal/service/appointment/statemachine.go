package appointment

import (
	"github.com/medibook/scheduler-api/internal/model"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
)

// transitionTable maps current status to the target statuses each role may
// move it to. Administrators bypass the table (any transition from a
// non-terminal state).
var transitionTable = map[model.AppointmentStatus]map[model.Role][]model.AppointmentStatus{
	model.AppointmentStatusScheduled: {
		model.RolePatient:   {model.AppointmentStatusCancelled},
		model.RoleClinician: {model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled},
	},
	model.AppointmentStatusConfirmed: {
		model.RolePatient:   {model.AppointmentStatusCancelled},
		model.RoleClinician: {model.AppointmentStatusInProgress, model.AppointmentStatusCancelled},
	},
	model.AppointmentStatusInProgress: {
		model.RolePatient:   {},
		model.RoleClinician: {model.AppointmentStatusCompleted, model.AppointmentStatusCancelled},
	},
}

// roleTargets is every status a role can ever reach from some state. Used
// to distinguish a permission failure from a sequencing failure: a patient
// asking for "confirmed" is denied outright, a clinician asking for
// "completed" from "scheduled" is an invalid transition.
var roleTargets = map[model.Role]map[model.AppointmentStatus]bool{
	model.RolePatient: {
		model.AppointmentStatusCancelled: true,
	},
	model.RoleClinician: {
		model.AppointmentStatusConfirmed:  true,
		model.AppointmentStatusInProgress: true,
		model.AppointmentStatusCompleted:  true,
		model.AppointmentStatusCancelled:  true,
	},
}

// CheckTransition validates a status change for an actor role. It returns
// nil when the transition is legal, otherwise one of APPOINTMENT_IMMUTABLE,
// ACCESS_DENIED, INVALID_TRANSITION or VALIDATION_ERROR.
func CheckTransition(role model.Role, from, to model.AppointmentStatus) error {
	if !to.Valid() {
		return apperrors.Validation("unknown appointment status", nil)
	}
	if from.Terminal() {
		return apperrors.Immutable(string(from))
	}
	if role == model.RoleAdmin {
		if to == from {
			return apperrors.InvalidTransition(string(from), string(to))
		}
		return nil
	}

	if !roleTargets[role][to] {
		return apperrors.AccessDenied("role " + string(role) + " may not set status " + string(to))
	}
	for _, allowed := range transitionTable[from][role] {
		if allowed == to {
			return nil
		}
	}
	return apperrors.InvalidTransition(string(from), string(to))
}

// eventTypeFor maps the committed target status to its lifecycle event.
func eventTypeFor(to model.AppointmentStatus) string {
	switch to {
	case model.AppointmentStatusConfirmed:
		return model.EventAppointmentConfirmed
	case model.AppointmentStatusInProgress:
		return model.EventAppointmentStarted
	case model.AppointmentStatusCompleted:
		return model.EventAppointmentCompleted
	case model.AppointmentStatusCancelled:
		return model.EventAppointmentCancelled
	case model.AppointmentStatusNoShow:
		return model.EventAppointmentNoShow
	}
	return ""
}

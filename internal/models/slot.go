package models

import "fmt"

// Slot is a candidate teaching unit for one instructor at one time of day.
// Slots are pure values: they are regenerated on every availability read and
// never persisted, so their identity must be derivable from the
// (date, start, instructor) triple alone.
type Slot struct {
	ID             string       `json:"id"`
	Date           string       `json:"date"`
	StartTime      string       `json:"start_time"`
	EndTime        string       `json:"end_time"`
	InstructorID   string       `json:"instructor_id"`
	InstructorName string       `json:"instructor_name"`
	VehicleID      string       `json:"vehicle_id"`
	VehicleModel   string       `json:"vehicle_model"`
	Transmission   Transmission `json:"transmission"`
}

// SlotID derives the stable slot identity from its identity triple.
func SlotID(date, startTime, instructorID string) string {
	return fmt.Sprintf("%s-%s-%s", date, startTime, instructorID)
}

// Key returns the identity triple key used to join slots against the ledger.
func (s Slot) Key() string {
	return SlotID(s.Date, s.StartTime, s.InstructorID)
}

// Occupant identifies the reservation holding a slot, shown to roles that may
// see occupied slots.
type Occupant struct {
	ReservationID string `json:"reservation_id"`
	ClientID      string `json:"client_id"`
	ClientName    string `json:"client_name"`
}

// AvailabilitySlot is a generated slot annotated with its booking state.
type AvailabilitySlot struct {
	Slot
	Booked   bool      `json:"booked"`
	Past     bool      `json:"past"`
	Occupant *Occupant `json:"occupant,omitempty"`
}

// ViewPolicy states what a role may see and do on the availability view,
// replacing per-call-site role comparisons.
type ViewPolicy struct {
	CanSeeOccupant bool
	CanBookOwn     bool
	CanManageAll   bool
}

// PolicyForRole maps a portal role to its availability view policy.
func PolicyForRole(role UserRole) ViewPolicy {
	switch role {
	case RoleInstructor:
		return ViewPolicy{CanSeeOccupant: true}
	case RoleAdmin:
		return ViewPolicy{CanSeeOccupant: true, CanManageAll: true}
	default:
		return ViewPolicy{CanBookOwn: true}
	}
}

package models

import "time"

// ReservationStatus represents the lesson booking lifecycle.
type ReservationStatus string

const (
	ReservationScheduled ReservationStatus = "SCHEDULED"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that occupy a slot. Cancelled rows are kept
// for audit but release the slot.
var ActiveStatuses = []ReservationStatus{ReservationScheduled, ReservationCompleted}

// Reservation is the durable record of a booked lesson. The lesson date is
// carried as a YYYY-MM-DD string and times as HH:MM strings so the
// availability join against generated slots is exact.
type Reservation struct {
	ID           string            `db:"id" json:"id"`
	ClientID     string            `db:"client_id" json:"client_id"`
	InstructorID string            `db:"instructor_id" json:"instructor_id"`
	VehicleID    string            `db:"vehicle_id" json:"vehicle_id"`
	LessonDate   string            `db:"lesson_date" json:"date"`
	StartTime    string            `db:"start_time" json:"start_time"`
	EndTime      string            `db:"end_time" json:"end_time"`
	Status       ReservationStatus `db:"status" json:"status"`
	CancelledBy  *string           `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// SlotKey returns the identity triple key of the slot this reservation occupies.
func (r Reservation) SlotKey() string {
	return SlotID(r.LessonDate, r.StartTime, r.InstructorID)
}

// ReservationDetail joins a reservation with display names for list views.
type ReservationDetail struct {
	Reservation
	ClientName     string `db:"client_name" json:"client_name"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	VehicleModel   string `db:"vehicle_model" json:"vehicle_model"`
}

// BookSlotRequest is the booking payload; it names the slot by its identity
// triple rather than by a transient generated id.
type BookSlotRequest struct {
	Date         string `json:"date" validate:"required"`
	StartTime    string `json:"start_time" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required"`
}

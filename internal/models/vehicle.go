package models

import "time"

// Transmission enumerates vehicle gearbox types.
type Transmission string

const (
	TransmissionManual    Transmission = "MANUAL"
	TransmissionAutomatic Transmission = "AUTOMATIC"
)

// Vehicle is immutable reference data assigned to generated slots.
type Vehicle struct {
	ID           string       `db:"id" json:"id"`
	Model        string       `db:"model" json:"model"`
	Transmission Transmission `db:"transmission" json:"transmission"`
	Active       bool         `db:"active" json:"active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

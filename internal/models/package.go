package models

import "time"

// Package is a lesson bundle sold by the school.
type Package struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
	Hours       int       `db:"hours" json:"hours"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// UserPackage records a client's purchase of a package.
type UserPackage struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	PackageID    string    `db:"package_id" json:"package_id"`
	PurchaseDate time.Time `db:"purchase_date" json:"purchase_date"`
}

// HoursBalance reports a client's purchased versus consumed driving hours.
type HoursBalance struct {
	PurchasedHours float64 `json:"purchased_hours"`
	CompletedHours float64 `json:"completed_hours"`
	RemainingHours float64 `json:"remaining_hours"`
}

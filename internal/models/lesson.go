package models

import "time"

// PastLesson projects a completed reservation joined with any feedback left by
// the instructor. It is read-only to the booking flow.
type PastLesson struct {
	ReservationID  string       `db:"reservation_id" json:"reservation_id"`
	Date           string       `db:"lesson_date" json:"date"`
	StartTime      string       `db:"start_time" json:"start_time"`
	EndTime        string       `db:"end_time" json:"end_time"`
	ClientID       string       `db:"client_id" json:"client_id"`
	ClientName     string       `db:"client_name" json:"client_name"`
	InstructorID   string       `db:"instructor_id" json:"instructor_id"`
	InstructorName string       `db:"instructor_name" json:"instructor_name"`
	VehicleID      string       `db:"vehicle_id" json:"vehicle_id"`
	VehicleModel   string       `db:"vehicle_model" json:"vehicle_model"`
	Transmission   Transmission `db:"transmission" json:"transmission"`
	Notes          *string      `db:"notes" json:"notes,omitempty"`
	Rating         *int         `db:"rating" json:"rating,omitempty"`
}

// LessonMonth groups past lessons under one calendar month for display.
type LessonMonth struct {
	Month   string       `json:"month"` // YYYY-MM
	Lessons []PastLesson `json:"lessons"`
}

// LessonSummary aggregates a user's completed lessons.
type LessonSummary struct {
	TotalLessons  int      `json:"total_lessons"`
	TotalHours    float64  `json:"total_hours"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// LessonHistory is the full projection returned to the UI.
type LessonHistory struct {
	Months  []LessonMonth `json:"months"`
	Summary LessonSummary `json:"summary"`
}

// Feedback is an instructor's review of a completed lesson.
type Feedback struct {
	ID            string    `db:"id" json:"id"`
	ReservationID string    `db:"reservation_id" json:"reservation_id"`
	InstructorID  string    `db:"instructor_id" json:"instructor_id"`
	ClientID      string    `db:"client_id" json:"client_id"`
	Notes         string    `db:"notes" json:"notes"`
	Rating        *int      `db:"rating" json:"rating,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

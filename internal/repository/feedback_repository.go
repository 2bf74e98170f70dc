package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/autoecole-dijon/portal-api/internal/models"
)

// FeedbackRepository stores instructor reviews of completed lessons.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback record for a reservation.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO feedback (id, reservation_id, instructor_id, client_id, notes, rating, created_at)
		VALUES (:id, :reservation_id, :instructor_id, :client_id, :notes, :rating, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fb); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// ExistsForReservation reports whether feedback was already recorded.
func (r *FeedbackRepository) ExistsForReservation(ctx context.Context, reservationID string) (bool, error) {
	const query = `SELECT 1 FROM feedback WHERE reservation_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, reservationID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check feedback existence: %w", err)
	}
	return true, nil
}

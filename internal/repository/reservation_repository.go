package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/autoecole-dijon/portal-api/internal/models"
)

// ErrSlotTaken signals that an active reservation already occupies the slot.
var ErrSlotTaken = errors.New("slot already reserved")

const reservationColumns = `id, client_id, instructor_id, vehicle_id, lesson_date::text AS lesson_date, start_time, end_time, status, cancelled_by, cancelled_at, created_at, updated_at`

const reservationDetailColumns = reservationColumns + `, client_name, instructor_name, vehicle_model`

// ReservationRepository is the authoritative store of lesson bookings.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Insert books a slot with a single conditional insert. The WHERE NOT EXISTS
// guard plus the partial unique index on (lesson_date, start_time,
// instructor_id) make the check-and-insert atomic: when two sessions race,
// exactly one row lands and the other caller gets ErrSlotTaken.
func (r *ReservationRepository) Insert(ctx context.Context, res *models.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	res.Status = models.ReservationScheduled

	const query = `INSERT INTO reservations (id, client_id, instructor_id, vehicle_id, lesson_date, start_time, end_time, status, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10
		WHERE NOT EXISTS (
			SELECT 1 FROM reservations
			WHERE lesson_date = $5::date AND start_time = $6 AND instructor_id = $3
			AND status IN ('SCHEDULED', 'COMPLETED')
		)`

	result, err := r.db.ExecContext(ctx, query,
		res.ID, res.ClientID, res.InstructorID, res.VehicleID,
		res.LessonDate, res.StartTime, res.EndTime,
		res.Status, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert reservation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert reservation rows: %w", err)
	}
	if affected == 0 {
		return ErrSlotTaken
	}
	return nil
}

// FindByID loads a reservation by id.
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	query := fmt.Sprintf("SELECT %s FROM reservations WHERE id = $1", reservationColumns)
	var res models.Reservation
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListActiveByDate returns the reservations occupying slots on a given day,
// joined with occupant identity for roles that may see schedules.
func (r *ReservationRepository) ListActiveByDate(ctx context.Context, date string) ([]models.ReservationDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM (
			SELECT r.*, c.full_name AS client_name, i.full_name AS instructor_name, v.model AS vehicle_model
			FROM reservations r
			JOIN users c ON c.id = r.client_id
			JOIN users i ON i.id = r.instructor_id
			JOIN vehicles v ON v.id = r.vehicle_id
			WHERE r.lesson_date = $1::date AND r.status IN ('SCHEDULED', 'COMPLETED')
		) sub ORDER BY start_time ASC, instructor_id ASC`, reservationDetailColumns)
	var details []models.ReservationDetail
	if err := r.db.SelectContext(ctx, &details, query, date); err != nil {
		return nil, fmt.Errorf("list reservations by date: %w", err)
	}
	return details, nil
}

// ListForUser returns reservations where the user is the client or the
// instructor, ordered ascending by lesson date then start time.
func (r *ReservationRepository) ListForUser(ctx context.Context, userID string) ([]models.ReservationDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM (
			SELECT r.*, c.full_name AS client_name, i.full_name AS instructor_name, v.model AS vehicle_model
			FROM reservations r
			JOIN users c ON c.id = r.client_id
			JOIN users i ON i.id = r.instructor_id
			JOIN vehicles v ON v.id = r.vehicle_id
			WHERE r.client_id = $1 OR r.instructor_id = $1
		) sub ORDER BY lesson_date ASC, start_time ASC`, reservationDetailColumns)
	var details []models.ReservationDetail
	if err := r.db.SelectContext(ctx, &details, query, userID); err != nil {
		return nil, fmt.Errorf("list reservations for user: %w", err)
	}
	return details, nil
}

// Cancel transitions a scheduled reservation to cancelled. It only matches
// SCHEDULED rows so terminal states stay immutable; zero rows affected means
// the reservation was not cancellable anymore.
func (r *ReservationRepository) Cancel(ctx context.Context, id, byUserID string, at time.Time) (bool, error) {
	const query = `UPDATE reservations SET status = 'CANCELLED', cancelled_by = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'SCHEDULED'`
	result, err := r.db.ExecContext(ctx, query, id, byUserID, at)
	if err != nil {
		return false, fmt.Errorf("cancel reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel reservation rows: %w", err)
	}
	return affected > 0, nil
}

// PromoteElapsed moves scheduled reservations whose end time has passed to
// COMPLETED. Completion is observed lazily on read paths; there is no
// background job.
func (r *ReservationRepository) PromoteElapsed(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE reservations SET status = 'COMPLETED', updated_at = $1
		WHERE status = 'SCHEDULED' AND (lesson_date + end_time::time) <= $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("promote elapsed reservations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("promote elapsed rows: %w", err)
	}
	return affected, nil
}

// History returns completed reservations joined with feedback, newest first.
// Visibility filtering (own lessons, taught lessons, all) is the caller's
// concern and expressed through clientID/instructorID; both empty means all.
func (r *ReservationRepository) History(ctx context.Context, clientID, instructorID string) ([]models.PastLesson, error) {
	query := `SELECT r.id AS reservation_id, r.lesson_date::text AS lesson_date, r.start_time, r.end_time,
			r.client_id, c.full_name AS client_name,
			r.instructor_id, i.full_name AS instructor_name,
			r.vehicle_id, v.model AS vehicle_model, v.transmission,
			f.notes, f.rating
		FROM reservations r
		JOIN users c ON c.id = r.client_id
		JOIN users i ON i.id = r.instructor_id
		JOIN vehicles v ON v.id = r.vehicle_id
		LEFT JOIN feedback f ON f.reservation_id = r.id
		WHERE r.status = 'COMPLETED'`
	var args []interface{}
	if clientID != "" {
		args = append(args, clientID)
		query += fmt.Sprintf(" AND r.client_id = $%d", len(args))
	}
	if instructorID != "" {
		args = append(args, instructorID)
		query += fmt.Sprintf(" AND r.instructor_id = $%d", len(args))
	}
	query += " ORDER BY r.lesson_date DESC, r.start_time DESC"

	var lessons []models.PastLesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("load lesson history: %w", err)
	}
	return lessons, nil
}

// CompletedHours sums the duration of a client's completed lessons in hours.
func (r *ReservationRepository) CompletedHours(ctx context.Context, clientID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (end_time::time - start_time::time)) / 3600), 0)
		FROM reservations WHERE client_id = $1 AND status = 'COMPLETED'`
	var hours float64
	if err := r.db.GetContext(ctx, &hours, query, clientID); err != nil {
		return 0, fmt.Errorf("sum completed hours: %w", err)
	}
	return hours, nil
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoecole-dijon/portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReservationRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(sqlmock.AnyArg(), "client-1", "ins-1", "veh-1", "2030-05-20", "10:00", "11:00", string(models.ReservationScheduled), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res := &models.Reservation{
		ClientID:     "client-1",
		InstructorID: "ins-1",
		VehicleID:    "veh-1",
		LessonDate:   "2030-05-20",
		StartTime:    "10:00",
		EndTime:      "11:00",
	}
	require.NoError(t, repo.Insert(context.Background(), res))
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, models.ReservationScheduled, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryInsertSlotTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	// The guard subquery found an existing row: zero rows inserted.
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	res := &models.Reservation{ClientID: "client-1", InstructorID: "ins-1", VehicleID: "veh-1", LessonDate: "2030-05-20", StartTime: "10:00", EndTime: "11:00"}
	err := repo.Insert(context.Background(), res)
	assert.True(t, errors.Is(err, ErrSlotTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryInsertUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	// A concurrent insert slipped past the guard and hit the partial index.
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnError(&pq.Error{Code: "23505"})

	res := &models.Reservation{ClientID: "client-1", InstructorID: "ins-1", VehicleID: "veh-1", LessonDate: "2030-05-20", StartTime: "10:00", EndTime: "11:00"}
	err := repo.Insert(context.Background(), res)
	assert.True(t, errors.Is(err, ErrSlotTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func reservationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "client_id", "instructor_id", "vehicle_id", "lesson_date",
		"start_time", "end_time", "status", "cancelled_by", "cancelled_at",
		"created_at", "updated_at",
	})
}

func TestReservationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id =").
		WithArgs("res-1").
		WillReturnRows(reservationRows().
			AddRow("res-1", "client-1", "ins-1", "veh-1", "2030-05-20", "10:00", "11:00", "SCHEDULED", nil, nil, now, now))

	res, err := repo.FindByID(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, "2030-05-20", res.LessonDate)
	assert.Equal(t, models.ReservationScheduled, res.Status)
	assert.Equal(t, "2030-05-20-10:00-ins-1", res.SlotKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryListActiveByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "client_id", "instructor_id", "vehicle_id", "lesson_date",
		"start_time", "end_time", "status", "cancelled_by", "cancelled_at",
		"created_at", "updated_at", "client_name", "instructor_name", "vehicle_model",
	}).AddRow("res-1", "client-1", "ins-1", "veh-1", "2030-05-20", "10:00", "11:00", "SCHEDULED", nil, nil, now, now, "Luc Moreau", "Marie Dupont", "Peugeot 208")

	mock.ExpectQuery("SELECT (.+) FROM \\(").
		WithArgs("2030-05-20").
		WillReturnRows(rows)

	details, err := repo.ListActiveByDate(context.Background(), "2030-05-20")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Luc Moreau", details[0].ClientName)
	assert.Equal(t, "Peugeot 208", details[0].VehicleModel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryCancel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	at := time.Now()
	mock.ExpectExec("UPDATE reservations SET status = 'CANCELLED'").
		WithArgs("res-1", "client-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Cancel(context.Background(), "res-1", "client-1", at)
	require.NoError(t, err)
	assert.True(t, ok)

	// Terminal rows don't match the SCHEDULED predicate.
	mock.ExpectExec("UPDATE reservations SET status = 'CANCELLED'").
		WithArgs("res-1", "client-1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.Cancel(context.Background(), "res-1", "client-1", at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryPromoteElapsed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	now := time.Now()
	mock.ExpectExec("UPDATE reservations SET status = 'COMPLETED'").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	promoted, err := repo.PromoteElapsed(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), promoted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryHistoryFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	rows := sqlmock.NewRows([]string{
		"reservation_id", "lesson_date", "start_time", "end_time",
		"client_id", "client_name", "instructor_id", "instructor_name",
		"vehicle_id", "vehicle_model", "transmission", "notes", "rating",
	}).AddRow("res-1", "2030-04-18", "10:00", "11:00", "client-1", "Luc Moreau", "ins-1", "Marie Dupont", "veh-1", "Peugeot 208", "MANUAL", "good progress", 4)

	mock.ExpectQuery("WHERE r.status = 'COMPLETED' AND r.client_id =").
		WithArgs("client-1").
		WillReturnRows(rows)

	lessons, err := repo.History(context.Background(), "client-1", "")
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "2030-04-18", lessons[0].Date)
	require.NotNil(t, lessons[0].Rating)
	assert.Equal(t, 4, *lessons[0].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryCompletedHours(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(EXTRACT").
		WithArgs("client-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12.5))

	hours, err := repo.CompletedHours(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, 12.5, hours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

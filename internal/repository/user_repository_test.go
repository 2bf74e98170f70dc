package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoecole-dijon/portal-api/internal/models"
)

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "phone", "neph_code", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("u1", "luc@example.com", "hash", "Luc Moreau", nil, nil, "CLIENT", true, nil, now, now)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE LOWER\\(email\\)").
		WithArgs("luc@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "luc@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("luc@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "luc@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.ExistsByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListInstructors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name"}).
		AddRow("ins-2", "Jean Martin").
		AddRow("ins-1", "Marie Dupont")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name FROM users WHERE role = 'INSTRUCTOR' AND active = TRUE ORDER BY full_name ASC")).
		WillReturnRows(rows)

	instructors, err := repo.ListInstructors(context.Background())
	require.NoError(t, err)
	require.Len(t, instructors, 2)
	assert.Equal(t, "Jean Martin", instructors[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "phone", "neph_code", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("u1", "luc@example.com", "hash", "Luc Moreau", nil, nil, "CLIENT", true, nil, now, now)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE 1=1 AND role = \$1 AND \(full_name ILIKE \$2 OR email ILIKE \$2\) ORDER BY full_name ASC LIMIT 20 OFFSET 0`).
		WithArgs("CLIENT", "%luc%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE 1=1 AND role = \$1 AND \(full_name ILIKE \$2 OR email ILIKE \$2\)`).
		WithArgs("CLIENT", "%luc%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	role := models.RoleClient
	users, total, err := repo.List(context.Background(), models.UserFilter{
		Role:      &role,
		Search:    "luc",
		SortBy:    "full_name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Luc Moreau", users[0].FullName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.UserFilter{SortBy: "password_hash; DROP TABLE users", SortOrder: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "new@example.com", "hash", "New Client", nil, nil, "CLIENT", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "new@example.com", PasswordHash: "hash", FullName: "New Client", Role: models.RoleClient, Active: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

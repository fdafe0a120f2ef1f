package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/models"
)

func setupUserMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewUserRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

var userCols = []string{"id", "username", "email", "hashed_password", "role", "permissions", "is_active", "created_at"}

func TestUserRepository_GetByUsername(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users WHERE username = $1`)).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "admin", "admin@tmsiti.uz", "$2a$hash", "admin", `["read","write"]`, true, created))

	u, err := repo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 1 || u.Email != "admin@tmsiti.uz" || !u.IsActive {
		t.Errorf("unexpected user: %+v", u)
	}
	if len(u.Permissions) != 2 || u.Permissions[1] != "write" {
		t.Errorf("permissions = %v", u.Permissions)
	}
	if !u.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v", u.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUserRepository_GetByEmail_Error(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("x@y.z").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByEmail(context.Background(), "x@y.z")
	if err == nil || apperr.CodeOf(err) != apperr.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	u := &models.User{
		Username:     "bob",
		Email:        "bob@example.com",
		PasswordHash: "digest",
		Role:         models.DefaultRole,
		Permissions:  []models.Permission{models.PermRead},
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("bob", "bob@example.com", "digest", "viewer", `["read"]`, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 7 {
		t.Errorf("ID = %d; want 7", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_Create_Conflict(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Username: "bob"})
	if apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestUserRepository_List(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "admin", "a@x", "h", "admin", `["read"]`, true, now).
			AddRow(2, "editor", "e@x", "h", "editor", `[]`, false, now))

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[1].Username != "editor" || users[1].IsActive {
		t.Errorf("unexpected users: %+v", users)
	}
	if users[1].Permissions == nil {
		t.Error("empty permissions must decode to an empty slice")
	}
}

func TestUserRepository_Update(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET role = $1, permissions = $2, is_active = $3 WHERE id = $4`)).
		WithArgs("editor", `["read","write"]`, false, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.User{
		ID: 3, Role: "editor", Permissions: []string{"read", "write"}, IsActive: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 9)
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/models"
)

var menuCols = []string{"id", "title", "url", "icon", "sort_order", "parent_id", "permissions", "is_active", "created_at"}

func setupMenuMock(t *testing.T) (*MenuRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewMenuRepository(db), mock, func() { db.Close() }
}

func TestMenuRepository_All(t *testing.T) {
	repo, mock, cleanup := setupMenuMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + menuColumns + ` FROM menu_items ORDER BY sort_order, id`)).
		WillReturnRows(sqlmock.NewRows(menuCols).
			AddRow(1, `{"uz":"Institut","en":"Institute"}`, "/institut", "building", 1, nil, `["read"]`, true, now).
			AddRow(2, `{"uz":"Rahbariyat"}`, "/institut/leadership", "users", 2, 1, `["read"]`, true, now))

	items, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d; want 2", len(items))
	}
	if items[0].ParentID != nil {
		t.Errorf("root parent = %v; want nil", *items[0].ParentID)
	}
	if items[1].ParentID == nil || *items[1].ParentID != 1 {
		t.Errorf("child parent = %v; want 1", items[1].ParentID)
	}
	if items[0].Title["en"] != "Institute" {
		t.Errorf("title = %v", items[0].Title)
	}
}

func TestMenuRepository_Get_NotFound(t *testing.T) {
	repo, mock, cleanup := setupMenuMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM menu_items WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(menuCols))

	_, err := repo.Get(context.Background(), 5)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if apperr.PublicMessage(err) != "Menu item not found" {
		t.Errorf("message = %q", apperr.PublicMessage(err))
	}
}

func TestMenuRepository_CreateUpdate(t *testing.T) {
	repo, mock, cleanup := setupMenuMock(t)
	defer cleanup()

	parent := int64(1)
	item := &models.MenuItem{
		Title:       models.Localized{"uz": "Yangi"},
		URL:         "/new",
		Order:       4,
		ParentID:    &parent,
		Permissions: []models.Permission{"read"},
		IsActive:    true,
		CreatedAt:   time.Now(),
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO menu_items`)).
		WithArgs(`{"uz":"Yangi"}`, "/new", "", 4, int64(1), `["read"]`, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	if err := repo.Create(context.Background(), item); err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID != 12 {
		t.Fatalf("ID = %d; want 12", item.ID)
	}

	item.ParentID = nil
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE menu_items`)).
		WithArgs(`{"uz":"Yangi"}`, "/new", "", 4, nil, `["read"]`, true, int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Update(context.Background(), item); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMenuRepository_Delete(t *testing.T) {
	repo, mock, cleanup := setupMenuMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM menu_items WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM menu_items WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnError(errors.New("locked"))
	if err := repo.Delete(context.Background(), 4); err == nil {
		t.Fatal("expected error")
	}
}

package db_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/db"
)

func fakeHash(s string) (string, error) { return "hashed:" + s, nil }

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	conn, _, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	users := db.DefaultUsers("a", "e")
	menu := db.DefaultMenu()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Seed(ctx, conn, users, menu, fakeHash, zap.NewNop()), "run %d", i)
	}

	var nUsers, nMenu, nRoots int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&nUsers))
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM menu_items`).Scan(&nMenu))
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM menu_items WHERE parent_id IS NULL`).Scan(&nRoots))
	assert.Equal(t, 2, nUsers)
	assert.Equal(t, 11, nMenu)
	assert.Equal(t, 5, nRoots)

	var hash, perms string
	require.NoError(t, conn.QueryRow(`SELECT hashed_password, permissions FROM users WHERE username = 'admin'`).Scan(&hash, &perms))
	assert.Equal(t, "hashed:a", hash)
	assert.JSONEq(t, `["read","write","delete","manage_users"]`, perms)
}

func TestSeed_KeepsExistingMenu(t *testing.T) {
	ctx := context.Background()
	conn, _, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`INSERT INTO menu_items (title, url, created_at) VALUES ('{}', '/custom', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	require.NoError(t, db.Seed(ctx, conn, nil, db.DefaultMenu(), fakeHash, zap.NewNop()))

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM menu_items`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSeed_RollsBackOnError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`)).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = db.Seed(context.Background(), conn, db.DefaultUsers("a", "e")[:1], nil, fakeHash, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert user admin")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_HashFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	failing := func(string) (string, error) { return "", errors.New("too long") }
	err = db.Seed(context.Background(), conn, db.DefaultUsers("a", "e")[:1], nil, failing, zap.NewNop())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

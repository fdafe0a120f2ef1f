package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/models"
)

const userNotFound = "User not found"

const userColumns = `id, username, email, hashed_password, role, permissions, is_active, created_at`

// UserRepository stores user accounts.
type UserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewUserRepository creates a UserRepository over db.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u     models.User
		perms string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &perms, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(perms, &u.Permissions); err != nil {
		return nil, err
	}
	if u.Permissions == nil {
		u.Permissions = []models.Permission{}
	}
	return &u, nil
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value))
	if err != nil {
		return nil, notFound(err, userNotFound)
	}
	return u, nil
}

// GetByUsername returns the user with the given login name.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByEmail returns the user registered with email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByID returns the user with id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// Create inserts u and fills in its ID. A taken username or email yields a
// CONFLICT error.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	perms, err := encodeJSON(u.Permissions)
	if err != nil {
		return err
	}
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO users (username, email, hashed_password, role, permissions, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, u.Username, u.Email, u.PasswordHash, u.Role, perms, u.IsActive, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.CodeConflict, "Username or email already registered", err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// List returns all users ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Update persists the role, permissions and active flag of u.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	perms, err := encodeJSON(u.Permissions)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET role = $1, permissions = $2, is_active = $3 WHERE id = $4
	`, u.Role, perms, u.IsActive, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return checkAffected(res, userNotFound)
}

// Delete removes the user with id. Documents they created keep a NULL creator.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return checkAffected(res, userNotFound)
}

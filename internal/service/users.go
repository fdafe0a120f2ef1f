package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/models"
)

// UserUpdate changes the administrative fields of an account. Nil fields
// are left as they are.
type UserUpdate struct {
	Role        *string              `json:"role"`
	Permissions *[]models.Permission `json:"permissions"`
	IsActive    *bool                `json:"is_active"`
}

var knownPermissions = map[models.Permission]struct{}{
	models.PermRead:        {},
	models.PermWrite:       {},
	models.PermDelete:      {},
	models.PermManageUsers: {},
}

// UserService administers accounts.
type UserService struct {
	users UserRepository
	log   *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users UserRepository, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Get returns the account with id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies upd to the account with id. Permissions are replaced as a
// whole, deduplicated in their given order; unknown permissions are
// rejected.
func (s *UserService) Update(ctx context.Context, actor *models.User, id int64, upd UserUpdate) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Role != nil {
		user.Role = *upd.Role
	}
	if upd.Permissions != nil {
		perms := make([]models.Permission, 0, len(*upd.Permissions))
		seen := map[models.Permission]bool{}
		for _, p := range *upd.Permissions {
			if _, ok := knownPermissions[p]; !ok {
				return nil, apperr.Validation("unknown permission " + p)
			}
			if !seen[p] {
				seen[p] = true
				perms = append(perms, p)
			}
		}
		user.Permissions = perms
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user updated",
		zap.Int64("id", user.ID),
		zap.String("by", actorName(actor)),
		zap.Strings("permissions", user.Permissions),
		zap.Bool("is_active", user.IsActive),
	)
	return user, nil
}

func actorName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

// Delete removes the account with id. An administrator cannot delete their
// own account.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if actor != nil && actor.ID == id {
		return apperr.Validation("cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Int64("id", id), zap.String("by", actorName(actor)))
	return nil
}

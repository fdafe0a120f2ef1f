package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/hierarchy"
	"github.com/tmsiti/backend/internal/models"
)

// MenuRepository defines the persistence operations on menu items.
type MenuRepository interface {
	All(ctx context.Context) ([]models.MenuItem, error)
	Get(ctx context.Context, id int64) (*models.MenuItem, error)
	Create(ctx context.Context, m *models.MenuItem) error
	Update(ctx context.Context, m *models.MenuItem) error
	Delete(ctx context.Context, id int64) error
}

// MenuInput is the writable part of a menu item.
type MenuInput struct {
	Title       models.Localized    `json:"title"`
	URL         string              `json:"url"`
	Icon        string              `json:"icon"`
	Order       int                 `json:"order"`
	ParentID    *int64              `json:"parent_id"`
	Permissions []models.Permission `json:"permissions"`
	// IsActive defaults to true on create and is unchanged on update when nil.
	IsActive *bool `json:"is_active"`
}

func (in MenuInput) validate() error {
	if len(in.Title) == 0 {
		return apperr.Validation("title is required")
	}
	if strings.TrimSpace(in.URL) == "" {
		return apperr.Validation("url is required")
	}
	return nil
}

// MenuService manages the navigation tree.
type MenuService struct {
	repo MenuRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewMenuService constructs a MenuService.
func NewMenuService(repo MenuRepository, log *zap.Logger) *MenuService {
	return &MenuService{repo: repo, log: log, now: time.Now}
}

// Tree returns the active root items with their active descendants.
func (s *MenuService) Tree(ctx context.Context) ([]*hierarchy.Tree[models.MenuItem], error) {
	items, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return forest(items, "menu", s.log), nil
}

// Item returns the item with id and its active descendants.
func (s *MenuService) Item(ctx context.Context, id int64) (*hierarchy.Tree[models.MenuItem], error) {
	items, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := subtree(items, id, "menu", s.log)
	if !ok {
		return nil, apperr.NotFound("Menu item not found")
	}
	return t, nil
}

// Create adds a menu item.
func (s *MenuService) Create(ctx context.Context, in MenuInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if _, err := s.repo.Get(ctx, *in.ParentID); err != nil {
			if apperr.CodeOf(err) == apperr.CodeNotFound {
				return nil, apperr.Validation("parent menu item not found")
			}
			return nil, err
		}
	}

	item := &models.MenuItem{
		Title:       in.Title,
		URL:         in.URL,
		Icon:        in.Icon,
		Order:       in.Order,
		ParentID:    in.ParentID,
		Permissions: in.Permissions,
		IsActive:    true,
		CreatedAt:   s.now().UTC(),
	}
	if item.Permissions == nil {
		item.Permissions = []models.Permission{models.PermRead}
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update replaces the fields of the item with id. A parent that is the item
// itself or one of its descendants is rejected.
func (s *MenuService) Update(ctx context.Context, id int64, in MenuInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	items, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	var item *models.MenuItem
	for i := range items {
		if items[i].ID == id {
			item = &items[i]
			break
		}
	}
	if item == nil {
		return nil, apperr.NotFound("Menu item not found")
	}
	if err := checkParent(items, id, in.ParentID, "menu item"); err != nil {
		return nil, err
	}

	item.Title = in.Title
	item.URL = in.URL
	item.Icon = in.Icon
	item.Order = in.Order
	item.ParentID = in.ParentID
	if in.Permissions != nil {
		item.Permissions = in.Permissions
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the item with id and its descendants.
func (s *MenuService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

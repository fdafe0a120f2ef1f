package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/hierarchy"
	"github.com/tmsiti/backend/internal/models"
)

// CategoryRepository defines the persistence operations on document
// categories.
type CategoryRepository interface {
	All(ctx context.Context) ([]models.DocumentCategory, error)
	Get(ctx context.Context, id int64) (*models.DocumentCategory, error)
	Create(ctx context.Context, c *models.DocumentCategory) error
	Update(ctx context.Context, c *models.DocumentCategory) error
	Delete(ctx context.Context, id int64) error
}

// CategoryInput is the writable part of a document category.
type CategoryInput struct {
	Name         models.Localized `json:"name"`
	Description  models.Localized `json:"description"`
	DocumentType string           `json:"document_type"`
	ParentID     *int64           `json:"parent_id"`
	Order        int              `json:"order"`
	IsActive     *bool            `json:"is_active"`
}

func (in CategoryInput) validate() error {
	if len(in.Name) == 0 {
		return apperr.Validation("name is required")
	}
	if !models.DocumentType(in.DocumentType).Valid() {
		return apperr.Validation("invalid document_type " + in.DocumentType)
	}
	return nil
}

// CategoryService manages the document category tree.
type CategoryService struct {
	repo CategoryRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo CategoryRepository, log *zap.Logger) *CategoryService {
	return &CategoryService{repo: repo, log: log, now: time.Now}
}

// Tree returns the active category forest. A non-empty documentType keeps
// only categories of that type.
func (s *CategoryService) Tree(ctx context.Context, documentType string) ([]*hierarchy.Tree[models.DocumentCategory], error) {
	cats, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	if documentType != "" {
		kept := cats[:0]
		for _, c := range cats {
			if c.DocumentType == documentType {
				kept = append(kept, c)
			}
		}
		cats = kept
	}
	return forest(cats, "categories", s.log), nil
}

// Category returns the category with id and its active descendants.
func (s *CategoryService) Category(ctx context.Context, id int64) (*hierarchy.Tree[models.DocumentCategory], error) {
	cats, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := subtree(cats, id, "categories", s.log)
	if !ok {
		return nil, apperr.NotFound("Category not found")
	}
	return t, nil
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.DocumentCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if _, err := s.repo.Get(ctx, *in.ParentID); err != nil {
			if apperr.CodeOf(err) == apperr.CodeNotFound {
				return nil, apperr.Validation("parent category not found")
			}
			return nil, err
		}
	}

	c := &models.DocumentCategory{
		Name:         in.Name,
		Description:  in.Description,
		DocumentType: in.DocumentType,
		ParentID:     in.ParentID,
		Order:        in.Order,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if c.Description == nil {
		c.Description = models.Localized{}
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the fields of the category with id.
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (*models.DocumentCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	cats, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	var c *models.DocumentCategory
	for i := range cats {
		if cats[i].ID == id {
			c = &cats[i]
			break
		}
	}
	if c == nil {
		return nil, apperr.NotFound("Category not found")
	}
	if err := checkParent(cats, id, in.ParentID, "category"); err != nil {
		return nil, err
	}

	c.Name = in.Name
	if in.Description != nil {
		c.Description = in.Description
	}
	c.DocumentType = in.DocumentType
	c.ParentID = in.ParentID
	c.Order = in.Order
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the category with id and its descendants.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

package http

import (
	"golang.org/x/text/language"

	"github.com/tmsiti/backend/internal/hierarchy"
	"github.com/tmsiti/backend/internal/i18n"
	"github.com/tmsiti/backend/internal/models"
)

// MenuItemView is a menu item with its localized label and nested children.
type MenuItemView struct {
	models.MenuItem
	Label    string          `json:"label"`
	Children []*MenuItemView `json:"children"`
}

func menuView(t *hierarchy.Tree[models.MenuItem], tag language.Tag) *MenuItemView {
	v := &MenuItemView{
		MenuItem: t.Node,
		Label:    i18n.Pick(t.Node.Title, tag),
		Children: make([]*MenuItemView, 0, len(t.Children)),
	}
	for _, c := range t.Children {
		v.Children = append(v.Children, menuView(c, tag))
	}
	return v
}

func menuLeaf(m *models.MenuItem, tag language.Tag) *MenuItemView {
	return menuView(&hierarchy.Tree[models.MenuItem]{Node: *m}, tag)
}

// CategoryView is a document category with its localized label and nested
// children.
type CategoryView struct {
	models.DocumentCategory
	Label    string          `json:"label"`
	Children []*CategoryView `json:"children"`
}

func categoryView(t *hierarchy.Tree[models.DocumentCategory], tag language.Tag) *CategoryView {
	v := &CategoryView{
		DocumentCategory: t.Node,
		Label:            i18n.Pick(t.Node.Name, tag),
		Children:         make([]*CategoryView, 0, len(t.Children)),
	}
	for _, c := range t.Children {
		v.Children = append(v.Children, categoryView(c, tag))
	}
	return v
}

func categoryLeaf(c *models.DocumentCategory, tag language.Tag) *CategoryView {
	return categoryView(&hierarchy.Tree[models.DocumentCategory]{Node: *c}, tag)
}

// DocumentView is a document with its localized title.
type DocumentView struct {
	models.Document
	Label string `json:"label"`
}

func documentView(d *models.Document, tag language.Tag) *DocumentView {
	return &DocumentView{Document: *d, Label: i18n.Pick(d.Title, tag)}
}

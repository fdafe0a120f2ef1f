// Package models defines the core data structures for users, menu items,
// documents and document categories.
package models

import (
	"slices"
	"time"
)

// Permission is an opaque capability string granted to a user.
type Permission = string

const (
	// PermRead allows reading protected resources.
	PermRead Permission = "read"
	// PermWrite allows creating and updating menu items, documents and categories.
	PermWrite Permission = "write"
	// PermDelete allows deleting menu items, documents and categories.
	PermDelete Permission = "delete"
	// PermManageUsers allows administering user accounts.
	PermManageUsers Permission = "manage_users"
)

// DefaultRole is the display label given to self-registered users.
const DefaultRole = "viewer"

// User represents an application account.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `json:"id"`
	// Username is the unique login name.
	Username string `json:"username"`
	// Email is the unique contact address.
	Email string `json:"email"`
	// PasswordHash is the bcrypt digest of the password. It is never serialized.
	PasswordHash string `json:"-"`
	// Role is a display label only; permission checks never consult it.
	Role string `json:"role"`
	// Permissions is the authoritative set of granted capabilities.
	Permissions []Permission `json:"permissions"`
	// IsActive disables the account when false.
	IsActive bool `json:"is_active"`
	// CreatedAt is the account creation instant.
	CreatedAt time.Time `json:"created_at"`
}

// HasPermission reports whether p is an element of the user's permission set.
func (u *User) HasPermission(p Permission) bool {
	if u == nil || len(u.Permissions) == 0 {
		return false
	}
	return slices.Contains(u.Permissions, p)
}

// Localized maps a language code to a display string.
type Localized map[string]string

// MenuItem is a node of the site navigation tree.
type MenuItem struct {
	ID          int64        `json:"id"`
	Title       Localized    `json:"title"`
	URL         string       `json:"url"`
	Icon        string       `json:"icon"`
	Order       int          `json:"order"`
	ParentID    *int64       `json:"parent_id"`
	Permissions []Permission `json:"permissions"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NodeID, ParentNodeID, SortOrder and Active expose the tree coordinates
// of a menu item to the hierarchy resolver.
func (m MenuItem) NodeID() int64        { return m.ID }
func (m MenuItem) ParentNodeID() *int64 { return m.ParentID }
func (m MenuItem) SortOrder() int       { return m.Order }
func (m MenuItem) Active() bool         { return m.IsActive }

// DocumentCategory is a node of the document classification tree.
type DocumentCategory struct {
	ID           int64     `json:"id"`
	Name         Localized `json:"name"`
	Description  Localized `json:"description"`
	DocumentType string    `json:"document_type"`
	ParentID     *int64    `json:"parent_id"`
	Order        int       `json:"order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (c DocumentCategory) NodeID() int64        { return c.ID }
func (c DocumentCategory) ParentNodeID() *int64 { return c.ParentID }
func (c DocumentCategory) SortOrder() int       { return c.Order }
func (c DocumentCategory) Active() bool         { return c.IsActive }

// DocumentType defines the set of valid document kinds.
type DocumentType string

const (
	// DocumentLaw is a law, resolution or decree.
	DocumentLaw DocumentType = "law"
	// DocumentStandard is a national or interstate standard.
	DocumentStandard DocumentType = "standard"
	// DocumentRegulation is a technical regulation.
	DocumentRegulation DocumentType = "regulation"
	// DocumentSHNQ is a set of urban planning norms and rules.
	DocumentSHNQ DocumentType = "shnq"
	// DocumentReference is reference material.
	DocumentReference DocumentType = "reference"
)

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentLaw, DocumentStandard, DocumentRegulation, DocumentSHNQ, DocumentReference:
		return true
	}
	return false
}

// Document is a normative document record with optional file attachment.
type Document struct {
	ID             int64          `json:"id"`
	Title          Localized      `json:"title"`
	Description    Localized      `json:"description"`
	Content        *string        `json:"content,omitempty"`
	DocumentType   DocumentType   `json:"document_type"`
	Category       *string        `json:"category"`
	DocumentNumber *string        `json:"document_number"`
	Author         *string        `json:"author"`
	IssueDate      *time.Time     `json:"issue_date"`
	EffectiveDate  *time.Time     `json:"effective_date"`
	FilePath       *string        `json:"file_path"`
	FileSize       *int64         `json:"file_size"`
	FileType       *string        `json:"file_type"`
	DownloadCount  int64          `json:"download_count"`
	Tags           []string       `json:"tags"`
	Metadata       map[string]any `json:"document_metadata"`
	IsActive       bool           `json:"is_active"`
	IsFeatured     bool           `json:"is_featured"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	CreatedBy      *int64         `json:"created_by"`
}

// DocumentFilter narrows document listings. Zero values do not filter.
type DocumentFilter struct {
	Category     string
	DocumentType DocumentType
	Featured     *bool
}

// DownloadLog records a single download event of a document.
type DownloadLog struct {
	ID           int64     `json:"id"`
	DocumentID   int64     `json:"document_id"`
	UserID       *int64    `json:"user_id"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/models"
)

// SeedUser is a default account created when its username is absent.
type SeedUser struct {
	Username    string
	Email       string
	Password    string
	Role        string
	Permissions []models.Permission
}

// SeedMenuItem is a default navigation entry with its sub-items.
type SeedMenuItem struct {
	Title    models.Localized
	URL      string
	Icon     string
	Order    int
	Children []SeedMenuItem
}

// DefaultUsers returns the admin and editor accounts.
func DefaultUsers(adminPassword, editorPassword string) []SeedUser {
	return []SeedUser{
		{
			Username:    "admin",
			Email:       "admin@tmsiti.uz",
			Password:    adminPassword,
			Role:        "admin",
			Permissions: []models.Permission{models.PermRead, models.PermWrite, models.PermDelete, models.PermManageUsers},
		},
		{
			Username:    "editor",
			Email:       "editor@tmsiti.uz",
			Password:    editorPassword,
			Role:        "editor",
			Permissions: []models.Permission{models.PermRead, models.PermWrite},
		},
	}
}

// DefaultMenu returns the initial site navigation.
func DefaultMenu() []SeedMenuItem {
	return []SeedMenuItem{
		{
			Title: models.Localized{"uz": "Institut", "ru": "Институт", "en": "Institute"},
			URL:   "/institut", Icon: "building", Order: 1,
			Children: []SeedMenuItem{
				{Title: models.Localized{"uz": "Institut haqida", "ru": "Об институте", "en": "About Institute"}, URL: "/institut/about", Icon: "info", Order: 1},
				{Title: models.Localized{"uz": "Rahbariyat", "ru": "Руководство", "en": "Leadership"}, URL: "/institut/leadership", Icon: "users", Order: 2},
				{Title: models.Localized{"uz": "Tashkiliy tuzilma", "ru": "Организационная структура", "en": "Organizational Structure"}, URL: "/institut/structure", Icon: "sitemap", Order: 3},
			},
		},
		{
			Title: models.Localized{"uz": "Me'yoriy hujjatlar", "ru": "Нормативные документы", "en": "Regulatory Documents"},
			URL:   "/documents", Icon: "file-text", Order: 2,
			Children: []SeedMenuItem{
				{Title: models.Localized{"uz": "Qonun, qaror va farmonlar", "ru": "Законы, постановления и указы", "en": "Laws, Resolutions and Decrees"}, URL: "/documents/laws", Icon: "gavel", Order: 1},
				{Title: models.Localized{"uz": "Shaharsozlik normalari va qoidalari", "ru": "Градостроительные нормы и правила", "en": "Urban Planning Standards"}, URL: "/documents/urban-planning", Icon: "city", Order: 2},
				{Title: models.Localized{"uz": "Standartlar", "ru": "Стандарты", "en": "Standards"}, URL: "/documents/standards", Icon: "check-circle", Order: 3},
			},
		},
		{
			Title: models.Localized{"uz": "Faoliyat", "ru": "Деятельность", "en": "Activities"},
			URL:   "/activities", Icon: "briefcase", Order: 3,
		},
		{
			Title: models.Localized{"uz": "Xabarlar", "ru": "Новости", "en": "News"},
			URL:   "/news", Icon: "newspaper", Order: 4,
		},
		{
			Title: models.Localized{"uz": "Bog'lanish", "ru": "Контакты", "en": "Contacts"},
			URL:   "/contacts", Icon: "phone", Order: 5,
		},
	}
}

// Seed creates missing default users and, when the menu is empty, the
// default menu tree. It runs in one transaction and is safe to call on
// every startup.
func Seed(
	ctx context.Context,
	db *sql.DB,
	users []SeedUser,
	menu []SeedMenuItem,
	hash func(string) (string, error),
	log *zap.Logger,
) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, u := range users {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, u.Username,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check user %s: %w", u.Username, err)
		}
		if exists {
			continue
		}
		digest, err := hash(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		perms, err := json.Marshal(u.Permissions)
		if err != nil {
			return fmt.Errorf("encode permissions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, email, hashed_password, role, permissions, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6)
			ON CONFLICT DO NOTHING
		`, u.Username, u.Email, digest, u.Role, string(perms), now); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Username, err)
		}
		log.Info("seeded user", zap.String("username", u.Username))
	}

	var menuCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&menuCount); err != nil {
		return fmt.Errorf("count menu items: %w", err)
	}
	if menuCount == 0 {
		n, err := insertMenu(ctx, tx, menu, nil, now)
		if err != nil {
			return err
		}
		log.Info("seeded menu", zap.Int("items", n))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertMenu(ctx context.Context, tx *sql.Tx, items []SeedMenuItem, parent *int64, now time.Time) (int, error) {
	count := 0
	for _, item := range items {
		title, err := json.Marshal(item.Title)
		if err != nil {
			return count, fmt.Errorf("encode menu title: %w", err)
		}
		var id int64
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO menu_items (title, url, icon, sort_order, parent_id, permissions, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, '["read"]', TRUE, $6)
			RETURNING id
		`, string(title), item.URL, item.Icon, item.Order, parent, now).Scan(&id); err != nil {
			return count, fmt.Errorf("insert menu item %s: %w", item.URL, err)
		}
		count++
		n, err := insertMenu(ctx, tx, item.Children, &id, now)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

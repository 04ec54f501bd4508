package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/core"
	"talenthub/internal/platform/config"
)

// DefaultTemplate is an email template installed on first start. Existing
// rows are never overwritten so HR edits survive restarts.
type DefaultTemplate struct {
	Code        string
	Subject     string
	Body        string
	Description string
}

var DefaultTemplates = []DefaultTemplate{
	{
		Code:        core.TemplateAccountVerification,
		Subject:     "Activate your Talenthub account",
		Body:        "Hello {fullName},\n\nAn account was created for {email}. Open the link below to set your password and activate it:\n\n{verificationLink}\n\nThe link expires in 72 hours.",
		Description: "Sent when ADMIN/HR create a user or resend verification.",
	},
	{
		Code:        "assessment_reminder",
		Subject:     "Your {cycleName} assessment is waiting",
		Body:        "Hello {fullName},\n\nYour competency assessment for {cycleName} is in the {status} phase. Please complete your part.",
		Description: "Manual reminder during an active cycle.",
	},
}

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	if err := ensureAdminUser(ctx, pool, roleIDs[auth.RoleAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}

	return ensureTemplates(ctx, pool)
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range auth.DefaultPermissions {
		_, err := pool.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	roleIDs := map[string]string{}
	for _, roleName := range auth.DefaultRoles {
		var id string
		err := pool.QueryRow(ctx, `
      INSERT INTO roles (name) VALUES ($1)
      ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    `, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	permMap := map[string]string{}
	rows, err := pool.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		permMap[key] = id
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for roleName, perms := range auth.RolePermissions {
		roleID := roleIDs[roleName]
		for _, permKey := range perms {
			permID, ok := permMap[permKey]
			if !ok {
				return errors.New("permission not found: " + permKey)
			}
			_, err := pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permID)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, roleID, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = lower($1)", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, full_name, role_id, status)
    VALUES ($1, $2, $3, $4, $5)
  `, email, hash, "Administrator", roleID, auth.UserStatusActive)
	return err
}

func ensureTemplates(ctx context.Context, pool *pgxpool.Pool) error {
	for _, t := range DefaultTemplates {
		_, err := pool.Exec(ctx, `
      INSERT INTO email_templates (code, subject, body, description)
      VALUES ($1, $2, $3, $4)
      ON CONFLICT (code) DO NOTHING
    `, t.Code, t.Subject, t.Body, t.Description)
		if err != nil {
			return err
		}
	}
	return nil
}

// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillcms/quill/internal/auth"
)

// DefaultAdminName is used when seeding the admin account.
const DefaultAdminName = "Administrator"

// Seed creates the admin user for the configured admin email if it does
// not exist yet. The admin predicate compares session identity against
// this email, so the account must exist for anyone to pass it.
func Seed(ctx context.Context, db *sql.DB, adminEmail, adminPassword string) error {
	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, adminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed", "email", adminEmail)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Name:         DefaultAdminName,
		Email:        adminEmail,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "email", user.Email)
	return nil
}

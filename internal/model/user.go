// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types persisted by the blog:
// User, Post, Comment and the Event audit record.
package model

import (
	"database/sql"
	"time"
)

// User represents a registered reader or the site admin.
type User struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	CreatedAt    time.Time    `json:"created_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty"`
}

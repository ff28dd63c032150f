// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/quillcms/quill/internal/model"
)

// Sentinel errors surfaced by write queries. Lookups report missing rows
// with sql.ErrNoRows, matching database/sql conventions.
var (
	ErrDuplicateEmail = errors.New("store: email already registered")
	ErrDuplicateTitle = errors.New("store: post title already exists")
)

// DBTX is the subset of *sql.DB and *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds all database queries.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
// on the given column, e.g. "users.email".
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// =============================================================================
// USERS
// =============================================================================

const userColumns = "id, name, email, password_hash, created_at, last_login_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

// CreateUserParams holds the fields required to create a user.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a new user and returns the stored row.
// Returns ErrDuplicateEmail if the email is already registered.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		arg.Name, arg.Email, arg.PasswordHash, arg.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail fetches a user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateUserLastLoginParams holds the fields for UpdateUserLastLogin.
type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

// UpdateUserLastLogin records the user's most recent login time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, arg.LastLoginAt, arg.ID)
	return err
}

// UpdateUserPasswordParams holds the fields for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	PasswordHash string
	ID           int64
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, arg.PasswordHash, arg.ID)
	return err
}

// CountUsers returns the total number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// DeleteUser removes a user by id. No route exposes this; it exists for
// direct store access and tests.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// =============================================================================
// POSTS
// =============================================================================

const postColumns = "id, title, subtitle, date, body, img_url, author_id, created_at, updated_at"

func scanPost(row *sql.Row) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Date, &p.Body, &p.ImgURL,
		&p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePostParams holds the fields required to create a post.
type CreatePostParams struct {
	Title     string
	Subtitle  string
	Date      string
	Body      string
	ImgURL    string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePost inserts a new post and returns the stored row.
// Returns ErrDuplicateTitle if the title is already taken.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO posts (title, subtitle, date, body, img_url, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Subtitle, arg.Date, arg.Body, arg.ImgURL, arg.AuthorID,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "posts.title") {
			return model.Post{}, ErrDuplicateTitle
		}
		return model.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, err
	}
	return q.GetPostByID(ctx, id)
}

// GetPostByID fetches a post by primary key.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	return scanPost(q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
}

// GetPostByTitle fetches a post by its unique title.
func (q *Queries) GetPostByTitle(ctx context.Context, title string) (model.Post, error) {
	return scanPost(q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE title = ?`, title))
}

// ListPostsRow is a post joined with its author's display name.
type ListPostsRow struct {
	model.Post
	AuthorName string
}

// ListPosts returns all posts, newest first, with author names.
func (q *Queries) ListPosts(ctx context.Context) ([]ListPostsRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT p.id, p.title, p.subtitle, p.date, p.body, p.img_url, p.author_id,
		        p.created_at, p.updated_at, u.name
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []ListPostsRow
	for rows.Next() {
		var r ListPostsRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Subtitle, &r.Date, &r.Body, &r.ImgURL,
			&r.AuthorID, &r.CreatedAt, &r.UpdatedAt, &r.AuthorName); err != nil {
			return nil, err
		}
		posts = append(posts, r)
	}
	return posts, rows.Err()
}

// UpdatePostParams holds the fields for UpdatePost. AuthorID is the user
// performing the edit: the reference implementation reassigns authorship
// to the editor, and that behavior is kept deliberately.
type UpdatePostParams struct {
	Title     string
	Subtitle  string
	Body      string
	ImgURL    string
	AuthorID  int64
	UpdatedAt time.Time
	ID        int64
}

// UpdatePost updates a post in place. Returns sql.ErrNoRows if the post
// does not exist and ErrDuplicateTitle on a title collision.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (model.Post, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, subtitle = ?, body = ?, img_url = ?, author_id = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.Subtitle, arg.Body, arg.ImgURL, arg.AuthorID, arg.UpdatedAt, arg.ID)
	if err != nil {
		if isUniqueViolation(err, "posts.title") {
			return model.Post{}, ErrDuplicateTitle
		}
		return model.Post{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Post{}, err
	}
	if n == 0 {
		return model.Post{}, sql.ErrNoRows
	}
	return q.GetPostByID(ctx, arg.ID)
}

// DeletePost removes a post by id. Comments cascade with the post.
// Returns sql.ErrNoRows if no post has that id.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// =============================================================================
// COMMENTS
// =============================================================================

// CreateCommentParams holds the fields required to create a comment.
type CreateCommentParams struct {
	Text      string
	AuthorID  int64
	PostID    int64
	CreatedAt time.Time
}

// CreateComment inserts a new comment and returns the stored row.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO comments (text, author_id, post_id, created_at) VALUES (?, ?, ?, ?)`,
		arg.Text, arg.AuthorID, arg.PostID, arg.CreatedAt)
	if err != nil {
		return model.Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}

	var c model.Comment
	err = q.db.QueryRowContext(ctx,
		`SELECT id, text, author_id, post_id, created_at FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.CreatedAt)
	return c, err
}

// ListCommentsForPostRow is a comment joined with its author's name and
// email (the email feeds avatar generation, it is never rendered).
type ListCommentsForPostRow struct {
	model.Comment
	AuthorName  string
	AuthorEmail string
}

// ListCommentsForPost returns a post's comments, oldest first.
func (q *Queries) ListCommentsForPost(ctx context.Context, postID int64) ([]ListCommentsForPostRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT c.id, c.text, c.author_id, c.post_id, c.created_at, u.name, u.email
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = ?
		 ORDER BY c.created_at ASC, c.id ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []ListCommentsForPostRow
	for rows.Next() {
		var r ListCommentsForPostRow
		if err := rows.Scan(&r.ID, &r.Text, &r.AuthorID, &r.PostID, &r.CreatedAt,
			&r.AuthorName, &r.AuthorEmail); err != nil {
			return nil, err
		}
		comments = append(comments, r)
	}
	return comments, rows.Err()
}

// CountCommentsForPost returns the number of comments on a post.
func (q *Queries) CountCommentsForPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&n)
	return n, err
}

// =============================================================================
// EVENTS
// =============================================================================

// CreateEventParams holds the fields required to create an event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts a new event log entry.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, user_id, ip_address, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.IPAddress, arg.Metadata, arg.CreatedAt)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}

	var e model.Event
	err = q.db.QueryRowContext(ctx,
		`SELECT id, level, category, message, user_id, ip_address, metadata, created_at
		 FROM events WHERE id = ?`, id).
		Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.IPAddress, &e.Metadata, &e.CreatedAt)
	return e, err
}

// ListRecentEvents returns the most recent events, newest first.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, ip_address, metadata, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
			&e.IPAddress, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteOldEvents removes events created before the cutoff time.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	return err
}

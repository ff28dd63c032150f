// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/quillcms/quill/internal/middleware"
	"github.com/quillcms/quill/internal/model"
	"github.com/quillcms/quill/internal/render"
	"github.com/quillcms/quill/internal/service"
	"github.com/quillcms/quill/internal/store"
)

// PostHandler handles post authoring routes. All of these sit behind the
// admin guard chain.
type PostHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *PostHandler {
	return &PostHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// postForm holds the parsed and trimmed post form fields.
type postForm struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// parsePostForm reads the post form fields from the request.
func parsePostForm(r *http.Request) postForm {
	return postForm{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Subtitle: strings.TrimSpace(r.FormValue("subtitle")),
		Body:     strings.TrimSpace(r.FormValue("body")),
		ImgURL:   strings.TrimSpace(r.FormValue("img_url")),
	}
}

// validate returns a user-facing message for the first missing field, or "".
func (f postForm) validate() string {
	switch {
	case f.Title == "":
		return "Title is required"
	case f.Subtitle == "":
		return "Subtitle is required"
	case f.Body == "":
		return "Post body is required"
	case f.ImgURL == "":
		return "Image URL is required"
	default:
		return ""
	}
}

// NewForm renders the post creation form.
// GET /new-post
func (h *PostHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderPage(w, r, "post_form", render.TemplateData{
		Title: "New Post",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Heading": "New Post",
			"Action":  RouteNewPost,
		},
	})
}

// Create handles the post creation form submission.
// POST /new-post
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteNewPost) {
		return
	}

	form := parsePostForm(r)
	if msg := form.validate(); msg != "" {
		flashError(w, r, h.renderer, RouteNewPost, msg)
		return
	}

	user := middleware.GetUser(r)
	now := time.Now()

	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:     form.Title,
		Subtitle:  form.Subtitle,
		Date:      now.Format(model.DateDisplayFormat),
		Body:      form.Body,
		ImgURL:    form.ImgURL,
		AuthorID:  user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTitle) {
			flashError(w, r, h.renderer, RouteNewPost, "A post with that title already exists")
			return
		}
		logAndInternalError(w, "failed to create post", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("post created", "post_id", post.ID, "title", post.Title, "user_id", user.ID)
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post created",
		&user.ID, middleware.GetClientIP(r), map[string]any{"post_id": post.ID, "title": post.Title})

	flashSuccess(w, r, h.renderer, RouteRoot, "Post created")
}

// EditForm renders the post edit form with existing values.
// GET /edit-post/{id}
func (h *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteRoot, "Invalid post ID")
		return
	}

	post, ok := requireEntityWithRedirect(w, r, h.renderer, RouteRoot, "Post", id,
		func(id int64) (model.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
	if !ok {
		return
	}

	h.renderer.RenderPage(w, r, "post_form", render.TemplateData{
		Title: "Edit Post",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Heading": "Edit Post",
			"Action":  fmt.Sprintf("/edit-post/%d", id),
			"Post":    post,
		},
	})
}

// Update handles the post edit form submission. Authorship is reassigned
// to the editing user.
// POST /edit-post/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteRoot, "Invalid post ID")
		return
	}
	editURL := fmt.Sprintf("/edit-post/%d", id)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	form := parsePostForm(r)
	if msg := form.validate(); msg != "" {
		flashError(w, r, h.renderer, editURL, msg)
		return
	}

	user := middleware.GetUser(r)

	post, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		Title:     form.Title,
		Subtitle:  form.Subtitle,
		Body:      form.Body,
		ImgURL:    form.ImgURL,
		AuthorID:  user.ID,
		UpdatedAt: time.Now(),
		ID:        id,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			flashError(w, r, h.renderer, RouteRoot, "Post not found")
		case errors.Is(err, store.ErrDuplicateTitle):
			flashError(w, r, h.renderer, editURL, "A post with that title already exists")
		default:
			logAndInternalError(w, "failed to update post", "error", err, "post_id", id)
		}
		return
	}

	slog.Info("post updated", "post_id", post.ID, "user_id", user.ID)
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post updated",
		&user.ID, middleware.GetClientIP(r), map[string]any{"post_id": post.ID, "title": post.Title})

	flashSuccess(w, r, h.renderer, fmt.Sprintf("/post/%d", post.ID), "Post updated")
}

// Delete removes a post and, via the cascade, its comments.
// GET /delete/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteRoot, "Invalid post ID")
		return
	}

	if err := h.queries.DeletePost(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, RouteRoot, "Post not found")
			return
		}
		logAndInternalError(w, "failed to delete post", "error", err, "post_id", id)
		return
	}

	user := middleware.GetUser(r)
	slog.Info("post deleted", "post_id", id, "user_id", user.ID)
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post deleted",
		&user.ID, middleware.GetClientIP(r), map[string]any{"post_id": id})

	flashSuccess(w, r, h.renderer, RouteRoot, "Post deleted")
}

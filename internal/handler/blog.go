// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers for the blog frontend.
package handler

import (
	"database/sql"
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

// BlogHandler serves the public blog pages: the post index, single posts,
// and comment submission.
type BlogHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *BlogHandler {
	return &BlogHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// Home renders the post index, newest first.
// GET /
func (h *BlogHandler) Home(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPosts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "index", render.TemplateData{
		Title: "Home",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Posts": posts,
		},
	})
}

// postPageData is the data bundle for the single post page.
type postPageData struct {
	Post       model.Post
	AuthorName string
	Comments   []store.ListCommentsForPostRow
}

// ShowPost renders a single post with its comments.
// GET /post/{id}
func (h *BlogHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
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

	author, err := h.queries.GetUserByID(r.Context(), post.AuthorID)
	if err != nil {
		logAndInternalError(w, "failed to load post author", "error", err, "post_id", id)
		return
	}

	comments, err := h.queries.ListCommentsForPost(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err, "post_id", id)
		return
	}

	h.renderer.RenderPage(w, r, "post", render.TemplateData{
		Title: post.Title,
		User:  middleware.GetUser(r),
		Data: postPageData{
			Post:       post,
			AuthorName: author.Name,
			Comments:   comments,
		},
	})
}

// AddComment handles comment submission on a post.
// Anonymous visitors are bounced to the login page.
// POST /post/{id}
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteRoot, "Invalid post ID")
		return
	}
	postURL := fmt.Sprintf("/post/%d", id)

	user := middleware.GetUser(r)
	if user == nil {
		flashError(w, r, h.renderer, RouteLogin, "You need to be logged in to comment.")
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, postURL) {
		return
	}

	text := strings.TrimSpace(r.FormValue("comment"))
	if text == "" {
		flashError(w, r, h.renderer, postURL, "Comment cannot be empty")
		return
	}
	if len(text) > model.MaxCommentLength {
		flashError(w, r, h.renderer, postURL,
			fmt.Sprintf("Comment cannot exceed %d characters", model.MaxCommentLength))
		return
	}

	// Confirm the post still exists before attaching a comment to it.
	if _, ok := requireEntityWithRedirect(w, r, h.renderer, RouteRoot, "Post", id,
		func(id int64) (model.Post, error) { return h.queries.GetPostByID(r.Context(), id) }); !ok {
		return
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		Text:      text,
		AuthorID:  user.ID,
		PostID:    id,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create comment", "error", err, "post_id", id, "user_id", user.ID)
		return
	}

	slog.Info("comment created", "comment_id", comment.ID, "post_id", id, "user_id", user.ID)
	_ = h.eventService.LogCommentEvent(r.Context(), model.EventLevelInfo, "Comment created",
		&user.ID, middleware.GetClientIP(r), map[string]any{"post_id": id, "comment_id": comment.ID})

	http.Redirect(w, r, postURL, http.StatusSeeOther)
}

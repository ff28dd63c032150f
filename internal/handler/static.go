// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/quillcms/quill/internal/middleware"
	"github.com/quillcms/quill/internal/render"
)

// StaticHandler serves the fixed informational pages.
type StaticHandler struct {
	renderer *render.Renderer
}

// NewStaticHandler creates a new StaticHandler.
func NewStaticHandler(renderer *render.Renderer) *StaticHandler {
	return &StaticHandler{renderer: renderer}
}

// About renders the about page.
// GET /about
func (h *StaticHandler) About(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderPage(w, r, "about", render.TemplateData{
		Title: "About Me",
		User:  middleware.GetUser(r),
	})
}

// Contact renders the contact page.
// GET /contact
func (h *StaticHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderPage(w, r, "contact", render.TemplateData{
		Title: "Contact Me",
		User:  middleware.GetUser(r),
	})
}

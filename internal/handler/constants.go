// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	// RoutePost is the single post route pattern.
	RoutePost = "/post" + RouteParamID
	// RouteNewPost is the post creation route.
	RouteNewPost = "/new-post"
	// RouteEditPost is the post edit route pattern.
	RouteEditPost = "/edit-post" + RouteParamID
	// RouteDeletePost is the post delete route pattern.
	RouteDeletePost = "/delete" + RouteParamID

	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"

	// RouteAbout is the about page route.
	RouteAbout = "/about"
	// RouteContact is the contact page route.
	RouteContact = "/contact"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
)

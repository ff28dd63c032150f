package handler

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/quillcms/quill/internal/middleware"
	"github.com/quillcms/quill/internal/render"
	"github.com/quillcms/quill/internal/store"
	"github.com/quillcms/quill/internal/testutil"
	"github.com/quillcms/quill/web"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-password-1"
)

// testApp bundles a fully wired application around a temporary database.
// CSRF and rate limiting middlewares are left out so tests can drive the
// forms directly.
type testApp struct {
	db      *sql.DB
	queries *store.Queries
	sm      *scs.SessionManager
	server  *httptest.Server
	client  *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	if err := store.Seed(context.Background(), db, testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	sm := scs.New()
	sm.Lifetime = 24 * time.Hour

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("templates fs: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		AdminEmail:     testAdminEmail,
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("initializing renderer: %v", err)
	}

	blogHandler := NewBlogHandler(db, renderer, sm)
	postHandler := NewPostHandler(db, renderer, sm)
	authHandler := NewAuthHandler(db, renderer, sm, nil)
	staticHandler := NewStaticHandler(renderer)
	healthHandler := NewHealthHandler(db)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)

	r.Get(RouteHealth, healthHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))

		r.Get(RouteRoot, blogHandler.Home)
		r.Get(RoutePost, blogHandler.ShowPost)
		r.Post(RoutePost, blogHandler.AddComment)
		r.Get(RouteAbout, staticHandler.About)
		r.Get(RouteContact, staticHandler.Contact)
		r.Get(RouteRegister, authHandler.RegisterForm)
		r.Post(RouteRegister, authHandler.Register)
		r.Get(RouteLogin, authHandler.LoginForm)
		r.Post(RouteLogin, authHandler.Login)
		r.Get(RouteLogout, authHandler.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sm))
		r.Use(middleware.LoadUser(sm, db))
		r.Use(middleware.RequireAdmin(testAdminEmail))

		r.Get(RouteNewPost, postHandler.NewForm)
		r.Post(RouteNewPost, postHandler.Create)
		r.Get(RouteEditPost, postHandler.EditForm)
		r.Post(RouteEditPost, postHandler.Update)
		r.Get(RouteDeletePost, postHandler.Delete)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &testApp{
		db:      db,
		queries: store.New(db),
		sm:      sm,
		server:  server,
		client:  &http.Client{Jar: jar},
	}
}

// get fetches a path following redirects and returns the status code,
// final URL path and body.
func (a *testApp) get(t *testing.T, path string) (int, string, string) {
	t.Helper()

	resp, err := a.client.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, resp.Request.URL.Path, string(body)
}

// postForm submits a form following redirects and returns the status code,
// final URL path and body.
func (a *testApp) postForm(t *testing.T, path string, form url.Values) (int, string, string) {
	t.Helper()

	resp, err := a.client.PostForm(a.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, resp.Request.URL.Path, string(body)
}

// register signs up a new user; the handler logs them in on success.
func (a *testApp) register(t *testing.T, name, email, password string) {
	t.Helper()

	status, finalPath, _ := a.postForm(t, RouteRegister, url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	})
	if status != http.StatusOK || finalPath != RouteRoot {
		t.Fatalf("register landed on %s with status %d; want %s with 200", finalPath, status, RouteRoot)
	}
}

// login authenticates an existing user.
func (a *testApp) login(t *testing.T, email, password string) {
	t.Helper()

	status, finalPath, body := a.postForm(t, RouteLogin, url.Values{
		"email":    {email},
		"password": {password},
	})
	if status != http.StatusOK || finalPath != RouteRoot {
		t.Fatalf("login landed on %s with status %d; want %s with 200", finalPath, status, RouteRoot)
	}
	if !strings.Contains(body, "Welcome back") {
		t.Fatalf("login did not show welcome flash; body: %.200s", body)
	}
}

// logout ends the current session.
func (a *testApp) logout(t *testing.T) {
	t.Helper()
	a.get(t, RouteLogout)
}

// createPost creates a post through the admin form and returns its ID.
func (a *testApp) createPost(t *testing.T, title string) int64 {
	t.Helper()

	status, finalPath, _ := a.postForm(t, RouteNewPost, url.Values{
		"title":    {title},
		"subtitle": {"A subtitle"},
		"body":     {"Some **markdown** body."},
		"img_url":  {"https://example.com/cover.jpg"},
	})
	if status != http.StatusOK || finalPath != RouteRoot {
		t.Fatalf("create post landed on %s with status %d", finalPath, status)
	}

	post, err := a.queries.GetPostByTitle(context.Background(), title)
	if err != nil {
		t.Fatalf("created post not found: %v", err)
	}
	return post.ID
}

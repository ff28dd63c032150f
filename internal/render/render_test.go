package render

import (
	"html/template"
	"io/fs"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quillcms/quill/internal/model"
	"github.com/quillcms/quill/web"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("templates fs: %v", err)
	}

	r, err := New(Config{
		TemplatesFS: templatesFS,
		AdminEmail:  "admin@example.com",
		IsDev:       true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNew_ParsesAllPages(t *testing.T) {
	r := testRenderer(t)

	for _, name := range []string{"index", "post", "post_form", "register", "login", "about", "contact"} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %q not parsed", name)
		}
	}
}

func TestRender_Index(t *testing.T) {
	r := testRenderer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	err := r.Render(rec, req, "index", TemplateData{
		Title: "Home",
		Data:  map[string]any{"Posts": nil},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "No posts yet.") {
		t.Error("empty index should show placeholder")
	}
	if !strings.Contains(body, "Home - Quill") {
		t.Error("page title missing")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := testRenderer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	if err := r.Render(rec, req, "nope", TemplateData{}); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRender_AdminFlag(t *testing.T) {
	r := testRenderer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	admin := &model.User{ID: 1, Name: "Admin", Email: "admin@example.com"}
	err := r.Render(rec, req, "index", TemplateData{
		User: admin,
		Data: map[string]any{"Posts": nil},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(rec.Body.String(), "/new-post") {
		t.Error("admin nav should include the new-post link")
	}
}

func TestMarkdownFunc(t *testing.T) {
	r := testRenderer(t)
	funcs := r.templateFuncs()

	md, ok := funcs["markdown"].(func(string) template.HTML)
	if !ok {
		t.Fatal("markdown func has unexpected type")
	}

	out := string(md("some **bold** text"))
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("markdown output = %q", out)
	}

	// Script tags are stripped by the sanitizer.
	out = string(md("hello <script>alert(1)</script>"))
	if strings.Contains(out, "<script>") {
		t.Errorf("sanitizer left script tag in %q", out)
	}
}

func TestGravatarFunc(t *testing.T) {
	r := testRenderer(t)
	funcs := r.templateFuncs()

	gravatar, ok := funcs["gravatar"].(func(string, int) string)
	if !ok {
		t.Fatal("gravatar func has unexpected type")
	}

	// Hash of the lowercased, trimmed address.
	got := gravatar("  Reader@Example.COM ", 50)
	want := "https://www.gravatar.com/avatar/baa0f4114eafbdd39ce828d01b849ae6?s=50&d=retro&r=g"
	if got != want {
		t.Errorf("gravatar URL = %q; want %q", got, want)
	}
}

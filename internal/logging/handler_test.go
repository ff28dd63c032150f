package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/quillcms/quill/internal/middleware"
	"github.com/quillcms/quill/internal/model"
	"github.com/quillcms/quill/internal/store"
	"github.com/quillcms/quill/internal/testutil"
)

func newTestLogger(t *testing.T) (*slog.Logger, *store.Queries) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewEventLogHandler(inner, db))
	return logger, store.New(db)
}

func TestEventLogHandler_WarnIsMirrored(t *testing.T) {
	logger, q := newTestLogger(t)

	logger.Warn("login rate limit exceeded", "ip", "1.2.3.4")

	events, err := q.ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("event count = %d; want 1", len(events))
	}

	e := events[0]
	if e.Level != model.EventLevelWarning {
		t.Errorf("level = %q; want warning", e.Level)
	}
	if e.Category != model.EventCategoryAuth {
		t.Errorf("category = %q; want auth (inferred from message)", e.Category)
	}
	if e.Message != "login rate limit exceeded" {
		t.Errorf("message = %q", e.Message)
	}
	if e.Metadata != `{"ip":"1.2.3.4"}` {
		t.Errorf("metadata = %q", e.Metadata)
	}
}

func TestEventLogHandler_RequestPathInMetadata(t *testing.T) {
	logger, q := newTestLogger(t)

	ctx := context.WithValue(context.Background(), middleware.ContextKeyRequestPath, "/post/7")
	logger.WarnContext(ctx, "template render failed", "template", "post")

	events, err := q.ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("event count = %d; want 1", len(events))
	}
	if got := events[0].Metadata; got != `{"path":"/post/7","template":"post"}` {
		t.Errorf("metadata = %q; want request path included", got)
	}
}

func TestEventLogHandler_InfoNotMirrored(t *testing.T) {
	logger, q := newTestLogger(t)

	logger.Info("user logged in", "user_id", 1)

	events, err := q.ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("event count = %d; want 0 for info-level log", len(events))
	}
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	logger, q := newTestLogger(t)

	logger.Error("something broke", "category", model.EventCategoryComment)

	events, err := q.ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("event count = %d; want 1", len(events))
	}
	if events[0].Category != model.EventCategoryComment {
		t.Errorf("category = %q; want comment", events[0].Category)
	}
	if events[0].Level != model.EventLevelError {
		t.Errorf("level = %q; want error", events[0].Level)
	}
}

func TestExtractCategory_Inference(t *testing.T) {
	h := &EventLogHandler{}

	tests := []struct {
		message string
		want    string
	}{
		{"login failed", model.EventCategoryAuth},
		{"post created", model.EventCategoryPost},
		{"comment rejected", model.EventCategoryComment},
		{"user registered", model.EventCategoryUser},
		{"disk almost full", model.EventCategorySystem},
	}

	for _, tt := range tests {
		r := slog.Record{Message: tt.message}
		if got := h.extractCategory(r); got != tt.want {
			t.Errorf("extractCategory(%q) = %q; want %q", tt.message, got, tt.want)
		}
	}
}

func TestEscapeJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `plain`},
		{`with "quotes"`, `with \"quotes\"`},
		{"line\nbreak", `line\nbreak`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeJSON(tt.in); got != tt.want {
			t.Errorf("escapeJSON(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

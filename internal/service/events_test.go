package service

import (
	"context"
	"testing"
	"time"

	"github.com/quillcms/quill/internal/model"
	"github.com/quillcms/quill/internal/store"
	"github.com/quillcms/quill/internal/testutil"
)

func TestEventService_LogEvent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	svc := NewEventService(db)
	userID := int64(42)

	err := svc.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in",
		&userID, "127.0.0.1", map[string]any{"email": "alice@example.com"})
	if err != nil {
		t.Fatalf("LogAuthEvent: %v", err)
	}

	events, err := store.New(db).ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("event count = %d; want 1", len(events))
	}

	e := events[0]
	if e.Category != model.EventCategoryAuth {
		t.Errorf("category = %q; want auth", e.Category)
	}
	if !e.UserID.Valid || e.UserID.Int64 != userID {
		t.Errorf("user_id = %+v; want %d", e.UserID, userID)
	}
	if e.IPAddress != "127.0.0.1" {
		t.Errorf("ip = %q", e.IPAddress)
	}
	if e.Metadata != `{"email":"alice@example.com"}` {
		t.Errorf("metadata = %q", e.Metadata)
	}
}

func TestEventService_NilUserAndMetadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	svc := NewEventService(db)

	err := svc.LogSystemEvent(ctx, model.EventLevelWarning, "disk almost full", nil, "", nil)
	if err != nil {
		t.Fatalf("LogSystemEvent: %v", err)
	}

	events, err := store.New(db).ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("event count = %d; want 1", len(events))
	}
	if events[0].UserID.Valid {
		t.Error("user_id should be NULL")
	}
	if events[0].Metadata != "{}" {
		t.Errorf("metadata = %q; want {}", events[0].Metadata)
	}
}

func TestEventService_DeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	q := store.New(db)
	svc := NewEventService(db)

	// One old event, one fresh.
	_, err := q.CreateEvent(ctx, store.CreateEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategorySystem,
		Message:   "ancient",
		Metadata:  "{}",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := svc.LogSystemEvent(ctx, model.EventLevelInfo, "fresh", nil, "", nil); err != nil {
		t.Fatalf("LogSystemEvent: %v", err)
	}

	if err := svc.DeleteOldEvents(ctx, 24*time.Hour); err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}

	events, err := q.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 || events[0].Message != "fresh" {
		t.Fatalf("events = %+v; want only the fresh one", events)
	}
}

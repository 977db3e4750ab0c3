package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/terraincognita07/comoestou/internal/db"
)

func newTestStore(t *testing.T, feed ChangeFeed) *GormStore {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "docstore-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return NewGormStore(database, feed)
}

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestGormStoreCreateGetUpdateDelete(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	created, err := store.Create(ctx, "users/u1/moods", map[string]any{
		"date":      "2024-01-01",
		"mood":      3,
		"createdAt": ServerTimestamp,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, ok := created.Fields["createdAt"].(string); !ok {
		t.Fatalf("expected server timestamp to be resolved, got %#v", created.Fields["createdAt"])
	}

	fetched, err := store.Get(ctx, created.Path())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Fields["mood"] != float64(3) {
		t.Fatalf("expected mood 3, got %#v", fetched.Fields["mood"])
	}

	updated, err := store.Update(ctx, created.Path(), map[string]any{"mood": 5, "notes": "ok"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Fields["mood"] != float64(5) || updated.Fields["notes"] != "ok" {
		t.Fatalf("unexpected merged fields: %#v", updated.Fields)
	}
	if updated.Fields["date"] != "2024-01-01" {
		t.Fatalf("expected untouched field to survive merge, got %#v", updated.Fields["date"])
	}

	if err := store.Delete(ctx, created.Path()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, created.Path()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, created.Path()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := store.Update(ctx, created.Path(), map[string]any{"mood": 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update of missing doc, got %v", err)
	}
}

func TestGormStoreSetCreatesThenReplaces(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	first, err := store.Set(ctx, "users/u1", map[string]any{"displayName": "Ana", "email": "ana@example.com"})
	if err != nil {
		t.Fatalf("set create: %v", err)
	}
	second, err := store.Set(ctx, "users/u1", map[string]any{"displayName": "Ana Souza"})
	if err != nil {
		t.Fatalf("set replace: %v", err)
	}
	if _, ok := second.Fields["email"]; ok {
		t.Fatalf("expected set to replace fields, got %#v", second.Fields)
	}
	if !second.CreateTime.Equal(first.CreateTime) {
		t.Fatalf("expected create time to be preserved, got %s vs %s", second.CreateTime, first.CreateTime)
	}
}

func TestGormStoreListOrdersAndFilters(t *testing.T) {
	store := newTestStore(t, nil)
	store.now = fixedClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	seed := []map[string]any{
		{"date": "2024-01-02", "mood": 2},
		{"date": "2024-01-03", "mood": 4},
		{"date": "2024-01-01", "mood": 4},
		{"date": "2024-01-03", "mood": 1},
	}
	ids := make([]string, 0, len(seed))
	for _, fields := range seed {
		doc, err := store.Create(ctx, "users/u1/moods", fields)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, doc.ID)
	}
	if _, err := store.Create(ctx, "users/u2/moods", map[string]any{"date": "2024-01-05", "mood": 5}); err != nil {
		t.Fatalf("create other user: %v", err)
	}

	docs, err := store.List(ctx, "users/u1/moods", Query{OrderBy: "date", Direction: Desc})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{ids[3], ids[1], ids[0], ids[2]}
	if len(docs) != len(want) {
		t.Fatalf("expected %d docs, got %d", len(want), len(docs))
	}
	for index, doc := range docs {
		if doc.ID != want[index] {
			t.Fatalf("unexpected order at %d: got %s want %s", index, doc.ID, want[index])
		}
	}

	filtered, err := store.List(ctx, "users/u1/moods", Query{
		OrderBy:   "date",
		Direction: Asc,
		Where:     &Filter{Field: "mood", Value: 4},
	})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 2 || filtered[0].ID != ids[2] || filtered[1].ID != ids[1] {
		t.Fatalf("unexpected filtered docs: %#v", filtered)
	}

	limited, err := store.List(ctx, "users/u1/moods", Query{OrderBy: "date", Direction: Desc, Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != ids[3] {
		t.Fatalf("unexpected limited docs: %#v", limited)
	}
}

func TestGormStoreRejectsInvalidPathsAndQueries(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	if _, err := store.Create(ctx, "users/u1", map[string]any{}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for document path, got %v", err)
	}
	if _, err := store.Get(ctx, "users"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for collection path, got %v", err)
	}
	if _, err := store.List(ctx, "users//moods", Query{}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for empty segment, got %v", err)
	}
	if _, err := store.List(ctx, "users", Query{OrderBy: "date'); drop"}); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for unsafe field, got %v", err)
	}
	if _, err := store.List(ctx, "users", Query{Direction: "sideways"}); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for direction, got %v", err)
	}
}

func TestSplitDocumentPath(t *testing.T) {
	tests := []struct {
		path       string
		collection string
		id         string
		wantErr    bool
	}{
		{path: "users/u1", collection: "users", id: "u1"},
		{path: "/users/u1/moods/m1/", collection: "users/u1/moods", id: "m1"},
		{path: "users", wantErr: true},
		{path: "", wantErr: true},
		{path: "users/ /moods/m1", wantErr: true},
	}

	for _, tt := range tests {
		collection, id, err := SplitDocumentPath(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SplitDocumentPath(%q) expected error", tt.path)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SplitDocumentPath(%q) unexpected error: %v", tt.path, err)
		}
		if collection != tt.collection || id != tt.id {
			t.Fatalf("SplitDocumentPath(%q) = %q, %q", tt.path, collection, id)
		}
	}
}

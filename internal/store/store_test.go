//go:build cgo

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/outline"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(hash string) Record {
	return Record{
		ContentHash: hash,
		Filename:    "report.pdf",
		Result: outline.Result{
			Title: "Annual Report",
			Outline: []outline.Entry{
				{Level: outline.H1, Text: "1. Introduction", Page: 1},
				{Level: outline.H2, Text: "1.1 Scope", Page: 2},
			},
		},
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, sampleRecord("abc")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Filename != "report.pdf" || got.Result.Title != "Annual Report" {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.Result.Outline) != 2 || got.Result.Outline[1].Level != outline.H2 {
		t.Errorf("unexpected outline: %+v", got.Result.Outline)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutUpsertKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleRecord("abc")
	first.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.Put(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := sampleRecord("abc")
	second.Filename = "renamed.pdf"
	second.Result.Outline = nil
	if err := s.Put(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != "renamed.pdf" {
		t.Errorf("expected filename updated, got %q", got.Filename)
	}
	if got.Result.Outline == nil || len(got.Result.Outline) != 0 {
		t.Errorf("expected empty non-nil outline, got %#v", got.Result.Outline)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("expected created_at %v preserved, got %v", first.CreatedAt, got.CreatedAt)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("expected 1 row, got %d (err %v)", n, err)
	}
}

func TestPutRejectsEmptyHash(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(context.Background(), sampleRecord("")); err == nil {
		t.Fatal("expected error for empty hash")
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, hash := range []string{"h1", "h2", "h3"} {
		rec := sampleRecord(hash)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := s.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ContentHash != "h3" || all[2].ContentHash != "h1" {
		t.Errorf("unexpected order: %+v", all)
	}
	if all[0].Entries != 2 || all[0].Title != "Annual Report" {
		t.Errorf("unexpected summary: %+v", all[0])
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 rows with limit, got %d", len(limited))
	}
}

func TestListEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, sampleRecord("abc")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

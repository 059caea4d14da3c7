package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIdempotency_CreateGetExpireDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	scope := "/api/v1/movies|127.0.0.1"

	if _, err := GetIdempotency(ctx, db, scope, "", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank key must be ErrNotFound, got %v", err)
	}
	if _, err := GetIdempotency(ctx, db, scope, "k1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key must be ErrNotFound, got %v", err)
	}

	rec, err := CreateIdempotency(ctx, db, scope, "k1", 42, 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.MovieID != 42 || !rec.ExpiresAt.After(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, scope, "k1", time.Now().UTC())
	if err != nil || got.MovieID != 42 || got.Status != 201 {
		t.Fatalf("GetIdempotency = (%+v, %v)", got, err)
	}

	if _, err := CreateIdempotency(ctx, db, scope, "k1", 43, 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Past its TTL the record is invisible.
	if _, err := GetIdempotency(ctx, db, scope, "k1", time.Now().UTC().Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired key must be ErrNotFound, got %v", err)
	}

	// Same key in another scope is independent.
	if _, err := GetIdempotency(ctx, db, "/api/v1/movies|10.0.0.1", "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other scope must not see the key, got %v", err)
	}
}

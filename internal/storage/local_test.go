package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/0xSandiem/peek-api/internal/config"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(config.StorageConfig{LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data := []byte("fake jpeg bytes")
	key, err := store.Save(ctx, data, "holiday.JPG", "image/jpeg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("key = %q, want lowercased .jpg suffix", key)
	}

	got, err := store.Fetch(ctx, key)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("fetched %q, want %q", got, data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Fetch(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("fetch after delete = %v, want ErrNotFound", err)
	}
}

func TestLocalStoreSaveAsOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := "2026/01/02/abc.png"
	if err := store.SaveAs(ctx, key, []byte("v1"), "image/png"); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.SaveAs(ctx, key, []byte("v2"), "image/png"); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Fetch(ctx, key)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("fetched %q, want v2", got)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../etc/passwd", "a/../../b", "/abs/path"} {
		if _, err := store.Fetch(ctx, key); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("key %q: err = %v, want invalid-key error", key, err)
		}
		if err := store.SaveAs(ctx, key, []byte("x"), "application/octet-stream"); err == nil {
			t.Errorf("key %q: save succeeded, want error", key)
		}
	}
}

func TestLocalStorePublicURL(t *testing.T) {
	store, err := NewLocalStore(config.StorageConfig{LocalDir: t.TempDir(), PublicBaseURL: "https://cdn.example.com/"})
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if got := store.PublicURL("2026/01/02/x.png"); got != "https://cdn.example.com/2026/01/02/x.png" {
		t.Errorf("public url = %q", got)
	}

	bare := newTestStore(t)
	if got := bare.PublicURL("x.png"); got != "" {
		t.Errorf("public url without base = %q, want empty", got)
	}
}

func TestAnnotatedKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026/01/02/abc.png", "2026/01/02/abc_annotated.png"},
		{"abc.jpg", "abc_annotated.jpg"},
		{"noext", "noext_annotated"},
	}
	for _, tt := range tests {
		if got := AnnotatedKey(tt.in); got != tt.want {
			t.Errorf("AnnotatedKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

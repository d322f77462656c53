package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/0xSandiem/peek-api/internal/models"
	"github.com/0xSandiem/peek-api/internal/repository"
	"github.com/0xSandiem/peek-api/internal/storage"
)

type stubRecordReader struct {
	record models.InsightRecord
	err    error
}

func (s *stubRecordReader) GetByID(_ context.Context, _ string) (models.InsightRecord, error) {
	return s.record, s.err
}

type stubAssetReader struct {
	asset models.ImageAsset
	err   error
}

func (s *stubAssetReader) GetByID(_ context.Context, _ string) (models.ImageAsset, error) {
	return s.asset, s.err
}

func TestGetResultPassesThrough(t *testing.T) {
	want := models.InsightRecord{ID: "job-1", Status: models.RecordStatusCompleted}
	svc := NewResultService(&stubRecordReader{record: want}, &stubAssetReader{}, newMemBlobStore(), zerolog.Nop())

	got, err := svc.GetResult(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.ID != want.ID || got.Status != want.Status {
		t.Errorf("record = %+v", got)
	}

	svc = NewResultService(&stubRecordReader{err: repository.ErrRecordNotFound}, &stubAssetReader{}, newMemBlobStore(), zerolog.Nop())
	if _, err := svc.GetResult(context.Background(), "nope"); !errors.Is(err, repository.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestGetOriginal(t *testing.T) {
	store := newMemBlobStore()
	store.objects["keys/orig.jpg"] = []byte("jpeg bytes")
	assets := &stubAssetReader{asset: models.ImageAsset{
		ID:          "job-1",
		OriginalKey: "keys/orig.jpg",
		ContentType: "image/jpeg",
	}}
	svc := NewResultService(&stubRecordReader{}, assets, store, zerolog.Nop())

	data, contentType, err := svc.GetOriginal(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if string(data) != "jpeg bytes" || contentType != "image/jpeg" {
		t.Errorf("got %q / %q", data, contentType)
	}
}

func TestGetAnnotated(t *testing.T) {
	annotatedKey := "keys/orig_annotated.png"
	store := newMemBlobStore()
	store.objects[annotatedKey] = []byte("png bytes")

	t.Run("present", func(t *testing.T) {
		assets := &stubAssetReader{asset: models.ImageAsset{
			ID:           "job-1",
			OriginalKey:  "keys/orig.webp",
			AnnotatedKey: &annotatedKey,
			ContentType:  "image/webp",
		}}
		svc := NewResultService(&stubRecordReader{}, assets, store, zerolog.Nop())

		data, contentType, err := svc.GetAnnotated(context.Background(), "job-1")
		if err != nil {
			t.Fatalf("get annotated: %v", err)
		}
		if string(data) != "png bytes" {
			t.Errorf("data = %q", data)
		}
		// A webp original carries a png-encoded annotation.
		if contentType != "image/png" {
			t.Errorf("content type = %q, want image/png", contentType)
		}
	})

	t.Run("not rendered", func(t *testing.T) {
		assets := &stubAssetReader{asset: models.ImageAsset{ID: "job-1", OriginalKey: "keys/orig.png"}}
		svc := NewResultService(&stubRecordReader{}, assets, store, zerolog.Nop())

		if _, _, err := svc.GetAnnotated(context.Background(), "job-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestMimeForKey(t *testing.T) {
	tests := []struct {
		key      string
		fallback string
		want     string
	}{
		{"a/b_annotated.png", "image/webp", "image/png"},
		{"a/b_annotated.jpg", "", "image/jpeg"},
		{"a/b_annotated", "image/gif", "image/gif"},
	}
	for _, tt := range tests {
		if got := mimeForKey(tt.key, tt.fallback); got != tt.want {
			t.Errorf("mimeForKey(%q, %q) = %q, want %q", tt.key, tt.fallback, got, tt.want)
		}
	}
}

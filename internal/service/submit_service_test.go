package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/0xSandiem/peek-api/internal/config"
	"github.com/0xSandiem/peek-api/internal/models"
	"github.com/0xSandiem/peek-api/internal/storage"
)

type stubAssetWriter struct {
	created []models.ImageAsset
	err     error
}

func (s *stubAssetWriter) Create(_ context.Context, asset models.ImageAsset) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, asset)
	return nil
}

type stubRecordWriter struct {
	created []string
	err     error
}

func (s *stubRecordWriter) Create(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, id)
	return nil
}

func (s *stubRecordWriter) GetByID(_ context.Context, id string) (models.InsightRecord, error) {
	return models.InsightRecord{ID: id, Status: models.RecordStatusProcessing}, nil
}

type stubEnqueuer struct {
	jobs []string
	err  error
}

func (s *stubEnqueuer) EnqueueAnalysis(_ context.Context, jobID string) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, jobID)
	return nil
}

type memBlobStore struct {
	objects map[string][]byte
	saveErr error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: map[string][]byte{}}
}

func (m *memBlobStore) Save(_ context.Context, data []byte, suggestedName, _ string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	key := "keys/" + suggestedName
	m.objects[key] = data
	return key, nil
}

func (m *memBlobStore) SaveAs(_ context.Context, key string, data []byte, _ string) error {
	m.objects[key] = data
	return nil
}

func (m *memBlobStore) Fetch(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memBlobStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memBlobStore) PublicURL(string) string { return "" }

func validPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 7))
	for y := 0; y < 7; y++ {
		for x := 0; x < 10; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 20, G: 40, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

type submitFixture struct {
	svc     *SubmitService
	assets  *stubAssetWriter
	records *stubRecordWriter
	queue   *stubEnqueuer
	store   *memBlobStore
}

func newSubmitFixture() *submitFixture {
	f := &submitFixture{
		assets:  &stubAssetWriter{},
		records: &stubRecordWriter{},
		queue:   &stubEnqueuer{},
		store:   newMemBlobStore(),
	}
	cfg := config.PipelineConfig{MaxUploadBytes: 1 << 20}
	f.svc = NewSubmitService(f.assets, f.records, f.store, f.queue, cfg, zerolog.Nop())
	return f
}

func TestSubmitHappyPath(t *testing.T) {
	f := newSubmitFixture()
	data := validPNG(t)

	record, err := f.svc.Submit(context.Background(), data, "photo.png", "image/png")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.Status != models.RecordStatusProcessing {
		t.Errorf("status = %s, want %s", record.Status, models.RecordStatusProcessing)
	}
	if record.ID == "" {
		t.Fatal("empty record id")
	}

	if len(f.assets.created) != 1 {
		t.Fatalf("assets created = %d, want 1", len(f.assets.created))
	}
	asset := f.assets.created[0]
	if asset.ID != record.ID {
		t.Errorf("asset id %q != record id %q", asset.ID, record.ID)
	}
	if asset.Format != "png" || asset.ContentType != "image/png" {
		t.Errorf("format/type = %s/%s", asset.Format, asset.ContentType)
	}
	if asset.Width != 10 || asset.Height != 7 {
		t.Errorf("dimensions = %dx%d, want 10x7", asset.Width, asset.Height)
	}
	if asset.SizeBytes != int64(len(data)) {
		t.Errorf("size = %d, want %d", asset.SizeBytes, len(data))
	}
	if len(asset.Checksum) != 32 {
		t.Errorf("checksum length = %d, want 32", len(asset.Checksum))
	}

	if len(f.records.created) != 1 || f.records.created[0] != record.ID {
		t.Errorf("records created = %v", f.records.created)
	}
	if len(f.queue.jobs) != 1 || f.queue.jobs[0] != record.ID {
		t.Errorf("enqueued jobs = %v", f.queue.jobs)
	}
	if _, err := f.store.Fetch(context.Background(), asset.OriginalKey); err != nil {
		t.Errorf("original not stored under %q: %v", asset.OriginalKey, err)
	}
}

func TestSubmitValidation(t *testing.T) {
	valid := validPNG(t)

	tests := []struct {
		name         string
		data         []byte
		filename     string
		declaredType string
		wantMsg      string
	}{
		{
			name:     "empty file",
			data:     nil,
			filename: "x.png",
			wantMsg:  "empty file",
		},
		{
			name:     "oversized file",
			data:     make([]byte, (1<<20)+1),
			filename: "x.png",
			wantMsg:  "maximum size",
		},
		{
			name:     "extension not allowed",
			data:     valid,
			filename: "script.svg",
			wantMsg:  "not allowed",
		},
		{
			name:     "no extension",
			data:     valid,
			filename: "noext",
			wantMsg:  "not allowed",
		},
		{
			name:     "unrecognized bytes",
			data:     []byte("<html>not an image</html>"),
			filename: "page.png",
			wantMsg:  "unrecognized image format",
		},
		{
			name:         "declared type mismatch",
			data:         valid,
			filename:     "photo.png",
			declaredType: "image/jpeg",
			wantMsg:      "content type mismatch",
		},
		{
			name:     "corrupt header",
			data:     append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("garbage")...),
			filename: "photo.png",
			wantMsg:  "corrupt image header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmitFixture()
			_, err := f.svc.Submit(context.Background(), tt.data, tt.filename, tt.declaredType)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if !strings.Contains(verr.Msg, tt.wantMsg) {
				t.Errorf("message %q does not mention %q", verr.Msg, tt.wantMsg)
			}
			if len(f.assets.created) != 0 || len(f.records.created) != 0 || len(f.queue.jobs) != 0 {
				t.Error("rejected upload touched downstream state")
			}
			if len(f.store.objects) != 0 {
				t.Error("rejected upload was stored")
			}
		})
	}
}

func TestSubmitEnqueueFailureStillReturnsRecord(t *testing.T) {
	f := newSubmitFixture()
	f.queue.err = errors.New("redis down")

	record, err := f.svc.Submit(context.Background(), validPNG(t), "photo.png", "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.Status != models.RecordStatusProcessing {
		t.Errorf("status = %s, want %s", record.Status, models.RecordStatusProcessing)
	}
	if len(f.records.created) != 1 {
		t.Errorf("records created = %v", f.records.created)
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	f := newSubmitFixture()
	f.store.saveErr = errors.New("disk full")

	_, err := f.svc.Submit(context.Background(), validPNG(t), "photo.png", "")
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Errorf("store failure surfaced as validation error: %v", err)
	}
	if len(f.records.created) != 0 || len(f.queue.jobs) != 0 {
		t.Error("failed store still created downstream state")
	}
}

package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/0xSandiem/peek-api/internal/config"
	"github.com/0xSandiem/peek-api/internal/ids"
	_ "github.com/0xSandiem/peek-api/internal/imaging" // registers image decoders
	"github.com/0xSandiem/peek-api/internal/media/sniffer"
	"github.com/0xSandiem/peek-api/internal/models"
	"github.com/0xSandiem/peek-api/internal/storage"
)

// ValidationError rejects a bad upload synchronously; no job or record is
// created for it.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErr(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

var allowedExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "webp": {},
}

// AssetWriter and RecordWriter are the slices of the repositories the
// submit flow needs; Enqueuer is the queue producer.
type AssetWriter interface {
	Create(ctx context.Context, asset models.ImageAsset) error
}

type RecordWriter interface {
	Create(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (models.InsightRecord, error)
}

type Enqueuer interface {
	EnqueueAnalysis(ctx context.Context, jobID string) error
}

// SubmitService validates an upload, persists the original, creates the
// processing record and enqueues the job.
type SubmitService struct {
	assets   AssetWriter
	records  RecordWriter
	store    storage.Store
	producer Enqueuer
	cfg      config.PipelineConfig
	log      zerolog.Logger
}

func NewSubmitService(
	assets AssetWriter,
	records RecordWriter,
	store storage.Store,
	producer Enqueuer,
	cfg config.PipelineConfig,
	log zerolog.Logger,
) *SubmitService {
	return &SubmitService{
		assets:   assets,
		records:  records,
		store:    store,
		producer: producer,
		cfg:      cfg,
		log:      log,
	}
}

// Submit returns the freshly created record (status processing) or a
// ValidationError. The original is durably stored before the job is
// enqueued.
func (s *SubmitService) Submit(ctx context.Context, data []byte, filename, declaredType string) (models.InsightRecord, error) {
	result, width, height, err := s.validate(data, filename, declaredType)
	if err != nil {
		return models.InsightRecord{}, err
	}

	key, err := s.store.Save(ctx, data, filename, result.MIME)
	if err != nil {
		return models.InsightRecord{}, fmt.Errorf("store original: %w", err)
	}

	checksum := sha256.Sum256(data)
	jobID := ids.New()

	asset := models.ImageAsset{
		ID:          jobID,
		OriginalKey: key,
		Format:      string(result.Type),
		ContentType: result.MIME,
		SizeBytes:   int64(len(data)),
		Checksum:    checksum[:],
		Width:       width,
		Height:      height,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return models.InsightRecord{}, fmt.Errorf("save asset: %w", err)
	}
	if err := s.records.Create(ctx, jobID); err != nil {
		return models.InsightRecord{}, fmt.Errorf("create record: %w", err)
	}

	if err := s.producer.EnqueueAnalysis(ctx, jobID); err != nil {
		// The record stays in processing; the scheduler's sweep will time it
		// out if the queue never recovers.
		s.log.Warn().Err(err).Str("job_id", jobID).Msg("enqueue failed")
	}

	record, err := s.records.GetByID(ctx, jobID)
	if err != nil {
		return models.InsightRecord{}, err
	}
	return record, nil
}

func (s *SubmitService) validate(data []byte, filename, declaredType string) (sniffer.Result, int, int, error) {
	if len(data) == 0 {
		return sniffer.Result{}, 0, 0, validationErr("empty file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return sniffer.Result{}, 0, 0, validationErr("file exceeds maximum size of %d bytes", s.cfg.MaxUploadBytes)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return sniffer.Result{}, 0, 0, validationErr("file extension %q not allowed", ext)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	result, err := sniffer.DetectHead(head)
	if err != nil {
		return sniffer.Result{}, 0, 0, validationErr("unrecognized image format")
	}
	if declaredType != "" && declaredType != result.MIME {
		return sniffer.Result{}, 0, 0, validationErr("content type mismatch: declared %s, actual %s", declaredType, result.MIME)
	}

	// Cheap structural check; full decode stays on the worker side of the
	// queue boundary.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return sniffer.Result{}, 0, 0, validationErr("corrupt image header")
	}

	return result, cfg.Width, cfg.Height, nil
}

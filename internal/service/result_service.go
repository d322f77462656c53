package service

import (
	"context"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
	"github.com/0xSandiem/peek-api/internal/storage"
)

// RecordReader and AssetReader are the repository slices the read paths use.
type RecordReader interface {
	GetByID(ctx context.Context, id string) (models.InsightRecord, error)
}

type AssetReader interface {
	GetByID(ctx context.Context, id string) (models.ImageAsset, error)
}

// ResultService serves polled records and stored artifacts.
type ResultService struct {
	records RecordReader
	assets  AssetReader
	store   storage.Store
	log     zerolog.Logger
}

func NewResultService(
	records RecordReader,
	assets AssetReader,
	store storage.Store,
	log zerolog.Logger,
) *ResultService {
	return &ResultService{
		records: records,
		assets:  assets,
		store:   store,
		log:     log,
	}
}

// GetResult returns the record for a job, repository.ErrRecordNotFound when
// the id is unknown. Completed records are immutable, so repeated polls see
// identical payloads.
func (s *ResultService) GetResult(ctx context.Context, jobID string) (models.InsightRecord, error) {
	return s.records.GetByID(ctx, jobID)
}

// GetOriginal returns the original bytes and content type.
func (s *ResultService) GetOriginal(ctx context.Context, jobID string) ([]byte, string, error) {
	asset, err := s.assets.GetByID(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.store.Fetch(ctx, asset.OriginalKey)
	if err != nil {
		return nil, "", err
	}
	return data, asset.ContentType, nil
}

// GetAnnotated returns the annotated copy; storage.ErrNotFound while the
// renderer has not produced one (or rendering was skipped for a face-less
// image).
func (s *ResultService) GetAnnotated(ctx context.Context, jobID string) ([]byte, string, error) {
	asset, err := s.assets.GetByID(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	if asset.AnnotatedKey == nil {
		return nil, "", storage.ErrNotFound
	}
	data, err := s.store.Fetch(ctx, *asset.AnnotatedKey)
	if err != nil {
		return nil, "", err
	}
	return data, mimeForKey(*asset.AnnotatedKey, asset.ContentType), nil
}

// mimeForKey derives the annotated copy's content type from its key
// extension; a WEBP original gets a PNG-encoded annotation.
func mimeForKey(key, fallback string) string {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	if ext == "jpg" {
		ext = "jpeg"
	}
	mime := imaging.MIMEForFormat(ext)
	if mime == "application/octet-stream" {
		return fallback
	}
	return mime
}

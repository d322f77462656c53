package models

import "time"

// ImageAsset is one uploaded image. The row is immutable after creation except
// for AnnotatedKey, which is set at most once when the renderer produces the
// derived artifact.
type ImageAsset struct {
	ID           string
	OriginalKey  string
	AnnotatedKey *string
	Format       string
	ContentType  string
	SizeBytes    int64
	Checksum     []byte
	Width        int
	Height       int
	CreatedAt    time.Time
}

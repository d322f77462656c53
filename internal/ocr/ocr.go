package ocr

import "context"

// Engine recognises machine-printed text in encoded image bytes. The
// production engine shells into Tesseract; tests substitute stubs.
type Engine interface {
	Recognize(ctx context.Context, imageBytes []byte) (string, error)
}

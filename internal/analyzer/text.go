package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
	"github.com/0xSandiem/peek-api/internal/ocr"
)

type TextPartial struct {
	Text string
}

func (p TextPartial) Apply(in *models.Insights) {
	trimmed := strings.TrimSpace(p.Text)
	in.ExtractedText = trimmed
	in.WordCount = len(strings.Fields(trimmed))
	in.TextFound = in.WordCount > 0
}

// TextExtractor runs an OCR pass over a grayscale rendition of the image.
// Grayscaling before recognition is the one preprocessing step that reliably
// helps machine-printed text without hurting photographs.
type TextExtractor struct {
	engine ocr.Engine
}

func NewTextExtractor(engine ocr.Engine) *TextExtractor {
	return &TextExtractor{engine: engine}
}

func (a *TextExtractor) Name() string { return NameText }

func (a *TextExtractor) Analyze(ctx context.Context, frame *imaging.Frame) (Partial, error) {
	if a.engine == nil {
		return nil, fmt.Errorf("ocr engine unavailable")
	}

	gray := imaging.Grayscale(frame.Image)
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode for ocr: %w", err)
	}

	text, err := a.engine.Recognize(ctx, buf.Bytes())
	if err != nil {
		return nil, err
	}

	return TextPartial{Text: text}, nil
}

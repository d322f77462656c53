package annotate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path"
	"strings"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
	"github.com/0xSandiem/peek-api/internal/storage"
)

const outlineThickness = 2

var outlineColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// Renderer draws face bounding boxes onto a copy of the original image and
// persists the result as a derived artifact next to the original.
type Renderer struct {
	store storage.Store
}

func NewRenderer(store storage.Store) *Renderer {
	return &Renderer{store: store}
}

// Render produces and stores the annotated copy, returning its storage key.
// The shared frame is never mutated; drawing happens on a fresh RGBA buffer.
func (r *Renderer) Render(ctx context.Context, frame *imaging.Frame, faces []models.FaceBox, originalKey string) (string, error) {
	bounds := frame.Image.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, frame.Image, bounds.Min, draw.Src)

	for _, face := range faces {
		drawOutline(canvas, face)
	}

	data, usedFormat, err := imaging.Encode(canvas, frame.Format)
	if err != nil {
		return "", fmt.Errorf("encode annotated: %w", err)
	}

	key := storage.AnnotatedKey(originalKey)
	if usedFormat != frame.Format {
		key = strings.TrimSuffix(key, path.Ext(key)) + "." + usedFormat
	}

	if err := r.store.SaveAs(ctx, key, data, imaging.MIMEForFormat(usedFormat)); err != nil {
		return "", fmt.Errorf("store annotated: %w", err)
	}
	return key, nil
}

// drawOutline paints a rectangle outline clipped to the canvas, so detector
// boxes that touch the image edge never panic the renderer.
func drawOutline(canvas *image.RGBA, face models.FaceBox) {
	x0, y0 := face.X, face.Y
	x1, y1 := face.X+face.Width, face.Y+face.Height

	for t := 0; t < outlineThickness; t++ {
		hline(canvas, x0, x1, y0+t)
		hline(canvas, x0, x1, y1-1-t)
		vline(canvas, x0+t, y0, y1)
		vline(canvas, x1-1-t, y0, y1)
	}
}

func hline(canvas *image.RGBA, x0, x1, y int) {
	for x := x0; x < x1; x++ {
		if image.Pt(x, y).In(canvas.Bounds()) {
			canvas.SetRGBA(x, y, outlineColor)
		}
	}
}

func vline(canvas *image.RGBA, x, y0, y1 int) {
	for y := y0; y < y1; y++ {
		if image.Pt(x, y).In(canvas.Bounds()) {
			canvas.SetRGBA(x, y, outlineColor)
		}
	}
}

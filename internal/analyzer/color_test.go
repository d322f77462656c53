package analyzer

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/0xSandiem/peek-api/internal/imaging"
)

func frameFromImage(img image.Image) *imaging.Frame {
	bounds := img.Bounds()
	return &imaging.Frame{Image: img, Format: "png", Width: bounds.Dx(), Height: bounds.Dy()}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func TestColorAnalyzerRanksByPopulation(t *testing.T) {
	// 12x1: six red, four green, two blue pixels.
	img := image.NewRGBA(image.Rect(0, 0, 12, 1))
	fillRect(img, image.Rect(0, 0, 6, 1), color.RGBA{R: 255, A: 255})
	fillRect(img, image.Rect(6, 0, 10, 1), color.RGBA{G: 255, A: 255})
	fillRect(img, image.Rect(10, 0, 12, 1), color.RGBA{B: 255, A: 255})

	a := NewColorAnalyzer(3)
	partial, err := a.Analyze(context.Background(), frameFromImage(img))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	cp, ok := partial.(ColorPartial)
	if !ok {
		t.Fatalf("partial type = %T", partial)
	}

	want := []string{"#ff0000", "#00ff00", "#0000ff"}
	if len(cp.Colors) != len(want) {
		t.Fatalf("colors = %v, want %v", cp.Colors, want)
	}
	for i := range want {
		if cp.Colors[i] != want[i] {
			t.Errorf("colors[%d] = %s, want %s", i, cp.Colors[i], want[i])
		}
	}
}

func TestColorAnalyzerTieBreaksByScanOrder(t *testing.T) {
	// Three equal-size blocks; population ties resolve in scan order.
	img := image.NewRGBA(image.Rect(0, 0, 12, 1))
	fillRect(img, image.Rect(0, 0, 4, 1), color.RGBA{B: 255, A: 255})
	fillRect(img, image.Rect(4, 0, 8, 1), color.RGBA{R: 255, A: 255})
	fillRect(img, image.Rect(8, 0, 12, 1), color.RGBA{G: 255, A: 255})

	partial, err := NewColorAnalyzer(3).Analyze(context.Background(), frameFromImage(img))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	cp := partial.(ColorPartial)

	want := []string{"#0000ff", "#ff0000", "#00ff00"}
	for i := range want {
		if cp.Colors[i] != want[i] {
			t.Errorf("colors[%d] = %s, want %s", i, cp.Colors[i], want[i])
		}
	}
}

func TestColorAnalyzerUniformImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	fillRect(img, img.Bounds(), color.RGBA{R: 128, G: 64, B: 32, A: 255})

	a := NewColorAnalyzer(5)
	partial, err := a.Analyze(context.Background(), frameFromImage(img))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	cp := partial.(ColorPartial)

	if len(cp.Colors) != 5 {
		t.Fatalf("got %d colors, want 5", len(cp.Colors))
	}
	for i, c := range cp.Colors {
		if c != "#804020" {
			t.Errorf("colors[%d] = %s, want #804020", i, c)
		}
	}
}

func TestColorAnalyzerBrightness(t *testing.T) {
	tests := []struct {
		name string
		fill color.RGBA
		want int
	}{
		{"white", color.RGBA{R: 255, G: 255, B: 255, A: 255}, 255},
		{"black", color.RGBA{A: 255}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 4, 4))
			fillRect(img, img.Bounds(), tt.fill)

			partial, err := NewColorAnalyzer(5).Analyze(context.Background(), frameFromImage(img))
			if err != nil {
				t.Fatalf("analyze: %v", err)
			}
			if got := partial.(ColorPartial).Brightness; got != tt.want {
				t.Errorf("brightness = %d, want %d", got, tt.want)
			}
		})
	}
}

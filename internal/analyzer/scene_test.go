package analyzer

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/0xSandiem/peek-api/internal/models"
)

func TestSceneDetector(t *testing.T) {
	tests := []struct {
		name      string
		fill      color.RGBA
		wantScene models.SceneType
		wantConf  float64
	}{
		{
			name:      "bright sky blue reads outdoor",
			fill:      color.RGBA{R: 100, G: 150, B: 235, A: 255},
			wantScene: models.SceneOutdoor,
			wantConf:  1.0,
		},
		{
			name:      "foliage green reads outdoor",
			fill:      color.RGBA{R: 40, G: 180, B: 40, A: 255},
			wantScene: models.SceneOutdoor,
			wantConf:  1.0,
		},
		{
			name:      "dim palette reads indoor",
			fill:      color.RGBA{R: 30, G: 30, B: 30, A: 255},
			wantScene: models.SceneIndoor,
			wantConf:  0.7,
		},
		{
			name:      "muted bright palette reads indoor",
			fill:      color.RGBA{R: 200, G: 200, B: 200, A: 255},
			wantScene: models.SceneIndoor,
			wantConf:  0.6,
		},
		{
			name:      "saturated warm palette stays unknown",
			fill:      color.RGBA{R: 230, G: 40, B: 40, A: 255},
			wantScene: models.SceneUnknown,
			wantConf:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 10, 10))
			fillRect(img, img.Bounds(), tt.fill)

			partial, err := NewSceneDetector().Analyze(context.Background(), frameFromImage(img))
			if err != nil {
				t.Fatalf("analyze: %v", err)
			}
			sp := partial.(ScenePartial)
			if sp.Scene != tt.wantScene {
				t.Errorf("scene = %s, want %s", sp.Scene, tt.wantScene)
			}
			if sp.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", sp.Confidence, tt.wantConf)
			}
		})
	}
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		hue     float64
		sat     float64
		val     float64
	}{
		{"pure red", 255, 0, 0, 0, 255, 255},
		{"pure green", 0, 255, 0, 120, 255, 255},
		{"pure blue", 0, 0, 255, 240, 255, 255},
		{"gray", 128, 128, 128, 0, 0, 128},
		{"black", 0, 0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hue, sat, val := rgbToHSV(tt.r, tt.g, tt.b)
			if hue != tt.hue || sat != tt.sat || val != tt.val {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", hue, sat, val, tt.hue, tt.sat, tt.val)
			}
		})
	}
}

package analyzer

import (
	"context"
	"fmt"
	"math"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
)

// Heuristic thresholds for the scene classifier. Hue is in degrees, sat and
// value on the 0-255 scale. An image that meets none of them is an `unknown`
// scene at half confidence.
const (
	skyHueMin        = 180.0
	skyHueMax        = 260.0
	foliageHueMin    = 70.0
	foliageHueMax    = 170.0
	chromaMin        = 50.0
	valueMin         = 50.0
	dominantRatio    = 0.3
	brightValueMean  = 100.0
	dimValueMean     = 80.0
	mutedSatMean     = 50.0
	baseConfidence   = 0.6
	ratioWeight      = 0.4
	dimConfidence    = 0.7
	mutedConfidence  = 0.6
	neutralConfidence = 0.5
)

type ScenePartial struct {
	Scene      models.SceneType
	Confidence float64
}

func (p ScenePartial) Apply(in *models.Insights) {
	in.SceneType = p.Scene
	in.SceneConfidence = p.Confidence
}

// SceneDetector classifies indoor vs. outdoor from hue/saturation/value
// statistics: a large bright sky-blue region or a large foliage region reads
// as outdoor, dim or muted palettes as indoor, everything else as unknown.
type SceneDetector struct{}

func NewSceneDetector() *SceneDetector { return &SceneDetector{} }

func (a *SceneDetector) Name() string { return NameScene }

func (a *SceneDetector) Analyze(ctx context.Context, frame *imaging.Frame) (Partial, error) {
	bounds := frame.Image.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return nil, fmt.Errorf("empty frame")
	}

	stride := 1
	for total/(stride*stride) > maxColorSamples {
		stride++
	}

	var satSum, valSum float64
	var skyCount, foliageCount, sampleCount int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := frame.Image.At(x, y).RGBA()
			hue, sat, val := rgbToHSV(float64(r>>8), float64(g>>8), float64(b>>8))
			satSum += sat
			valSum += val
			sampleCount++

			if sat < chromaMin || val < valueMin {
				continue
			}
			if hue >= skyHueMin && hue <= skyHueMax {
				skyCount++
			} else if hue >= foliageHueMin && hue <= foliageHueMax {
				foliageCount++
			}
		}
	}

	avgSat := satSum / float64(sampleCount)
	avgVal := valSum / float64(sampleCount)
	skyRatio := float64(skyCount) / float64(sampleCount)
	foliageRatio := float64(foliageCount) / float64(sampleCount)

	scene := models.SceneUnknown
	confidence := neutralConfidence

	switch {
	case skyRatio > dominantRatio && avgVal > brightValueMean:
		scene = models.SceneOutdoor
		confidence = math.Min(baseConfidence+skyRatio*ratioWeight, 1.0)
	case foliageRatio > dominantRatio:
		scene = models.SceneOutdoor
		confidence = math.Min(baseConfidence+foliageRatio*ratioWeight, 1.0)
	case avgVal < dimValueMean:
		scene = models.SceneIndoor
		confidence = dimConfidence
	case avgSat < mutedSatMean:
		scene = models.SceneIndoor
		confidence = mutedConfidence
	}

	return ScenePartial{Scene: scene, Confidence: round2(confidence)}, nil
}

// rgbToHSV returns hue in degrees [0,360) and saturation/value on the 0-255
// scale used by the thresholds above.
func rgbToHSV(r, g, b float64) (float64, float64, float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	var hue float64
	switch {
	case delta == 0:
		hue = 0
	case max == r:
		hue = 60 * math.Mod((g-b)/delta, 6)
	case max == g:
		hue = 60 * ((b-r)/delta + 2)
	default:
		hue = 60 * ((r-g)/delta + 4)
	}
	if hue < 0 {
		hue += 360
	}

	var sat float64
	if max > 0 {
		sat = delta / max * 255
	}

	return hue, sat, max
}

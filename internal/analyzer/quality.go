package analyzer

import (
	"context"
	"math"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
)

// Blur thresholds apply to the raw variance of the Laplacian response: below
// blurHighThreshold the image reads as heavily blurred, above
// blurLowThreshold as sharp. The score weights combine normalised sharpness
// and RMS contrast into the 0-100 quality score.
const (
	blurHighThreshold = 100.0
	blurLowThreshold  = 500.0
	sharpnessDivisor  = 10.0
	sharpnessCeiling  = 100.0
	contrastCeiling   = 100.0
	sharpnessWeight   = 0.6
	contrastWeight    = 0.4
)

type QualityPartial struct {
	Sharpness float64
	Blur      models.BlurLevel
	Contrast  float64
	Quality   float64
}

func (p QualityPartial) Apply(in *models.Insights) {
	in.SharpnessScore = p.Sharpness
	in.BlurLevel = p.Blur
	in.ContrastScore = p.Contrast
	in.QualityScore = p.Quality
}

// QualityAnalyzer measures sharpness as the variance of a 4-neighbour
// Laplacian over the grayscale image and contrast as RMS deviation from the
// mean intensity.
type QualityAnalyzer struct{}

func NewQualityAnalyzer() *QualityAnalyzer { return &QualityAnalyzer{} }

func (a *QualityAnalyzer) Name() string { return NameQuality }

func (a *QualityAnalyzer) Analyze(ctx context.Context, frame *imaging.Frame) (Partial, error) {
	gray := imaging.Grayscale(frame.Image)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	laplacianVar := laplacianVariance(gray.Pix, w, h, gray.Stride)
	rmsContrast := rmsContrast(gray.Pix, w, h, gray.Stride)

	sharpness := math.Min(laplacianVar/sharpnessDivisor, sharpnessCeiling)
	contrast := math.Min(rmsContrast, contrastCeiling)
	quality := math.Min(sharpness*sharpnessWeight+contrast*contrastWeight, 100)

	blur := models.BlurLow
	switch {
	case laplacianVar < blurHighThreshold:
		blur = models.BlurHigh
	case laplacianVar < blurLowThreshold:
		blur = models.BlurMedium
	}

	return QualityPartial{
		Sharpness: round2(sharpness),
		Blur:      blur,
		Contrast:  round2(contrast),
		Quality:   round2(quality),
	}, nil
}

// laplacianVariance convolves the interior pixels with the 4-neighbour
// Laplacian kernel and returns the variance of the responses. A one-pixel
// image has no interior and scores zero.
func laplacianVariance(pix []uint8, w, h, stride int) float64 {
	if w < 3 || h < 3 {
		return 0
	}

	n := (w - 2) * (h - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := float64(pix[y*stride+x])
			lap := float64(pix[(y-1)*stride+x]) +
				float64(pix[(y+1)*stride+x]) +
				float64(pix[y*stride+x-1]) +
				float64(pix[y*stride+x+1]) -
				4*center
			responses = append(responses, lap)
			sum += lap
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	return variance / float64(n)
}

func rmsContrast(pix []uint8, w, h, stride int) float64 {
	n := w * h
	if n == 0 {
		return 0
	}

	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += float64(pix[y*stride+x])
		}
	}
	mean := sum / float64(n)

	var sq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := float64(pix[y*stride+x]) - mean
			sq += d * d
		}
	}
	return math.Sqrt(sq / float64(n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

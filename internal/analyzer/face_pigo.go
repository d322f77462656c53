package analyzer

import (
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
)

// Fixed cascade parameters; detections below pigoQualityThreshold are noise.
const (
	pigoMinFaceSize      = 30
	pigoShiftFactor      = 0.1
	pigoScaleFactor      = 1.1
	pigoClusterOverlap   = 0.2
	pigoQualityThreshold = 5.0
)

// PigoFinder runs the pigo pixel-intensity-comparison cascade over the
// grayscale image. The classifier is read-only after Unpack, so one finder is
// shared by all workers.
type PigoFinder struct {
	classifier *pigo.Pigo
}

// NewPigoFinder loads and unpacks a binary cascade model from disk.
func NewPigoFinder(cascadePath string) (*PigoFinder, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	return &PigoFinder{classifier: classifier}, nil
}

func (f *PigoFinder) Find(frame *imaging.Frame) []models.FaceBox {
	pixels := pigo.RgbToGrayscale(frame.Image)
	rows, cols := frame.Height, frame.Width

	maxSize := rows
	if cols < rows {
		maxSize = cols
	}

	params := pigo.CascadeParams{
		MinSize:     pigoMinFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := f.classifier.RunCascade(params, 0.0)
	dets = f.classifier.ClusterDetections(dets, pigoClusterOverlap)

	boxes := make([]models.FaceBox, 0, len(dets))
	for _, d := range dets {
		if d.Q < pigoQualityThreshold {
			continue
		}
		half := d.Scale / 2
		boxes = append(boxes, models.FaceBox{
			X:      d.Col - half,
			Y:      d.Row - half,
			Width:  d.Scale,
			Height: d.Scale,
		})
	}
	return boxes
}

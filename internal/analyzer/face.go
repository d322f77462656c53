package analyzer

import (
	"context"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
)

// FaceFinder is the pretrained detector behind the face analyzer. The
// production implementation is the pigo cascade; tests substitute stubs.
type FaceFinder interface {
	Find(frame *imaging.Frame) []models.FaceBox
}

type FacePartial struct {
	Boxes []models.FaceBox
}

func (p FacePartial) Apply(in *models.Insights) {
	in.FacesDetected = len(p.Boxes)
	in.FaceLocations = p.Boxes
}

// FaceDetector wraps a FaceFinder. A nil finder (cascade model unavailable)
// degrades to zero detections rather than failing the analyzer.
type FaceDetector struct {
	finder FaceFinder
}

func NewFaceDetector(finder FaceFinder) *FaceDetector {
	return &FaceDetector{finder: finder}
}

func (a *FaceDetector) Name() string { return NameFace }

func (a *FaceDetector) Analyze(ctx context.Context, frame *imaging.Frame) (Partial, error) {
	if a.finder == nil {
		return FacePartial{Boxes: []models.FaceBox{}}, nil
	}
	boxes := a.finder.Find(frame)
	if boxes == nil {
		boxes = []models.FaceBox{}
	}
	return FacePartial{Boxes: boxes}, nil
}

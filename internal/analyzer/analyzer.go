package analyzer

import (
	"context"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
)

// Analyzer names, used for failure flags and logging.
const (
	NameColor   = "color"
	NameQuality = "quality"
	NameFace    = "face"
	NameText    = "text"
	NameScene   = "scene"
)

// Partial is the output of a single analyzer prior to aggregation. Applying
// it copies its fields onto the Insights aggregate.
type Partial interface {
	Apply(in *models.Insights)
}

// Analyzer computes one category of insight from a decoded frame. Analyzers
// are stateless: invocations for different images, or the same image, may run
// concurrently as long as nobody mutates the shared frame.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, frame *imaging.Frame) (Partial, error)
}

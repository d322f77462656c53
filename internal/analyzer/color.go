package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
)

// maxColorSamples bounds the number of pixels fed into clustering so large
// images stay cheap; sampling is a fixed-stride grid, so it is deterministic.
const maxColorSamples = 4096

type ColorPartial struct {
	Colors     []string
	Brightness int
}

func (p ColorPartial) Apply(in *models.Insights) {
	in.DominantColors = p.Colors
	in.Brightness = p.Brightness
}

// ColorAnalyzer clusters pixel colors into K groups and reports the cluster
// centroids ordered by descending population, plus the mean luma brightness.
type ColorAnalyzer struct {
	clusterCount int
}

func NewColorAnalyzer(clusterCount int) *ColorAnalyzer {
	if clusterCount <= 0 {
		clusterCount = 5
	}
	return &ColorAnalyzer{clusterCount: clusterCount}
}

func (a *ColorAnalyzer) Name() string { return NameColor }

func (a *ColorAnalyzer) Analyze(ctx context.Context, frame *imaging.Frame) (Partial, error) {
	samples, brightness := samplePixels(frame)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no pixels to sample")
	}

	colors, err := a.dominantColors(samples)
	if err != nil {
		return nil, err
	}

	return ColorPartial{Colors: colors, Brightness: brightness}, nil
}

type rgb struct{ r, g, b float64 }

// samplePixels walks the image on a stride grid, collecting color samples and
// accumulating mean luma over every sampled pixel.
func samplePixels(frame *imaging.Frame) ([]rgb, int) {
	bounds := frame.Image.Bounds()
	total := bounds.Dx() * bounds.Dy()
	stride := 1
	for total/(stride*stride) > maxColorSamples {
		stride++
	}

	samples := make([]rgb, 0, maxColorSamples)
	var lumaSum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := frame.Image.At(x, y).RGBA()
			px := rgb{float64(r >> 8), float64(g >> 8), float64(b >> 8)}
			samples = append(samples, px)
			lumaSum += 0.299*px.r + 0.587*px.g + 0.114*px.b
		}
	}
	if len(samples) == 0 {
		return nil, 0
	}

	brightness := int(lumaSum/float64(len(samples)) + 0.5)
	return samples, clampInt(brightness, 0, 255)
}

// dominantColors returns exactly K hex colors ordered by descending cluster
// population. Images with K or fewer distinct sampled colors skip clustering:
// the distinct colors are ranked by frequency and padded to K with the most
// frequent one, so a uniform image yields K identical colors instead of an
// error.
func (a *ColorAnalyzer) dominantColors(samples []rgb) ([]string, error) {
	type bucket struct {
		color rgb
		count int
		seen  int
	}
	counts := make(map[rgb]*bucket, a.clusterCount+1)
	order := 0
	for _, px := range samples {
		if b, ok := counts[px]; ok {
			b.count++
			continue
		}
		counts[px] = &bucket{color: px, count: 1, seen: order}
		order++
		if len(counts) > a.clusterCount {
			break
		}
	}

	if len(counts) <= a.clusterCount {
		distinct := make([]*bucket, 0, len(counts))
		for _, b := range counts {
			distinct = append(distinct, b)
		}
		sort.Slice(distinct, func(i, j int) bool {
			if distinct[i].count != distinct[j].count {
				return distinct[i].count > distinct[j].count
			}
			return distinct[i].seen < distinct[j].seen
		})
		colors := make([]string, 0, a.clusterCount)
		for _, b := range distinct {
			colors = append(colors, hexColor(b.color))
		}
		for len(colors) < a.clusterCount {
			colors = append(colors, colors[0])
		}
		return colors, nil
	}

	obs := make(clusters.Observations, len(samples))
	for i, px := range samples {
		obs[i] = clusters.Coordinates{px.r, px.g, px.b}
	}

	km := kmeans.New()
	partition, err := km.Partition(obs, a.clusterCount)
	if err != nil {
		return nil, fmt.Errorf("kmeans partition: %w", err)
	}

	sort.SliceStable(partition, func(i, j int) bool {
		return len(partition[i].Observations) > len(partition[j].Observations)
	})

	colors := make([]string, 0, a.clusterCount)
	for _, c := range partition {
		colors = append(colors, hexColor(rgb{c.Center[0], c.Center[1], c.Center[2]}))
	}
	for len(colors) < a.clusterCount {
		colors = append(colors, colors[len(colors)-1])
	}
	return colors[:a.clusterCount], nil
}

func hexColor(c rgb) string {
	return fmt.Sprintf("#%02x%02x%02x",
		clampInt(int(c.r+0.5), 0, 255),
		clampInt(int(c.g+0.5), 0, 255),
		clampInt(int(c.b+0.5), 0, 255),
	)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

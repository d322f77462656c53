package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xSandiem/peek-api/internal/analyzer"
	"github.com/0xSandiem/peek-api/internal/annotate"
	"github.com/0xSandiem/peek-api/internal/config"
	"github.com/0xSandiem/peek-api/internal/imaging"
	"github.com/0xSandiem/peek-api/internal/models"
	"github.com/0xSandiem/peek-api/internal/repository"
	"github.com/0xSandiem/peek-api/internal/storage"
)

// ResultStore is the slice of the insight repository the orchestrator needs.
type ResultStore interface {
	MarkCompleted(ctx context.Context, id string, insights *models.Insights) error
	MarkFailed(ctx context.Context, id, reason string) error
}

// AssetStore resolves job identifiers to stored assets and records the
// annotated artifact key.
type AssetStore interface {
	GetByID(ctx context.Context, id string) (models.ImageAsset, error)
	SetAnnotatedKey(ctx context.Context, id, key string) error
}

// Orchestrator drives one image through every analyzer, aggregates their
// partial results, and owns the processing -> completed | failed transition.
type Orchestrator struct {
	blobs     storage.Store
	records   ResultStore
	assets    AssetStore
	analyzers []analyzer.Analyzer
	renderer  *annotate.Renderer
	cfg       config.PipelineConfig
	log       zerolog.Logger
}

func NewOrchestrator(
	blobs storage.Store,
	records ResultStore,
	assets AssetStore,
	analyzers []analyzer.Analyzer,
	renderer *annotate.Renderer,
	cfg config.PipelineConfig,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		blobs:     blobs,
		records:   records,
		assets:    assets,
		analyzers: analyzers,
		renderer:  renderer,
		cfg:       cfg,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
}

type analyzerResult struct {
	name    string
	partial analyzer.Partial
	err     error
}

// Run processes one job to a terminal state. It always resolves the record
// out of processing; the returned error reports worker-side trouble (for
// queue redelivery decisions), not job failure.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	started := time.Now()
	log := o.log.With().Str("job_id", jobID).Logger()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.JobTimeout)
	defer cancel()

	asset, err := o.assets.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("resolve asset: %w", err)
	}

	data, err := o.fetchOriginal(ctx, asset.OriginalKey)
	if err != nil {
		log.Error().Err(err).Msg("fetch original failed")
		return o.fail(ctx, jobID, storageFailureReason(ctx))
	}

	frame, err := imaging.Decode(data)
	if err != nil {
		log.Warn().Err(err).Msg("image decode failed")
		return o.fail(ctx, jobID, models.ReasonDecodeError)
	}

	results := o.runAnalyzers(ctx, frame)

	if ctx.Err() != nil {
		// The budget ran out mid-analysis; partial results are discarded.
		log.Warn().Dur("elapsed", time.Since(started)).Msg("job exceeded wall-clock budget")
		return o.fail(ctx, jobID, models.ReasonTimeout)
	}

	insights, faces, failureCount := o.aggregate(results, log)
	if failureCount == len(o.analyzers) {
		log.Error().Msg("every analyzer failed")
		return o.fail(ctx, jobID, models.ReasonPipelineError)
	}

	o.renderAnnotation(ctx, jobID, frame, faces, asset.OriginalKey, log)

	if ctx.Err() != nil {
		return o.fail(ctx, jobID, models.ReasonTimeout)
	}

	if err := o.records.MarkCompleted(context.WithoutCancel(ctx), jobID, insights); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			// Redelivered message; the record already reached a terminal
			// state and must not change again.
			log.Debug().Msg("record already terminal")
			return nil
		}
		return fmt.Errorf("mark completed: %w", err)
	}

	log.Info().
		Dur("elapsed", time.Since(started)).
		Int("analyzer_failures", failureCount).
		Int("faces", len(faces)).
		Msg("job completed")
	return nil
}

// fail marks the record failed on a context detached from the job budget so
// a timed-out job still reaches its terminal state.
func (o *Orchestrator) fail(ctx context.Context, jobID, reason string) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := o.records.MarkFailed(writeCtx, jobID, reason); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return nil
		}
		return fmt.Errorf("mark failed (%s): %w", reason, err)
	}
	return nil
}

func storageFailureReason(ctx context.Context) string {
	if ctx.Err() != nil {
		return models.ReasonTimeout
	}
	return models.ReasonStorageError
}

// fetchOriginal reads the original bytes with bounded retries; transient
// backend errors back off, a missing object does not.
func (o *Orchestrator) fetchOriginal(ctx context.Context, key string) ([]byte, error) {
	backoff := o.cfg.StorageRetryBackoff
	var lastErr error
	for attempt := 0; attempt <= o.cfg.StorageRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		data, err := o.blobs.Fetch(ctx, key)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// runAnalyzers fans the frame out to every analyzer concurrently. Each gets
// the same read-only frame; a panicking analyzer is converted into a failed
// result instead of killing the worker. Analyzers still running when the
// budget expires are abandoned.
func (o *Orchestrator) runAnalyzers(ctx context.Context, frame *imaging.Frame) []analyzerResult {
	resultCh := make(chan analyzerResult, len(o.analyzers))

	for _, a := range o.analyzers {
		go func(a analyzer.Analyzer) {
			defer func() {
				if r := recover(); r != nil {
					resultCh <- analyzerResult{name: a.Name(), err: fmt.Errorf("analyzer panic: %v", r)}
				}
			}()
			partial, err := a.Analyze(ctx, frame)
			resultCh <- analyzerResult{name: a.Name(), partial: partial, err: err}
		}(a)
	}

	results := make([]analyzerResult, 0, len(o.analyzers))
	for range o.analyzers {
		select {
		case res := <-resultCh:
			results = append(results, res)
		case <-ctx.Done():
			return results
		}
	}
	return results
}

// aggregate folds the partial results into one Insights value. A failed
// analyzer leaves its fields at zero values and records a failure flag; the
// fatality decision belongs to the caller.
func (o *Orchestrator) aggregate(results []analyzerResult, log zerolog.Logger) (*models.Insights, []models.FaceBox, int) {
	insights := &models.Insights{
		DominantColors: []string{},
		FaceLocations:  []models.FaceBox{},
		BlurLevel:      models.BlurHigh,
		SceneType:      models.SceneUnknown,
	}

	var faces []models.FaceBox
	failures := 0
	for _, res := range results {
		if res.err != nil {
			failures++
			log.Warn().Err(res.err).Str("analyzer", res.name).Msg("analyzer failed")
			if insights.AnalyzerErrors == nil {
				insights.AnalyzerErrors = make(map[string]string)
			}
			insights.AnalyzerErrors[res.name] = res.err.Error()
			continue
		}
		res.partial.Apply(insights)
		if fp, ok := res.partial.(analyzer.FacePartial); ok {
			faces = fp.Boxes
		}
	}

	clampInsights(insights)
	return insights, faces, failures
}

// clampInsights pins every numeric field to its declared range so one
// misbehaving analyzer cannot push an invalid value downstream.
func clampInsights(in *models.Insights) {
	in.Brightness = clampInt(in.Brightness, 0, 255)
	in.SharpnessScore = clampFloat(in.SharpnessScore, 0, 100)
	in.ContrastScore = clampFloat(in.ContrastScore, 0, 100)
	in.QualityScore = clampFloat(in.QualityScore, 0, 100)
	in.SceneConfidence = clampFloat(in.SceneConfidence, 0, 1)
	if in.WordCount < 0 {
		in.WordCount = 0
	}
	if in.FacesDetected < 0 {
		in.FacesDetected = 0
	}
}

func (o *Orchestrator) renderAnnotation(ctx context.Context, jobID string, frame *imaging.Frame, faces []models.FaceBox, originalKey string, log zerolog.Logger) {
	if o.renderer == nil {
		return
	}
	if len(faces) == 0 && !o.cfg.RenderEmptyAnnotations {
		return
	}

	key, err := o.renderer.Render(ctx, frame, faces, originalKey)
	if err != nil {
		// Non-fatal: the job completes without a derived artifact and
		// annotated retrieval reports NotFound.
		log.Warn().Err(err).Msg("annotation render failed")
		return
	}
	if err := o.assets.SetAnnotatedKey(ctx, jobID, key); err != nil {
		log.Warn().Err(err).Msg("record annotated key failed")
	}
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

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

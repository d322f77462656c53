package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/0xSandiem/peek-api/internal/repository"
)

// stuckGrace pads the worker's job budget before the sweep declares a
// processing record dead; a healthy worker always finishes first.
const stuckGrace = time.Minute

// Scheduler runs the periodic maintenance the pipeline's liveness guarantee
// depends on: any record a crashed worker left in processing is failed with
// a timeout reason, and the job stream is kept from growing without bound.
type Scheduler struct {
	cron       *cron.Cron
	queue      *redis.Client
	records    *repository.InsightRepository
	stream     string
	jobTimeout time.Duration
	log        zerolog.Logger
}

func NewScheduler(queue *redis.Client, records *repository.InsightRepository, stream string, jobTimeout time.Duration, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:       c,
		queue:      queue,
		records:    records,
		stream:     stream,
		jobTimeout: jobTimeout,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 * * * * *", s.sweepStuck); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.trimStream); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight maintenance jobs, up to a bounded grace period.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
}

// sweepStuck fails every record still processing past budget + grace, so a
// client polling a job whose worker died sees failed, not processing forever.
func (s *Scheduler) sweepStuck() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-(s.jobTimeout + stuckGrace))
	swept, err := s.records.SweepStuck(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("stuck record sweep failed")
		return
	}
	if swept > 0 {
		s.log.Warn().Int64("count", swept).Msg("timed out stuck records")
	}
}

func (s *Scheduler) trimStream() {
	if s.queue == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.queue.XTrimMaxLenApprox(ctx, s.stream, 10000, 0).Err(); err != nil {
		s.log.Error().Err(err).Msg("stream trim failed")
	}
}

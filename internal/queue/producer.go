package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TaskTypeAnalyze is the only task the analysis stream carries today;
// payloads keep a type field so housekeeping tasks can share the stream.
const TaskTypeAnalyze = "analyze"

// Producer appends job submissions to the durable stream. The original image
// must be stored and readable before Enqueue is called, so a worker never
// starts on unfetchable bytes.
type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) EnqueueAnalysis(ctx context.Context, jobID string) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":  TaskTypeAnalyze,
			"jobId": jobID,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	return nil
}

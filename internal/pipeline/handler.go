package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/0xSandiem/peek-api/internal/queue"
)

// TaskPayload is the job submission carried on the stream.
type TaskPayload struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
}

// JobHandler adapts queued messages onto orchestrator runs.
type JobHandler struct {
	orchestrator *Orchestrator
	logger       zerolog.Logger
}

func NewJobHandler(orchestrator *Orchestrator, logger zerolog.Logger) *JobHandler {
	return &JobHandler{orchestrator: orchestrator, logger: logger}
}

func (h *JobHandler) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case queue.TaskTypeAnalyze:
		if payload.JobID == "" {
			h.logger.Warn().Str("message_id", msg.ID).Msg("analyze task without job id")
			return nil
		}
		return h.orchestrator.Run(ctx, payload.JobID)
	default:
		h.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

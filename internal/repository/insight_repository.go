package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xSandiem/peek-api/internal/models"
)

var (
	ErrRecordNotFound = errors.New("insight record not found")

	// ErrStaleTransition means the record already left the processing state;
	// the attempted terminal transition was a duplicate and changed nothing.
	ErrStaleTransition = errors.New("record already terminal")
)

type InsightRepository struct {
	pool *pgxpool.Pool
}

func NewInsightRepository(pool *pgxpool.Pool) *InsightRepository {
	return &InsightRepository{pool: pool}
}

func (r *InsightRepository) Create(ctx context.Context, id string) error {
	const query = `
		INSERT INTO insight_records (id, status, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, id, models.RecordStatusProcessing)
	return err
}

func (r *InsightRepository) GetByID(ctx context.Context, id string) (models.InsightRecord, error) {
	const query = `
		SELECT id, status, reason, insights, created_at, updated_at
		FROM insight_records WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var record models.InsightRecord
	var reason *string
	var payload []byte
	if err := row.Scan(
		&record.ID,
		&record.Status,
		&reason,
		&payload,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.InsightRecord{}, ErrRecordNotFound
		}
		return models.InsightRecord{}, err
	}

	if reason != nil {
		record.Reason = *reason
	}
	if len(payload) > 0 {
		var insights models.Insights
		if err := json.Unmarshal(payload, &insights); err != nil {
			return models.InsightRecord{}, fmt.Errorf("unmarshal insights: %w", err)
		}
		record.Insights = &insights
	}
	return record, nil
}

// MarkCompleted writes the whole insights payload and flips the record to
// completed in one statement. The status guard makes the transition
// exactly-once: a record that already left processing is not touched.
func (r *InsightRepository) MarkCompleted(ctx context.Context, id string, insights *models.Insights) error {
	payload, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}

	const query = `
		UPDATE insight_records
		SET status = $2, insights = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`
	tag, err := r.pool.Exec(ctx, query, id, models.RecordStatusCompleted, payload, models.RecordStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleTransition
	}
	return nil
}

// MarkFailed transitions a processing record to failed with a machine
// readable reason. A timed-out job keeps no partial insights.
func (r *InsightRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `
		UPDATE insight_records
		SET status = $2, reason = $3, insights = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`
	tag, err := r.pool.Exec(ctx, query, id, models.RecordStatusFailed, reason, models.RecordStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleTransition
	}
	return nil
}

// SweepStuck fails every record that has sat in processing since before the
// cutoff. It backs the liveness guarantee that clients never poll a
// processing record forever, even when a worker died mid-job.
func (r *InsightRepository) SweepStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		UPDATE insight_records
		SET status = $1, reason = $2, updated_at = NOW()
		WHERE status = $3 AND created_at < $4
	`
	tag, err := r.pool.Exec(ctx, query, models.RecordStatusFailed, models.ReasonTimeout, models.RecordStatusProcessing, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

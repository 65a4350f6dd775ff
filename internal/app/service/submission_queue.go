package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"
	"tle_zone_studio/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

// SubmissionResultChannel is the pub/sub channel a worker answers a job on.
func SubmissionResultChannel(queue, jobID string) string {
	return queue + ":result:" + jobID
}

// QueuedSubmitter hands drafts to the submission worker through a Redis list
// and waits for the worker's answer on a per-job channel.
type QueuedSubmitter struct {
	rdb     *redis.Client
	queue   string
	timeout time.Duration
}

func NewQueuedSubmitter(rdb *redis.Client, queue string, timeout time.Duration) *QueuedSubmitter {
	return &QueuedSubmitter{rdb: rdb, queue: queue, timeout: timeout}
}

func (q *QueuedSubmitter) SubmitProblem(ctx context.Context, d model.ProblemDraft) (*model.Problem, error) {
	job := model.SubmissionJob{
		ID:    uuid.NewString(),
		Slug:  slug.Make(d.Name),
		Draft: d,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, common.Errorf("failed to marshal submission job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	// Subscribe before pushing so the answer cannot be missed.
	pubsub := q.rdb.Subscribe(ctx, SubmissionResultChannel(q.queue, job.ID))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, common.Errorf("failed to subscribe for submission result: %w", err)
	}

	if err := q.rdb.LPush(ctx, q.queue, payload).Err(); err != nil {
		return nil, common.Errorf("failed to push submission job to Redis queue: %w", err)
	}
	logger.Log.Infow("submission job enqueued", "job", job.ID, "slug", job.Slug)

	select {
	case msg, ok := <-pubsub.Channel():
		if !ok {
			return nil, common.Errorf("submission result channel closed: %w", common.ErrServiceUnavailable)
		}
		return decodeSubmissionResult(msg.Payload)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, common.Errorf("no answer for submission %s within %s: %w", job.ID, q.timeout, common.ErrServiceUnavailable)
		}
		return nil, ctx.Err()
	}
}

func decodeSubmissionResult(payload string) (*model.Problem, error) {
	var result model.SubmissionResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, common.Errorf("failed to decode submission result: %w", err)
	}
	if result.Error != "" {
		return nil, errors.New(result.Error)
	}
	if result.Problem == nil {
		return nil, common.Errorf("submission %s answered without a problem: %w", result.JobID, common.ErrInternalServer)
	}
	return result.Problem, nil
}

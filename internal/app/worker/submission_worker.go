package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"tle_zone_studio/internal/app/service"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"
	"tle_zone_studio/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ProblemCreator is the part of the problem service the worker drives.
type ProblemCreator interface {
	CreateProblem(ctx context.Context, draft model.ProblemDraft) (*model.Problem, error)
}

// releaseLockScript deletes the lock only if it still holds our value.
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

const (
	defaultPollTimeout = 5 * time.Second
	defaultRetryDelay  = 500 * time.Millisecond
)

type SubmissionWorker struct {
	rdb     *redis.Client
	creator ProblemCreator
	queue   string
	lockTTL time.Duration

	pollTimeout time.Duration // BRPOP block time
	retryDelay  time.Duration // wait before re-queueing a job whose slug is locked
}

func NewSubmissionWorker(rdb *redis.Client, creator ProblemCreator, queue string, lockTTL time.Duration) *SubmissionWorker {
	return &SubmissionWorker{
		rdb:         rdb,
		creator:     creator,
		queue:       queue,
		lockTTL:     lockTTL,
		pollTimeout: defaultPollTimeout,
		retryDelay:  defaultRetryDelay,
	}
}

func lockKey(queue, slug string) string {
	return queue + ":lock:" + slug
}

// Start pops jobs until ctx is cancelled. Jobs are handled one at a time.
func (w *SubmissionWorker) Start(ctx context.Context) {
	logger.Log.Infow("submission worker started", "queue", w.queue)
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("submission worker stopping")
			return
		default:
		}

		res, err := w.rdb.BRPop(ctx, w.pollTimeout, w.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Log.Errorw("failed to BRPop from submission queue", "queue", w.queue, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		// res is [queueName, value]
		if len(res) < 2 || res[1] == "" {
			logger.Log.Warn("BRPop returned an empty submission job")
			continue
		}
		w.processJobWithLock(ctx, res[1])
	}
}

func (w *SubmissionWorker) processJobWithLock(ctx context.Context, raw string) {
	var job model.SubmissionJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		logger.Log.Errorw("dropping malformed submission job", "error", err)
		return
	}

	key := lockKey(w.queue, job.Slug)
	lockValue, err := w.acquireLock(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrLockFailed) {
			logger.Log.Infow("slug is locked by another submission, re-queueing", "job", job.ID, "slug", job.Slug)
		} else {
			logger.Log.Errorw("failed to attempt submission lock", "job", job.ID, "error", err)
		}
		w.requeueJob(ctx, raw)
		return
	}
	defer w.releaseLock(ctx, key, lockValue, job.ID)

	w.handleJob(ctx, job)
}

// acquireLock takes the lock for key and returns the value that proves ownership.
// A lock held by someone else yields common.ErrLockFailed.
func (w *SubmissionWorker) acquireLock(ctx context.Context, key string) (string, error) {
	value := uuid.NewString()
	ok, err := w.rdb.SetNX(ctx, key, value, w.lockTTL).Result()
	if err != nil {
		return "", fmt.Errorf("SETNX %s: %w", key, err)
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", key, common.ErrLockFailed)
	}
	return value, nil
}

func (w *SubmissionWorker) releaseLock(ctx context.Context, key, value, jobID string) {
	deleted, err := releaseLockScript.Run(context.WithoutCancel(ctx), w.rdb, []string{key}, value).Int64()
	if err != nil {
		logger.Log.Errorw("failed to release submission lock", "key", key, "job", jobID, "error", err)
	} else if deleted != 1 {
		logger.Log.Warnw("submission lock expired before release", "key", key, "job", jobID)
	}
}

// requeueJob puts the job back after retryDelay so a held lock is not polled in a tight loop.
// On shutdown the job is put back at once.
func (w *SubmissionWorker) requeueJob(ctx context.Context, raw string) {
	select {
	case <-ctx.Done():
	case <-time.After(w.retryDelay):
	}
	if err := w.rdb.LPush(context.WithoutCancel(ctx), w.queue, raw).Err(); err != nil {
		logger.Log.Errorw("failed to re-queue submission job", "error", err)
	}
}

func (w *SubmissionWorker) handleJob(ctx context.Context, job model.SubmissionJob) {
	result := buildResult(ctx, w.creator, job)
	payload, err := json.Marshal(result)
	if err != nil {
		logger.Log.Errorw("failed to marshal submission result", "job", job.ID, "error", err)
		return
	}
	channel := service.SubmissionResultChannel(w.queue, job.ID)
	if err := w.rdb.Publish(context.WithoutCancel(ctx), channel, payload).Err(); err != nil {
		logger.Log.Errorw("failed to publish submission result", "job", job.ID, "error", err)
	}
}

func buildResult(ctx context.Context, creator ProblemCreator, job model.SubmissionJob) model.SubmissionResult {
	result := model.SubmissionResult{JobID: job.ID}
	problem, err := creator.CreateProblem(ctx, job.Draft)
	if err != nil {
		logger.Log.Warnw("submission rejected", "job", job.ID, "slug", job.Slug, "error", err)
		result.Error = err.Error()
		return result
	}
	logger.Log.Infow("submission stored", "job", job.ID, "serial", problem.Serial)
	result.Problem = problem
	return result
}

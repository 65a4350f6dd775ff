package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestQueuedSubmitterTimesOut(t *testing.T) {
	mr, rdb := newTestRedis(t)
	q := NewQueuedSubmitter(rdb, "subs", 100*time.Millisecond)

	_, err := q.SubmitProblem(context.Background(), model.ProblemDraft{Name: "Two Sum"})
	if !errors.Is(err, common.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}

	jobs, err := mr.List("subs")
	if err != nil || len(jobs) != 1 {
		t.Fatalf("queue = %v, %v", jobs, err)
	}
	var job model.SubmissionJob
	if err := json.Unmarshal([]byte(jobs[0]), &job); err != nil {
		t.Fatal(err)
	}
	if job.ID == "" || job.Slug != "two-sum" || job.Draft.Name != "Two Sum" {
		t.Errorf("job = %+v", job)
	}
}

// An answer published the moment the job is popped must still reach the submitter.
func TestQueuedSubmitterSubscribesBeforePush(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewQueuedSubmitter(rdb, "subs", 2*time.Second)

	go func() {
		ctx := context.Background()
		res, err := rdb.BRPop(ctx, 2*time.Second, "subs").Result()
		if err != nil {
			return
		}
		var job model.SubmissionJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return
		}
		payload, _ := json.Marshal(model.SubmissionResult{
			JobID:   job.ID,
			Problem: &model.Problem{Serial: 5, Name: job.Draft.Name},
		})
		rdb.Publish(ctx, SubmissionResultChannel("subs", job.ID), payload)
	}()

	p, err := q.SubmitProblem(context.Background(), model.ProblemDraft{Name: "Two Sum"})
	if err != nil {
		t.Fatalf("SubmitProblem: %v", err)
	}
	if p.Serial != 5 || p.Name != "Two Sum" {
		t.Errorf("problem = %+v", p)
	}
}

func TestQueuedSubmitterHonoursCallerCancel(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewQueuedSubmitter(rdb, "subs", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	_, err := q.SubmitProblem(ctx, model.ProblemDraft{Name: "Two Sum"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

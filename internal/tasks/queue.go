package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	JobSendAlertNotification = "send_alert_notification"
	JobRunRiskPrediction     = "run_risk_prediction"

	resultKeyPrefix  = "task:result:"
	defaultResultTTL = 24 * time.Hour
)

// Job is a unit of background work. Args are flat strings so they survive a stream entry.
type Job struct {
	Type string            `json:"type"`
	Args map[string]string `json:"args"`
}

// Handle identifies a submitted job.
type Handle string

// Queue accepts fire-and-forget jobs. Delivery is at most once and failures are not retried.
type Queue interface {
	Submit(ctx context.Context, job Job) (Handle, error)
	// Result returns the job's result string once it has run.
	Result(ctx context.Context, h Handle) (string, bool, error)
}

// RedisQueue appends jobs to a Redis Stream consumed by Worker.
type RedisQueue struct {
	client    *redis.Client
	stream    string
	resultTTL time.Duration
}

func NewRedisQueue(client *redis.Client, stream string) *RedisQueue {
	return &RedisQueue{client: client, stream: stream, resultTTL: defaultResultTTL}
}

func (q *RedisQueue) Submit(ctx context.Context, job Job) (Handle, error) {
	args, err := json.Marshal(job.Args)
	if err != nil {
		return "", fmt.Errorf("failed to encode job args: %w", err)
	}

	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"type":      job.Type,
			"args":      string(args),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", job.Type, err)
	}
	return Handle(id), nil
}

func (q *RedisQueue) Result(ctx context.Context, h Handle) (string, bool, error) {
	value, err := q.client.Get(ctx, resultKeyPrefix+string(h)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// EnsureGroup creates the consumer group and the stream if needed.
func EnsureGroup(ctx context.Context, client *redis.Client, stream, group string) error {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", group, err)
	}
	return nil
}

func decodeJob(values map[string]interface{}) (Job, error) {
	jobType, _ := values["type"].(string)
	if jobType == "" {
		return Job{}, errors.New("stream entry has no job type")
	}
	job := Job{Type: jobType, Args: map[string]string{}}
	if raw, ok := values["args"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Args); err != nil {
			return Job{}, fmt.Errorf("invalid job args: %w", err)
		}
	}
	return job, nil
}

// InlineQueue runs jobs on goroutines in this process. Used when Redis is not configured.
type InlineQueue struct {
	dispatcher *Dispatcher
	results    sync.Map
	wg         sync.WaitGroup
}

func NewInlineQueue(d *Dispatcher) *InlineQueue {
	return &InlineQueue{dispatcher: d}
}

func (q *InlineQueue) Submit(ctx context.Context, job Job) (Handle, error) {
	h := Handle(uuid.NewString())
	jobCtx := context.WithoutCancel(ctx)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.results.Store(h, q.dispatcher.Run(jobCtx, job))
	}()
	return h, nil
}

func (q *InlineQueue) Result(_ context.Context, h Handle) (string, bool, error) {
	v, ok := q.results.Load(h)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

// Wait blocks until every submitted job has finished.
func (q *InlineQueue) Wait() {
	q.wg.Wait()
}
